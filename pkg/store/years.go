package store

import (
	"strconv"
	"strings"
)

func joinYears(years []int) string {
	parts := make([]string, len(years))
	for i, y := range years {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ",")
}

func splitYears(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	years := make([]int, len(parts))
	for i, p := range parts {
		y, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		years[i] = y
	}
	return years, nil
}
