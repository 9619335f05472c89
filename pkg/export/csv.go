package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

func writeCSV(path string, t table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	rec := make([]string, len(t.header))
	for _, row := range t.rows {
		for i, v := range row {
			rec[i] = formatCell(v)
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// writeJSON writes the table as an array of objects keyed by column name.
func writeJSON(path string, t table) error {
	objs := make([]map[string]any, 0, len(t.rows))
	for _, row := range t.rows {
		obj := make(map[string]any, len(t.header))
		for i, h := range t.header {
			obj[h] = row[i]
		}
		objs = append(objs, obj)
	}
	data, err := json.MarshalIndent(objs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", t.name, err)
	}
	return os.WriteFile(path, data, 0o644)
}
