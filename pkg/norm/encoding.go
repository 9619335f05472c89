package norm

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// NewReader wraps r so that it yields UTF-8. enc is an HTML encoding label
// ("iso-8859-1", "windows-1252", ...); empty or UTF-8 labels return r as is.
func NewReader(r io.Reader, enc string) (io.Reader, error) {
	if IsUTF8(enc) {
		return r, nil
	}
	e, err := htmlindex.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", enc, err)
	}
	return transform.NewReader(r, e.NewDecoder()), nil
}

// IsUTF8 reports whether enc names UTF-8 (or nothing).
func IsUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
