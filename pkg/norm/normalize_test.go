package norm

import (
	"io"
	"strings"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Année", "annee"},
		{"Code Département", "code departement"},
		{" Secteur d'activité ", "secteur d'activite"},
		{"", ""},
	}
	for _, tt := range tests {
		got := Fold(tt.input)
		if got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestUpper(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Tertiaire", "TERTIAIRE"},
		{"industrie ", "INDUSTRIE"},
		{"AGRICULTURE", "AGRICULTURE"},
	}
	for _, tt := range tests {
		got := Upper(tt.input)
		if got != tt.want {
			t.Errorf("Upper(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestHeader(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"\ufeffAnnée", "annee"},
		{"Consommation annuelle totale de l’adresse (MWh)", "consommation annuelle totale de l'adresse (mwh)"},
		{"Code   Région", "code region"},
	}
	for _, tt := range tests {
		got := Header(tt.input)
		if got != tt.want {
			t.Errorf("Header(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewReader_Latin1(t *testing.T) {
	// "Année" in ISO-8859-1.
	src := strings.NewReader("Ann\xe9e")
	r, err := NewReader(src, "iso-8859-1")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "Année" {
		t.Errorf("decoded = %q, want %q", string(data), "Année")
	}
}

func TestNewReader_UTF8Passthrough(t *testing.T) {
	src := strings.NewReader("Année")
	r, err := NewReader(src, "UTF-8")
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r != io.Reader(src) {
		t.Error("expected the original reader for utf-8")
	}
}

func TestNewReader_Unknown(t *testing.T) {
	if _, err := NewReader(strings.NewReader(""), "klingon-1"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}
