package common

import (
	"errors"
	"testing"
)

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("svg")
	if err != nil {
		t.Fatalf("ParseExportFormat(svg) error = %v", err)
	}
	if f != ExportFormatSvg {
		t.Errorf("ParseExportFormat(svg) = %v, want %v", f, ExportFormatSvg)
	}
	if f.Ext() != ".svg" {
		t.Errorf("Ext() = %q, want .svg", f.Ext())
	}
	if f.MediaType() != "image/svg+xml;charset=utf-8" {
		t.Errorf("MediaType() = %q", f.MediaType())
	}

	for _, name := range []string{"png", "SVG", "", "pdf"} {
		if _, err := ParseExportFormat(name); !errors.Is(err, ErrInvalidExportFormat) {
			t.Errorf("ParseExportFormat(%q) error = %v, want ErrInvalidExportFormat", name, err)
		}
	}
}

func TestThemeModeText(t *testing.T) {
	var m ThemeMode
	if err := m.UnmarshalText([]byte("dark")); err != nil {
		t.Fatalf("UnmarshalText(dark) error = %v", err)
	}
	if m != ThemeModeDark {
		t.Errorf("mode = %v, want dark", m)
	}
	data, _ := m.MarshalText()
	if string(data) != "dark" {
		t.Errorf("MarshalText() = %q, want dark", data)
	}
	if err := m.UnmarshalText([]byte("sepia")); err == nil {
		t.Error("expected error for unknown theme mode")
	}
}
