package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestReport_NilIsNoop(t *testing.T) {
	var r *Report
	r.Store("x", "/nonexistent")
	r.StoreData("y", []byte("data"))
	if r.Name() != "" {
		t.Errorf("Name() = %q, want empty", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestReport_Close_WritesArchive(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(dir, "stored.txt")
	if err := os.WriteFile(stored, []byte("stored file"), 0644); err != nil {
		t.Fatalf("write stored file: %v", err)
	}
	r.Store("files/stored.txt", stored)
	r.Store("files/missing.txt", filepath.Join(dir, "missing.txt"))
	r.StoreData("export/doc.svg", []byte("<svg/>"))
	r.StoreData("export/doc.svg", []byte("<svg></svg>"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer zr.Close()

	found := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		found[f.Name] = string(data)
	}

	if _, ok := found["MANIFEST"]; !ok {
		t.Error("MANIFEST missing from report")
	}
	if found["files/stored.txt"] != "stored file" {
		t.Errorf("stored file content = %q", found["files/stored.txt"])
	}
	if _, ok := found["files/missing.txt"]; ok {
		t.Error("missing file should not be archived")
	}
	if found["export/doc.svg"] != "<svg/>" {
		t.Errorf("first data entry = %q, want <svg/>", found["export/doc.svg"])
	}
	// 1 manifest + 1 file + 2 data entries
	if len(found) != 4 {
		t.Errorf("archive has %d entries, want 4: %v", len(found), found)
	}
}
