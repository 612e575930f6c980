package internal

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSinkWritesParts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink: %v", err)
	}
	defer sink.Close()

	parts := []FilePart{
		{FileName: "dataset-0001.jsonl", Content: []byte("{\"a\":1}\n")},
		{FileName: "dataset-0002.jsonl", Content: []byte("{\"b\":2}\n")},
	}
	for _, p := range parts {
		if err := sink.WritePart(p); err != nil {
			t.Fatalf("WritePart(%s): %v", p.FileName, err)
		}
	}

	for _, p := range parts {
		data, err := os.ReadFile(filepath.Join(dir, p.FileName))
		if err != nil {
			t.Fatalf("read back %s: %v", p.FileName, err)
		}
		if string(data) != string(p.Content) {
			t.Errorf("%s = %q, want %q", p.FileName, data, p.Content)
		}
	}
}

func TestZipSinkProducesReadableArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.zip")
	sink, err := NewZipSink(path)
	if err != nil {
		t.Fatalf("NewZipSink: %v", err)
	}

	want := map[string]string{
		"dataset-0001.jsonl": "{\"a\":1}\n",
		"dataset-0002.jsonl": "{\"b\":2}\n",
	}
	for _, name := range []string{"dataset-0001.jsonl", "dataset-0002.jsonl"} {
		if err := sink.WritePart(FilePart{FileName: name, Content: []byte(want[name])}); err != nil {
			t.Fatalf("WritePart(%s): %v", name, err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	if len(zr.File) != len(want) {
		t.Fatalf("archive has %d files, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if string(data) != want[f.Name] {
			t.Errorf("%s = %q, want %q", f.Name, data, want[f.Name])
		}
	}
}
