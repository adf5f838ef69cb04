package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "work.pdf")

	if err := WriteFileAtomic(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("read back %q, want %q", data, "payload")
	}

	// No temporary files should survive a successful write.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "work.epub")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("read back %q, want %q", data, "second")
	}
}

func TestExtensionMatches(t *testing.T) {
	pdfHeader := []byte("%PDF-1.7\n%some pdf body")
	htmlBody := []byte("<html><head><title>Retry later</title></head></html>")

	tests := []struct {
		name     string
		data     []byte
		ft       string
		expected bool
	}{
		{"pdf payload for pdf request", pdfHeader, "PDF", true},
		{"pdf payload for epub request", pdfHeader, "EPUB", false},
		{"unrecognized payload passes", htmlBody, "HTML", true},
		{"unrecognized payload passes any type", htmlBody, "PDF", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtensionMatches(tt.data, tt.ft); got != tt.expected {
				t.Errorf("ExtensionMatches(..., %q) = %v, want %v", tt.ft, got, tt.expected)
			}
		})
	}
}
