package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean name", "notes.pdf", "notes.pdf"},
		{"path traversal", "../../etc/passwd", "passwd"},
		{"windows separators", "release:notes?.txt", "release_notes_.txt"},
		{"angle brackets", "<demo>.mp4", "_demo_.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeduplicateFilename(t *testing.T) {
	dir := t.TempDir()

	if got := DeduplicateFilename(dir, "notes.pdf"); got != "notes.pdf" {
		t.Errorf("expected original name for empty dir, got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DeduplicateFilename(dir, "notes.pdf"); got != "notes 2.pdf" {
		t.Errorf("expected 'notes 2.pdf', got %q", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes 2.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := DeduplicateFilename(dir, "notes.pdf"); got != "notes 3.pdf" {
		t.Errorf("expected 'notes 3.pdf', got %q", got)
	}
}

func TestDetectMimeType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.pdf", "application/pdf"},
		{"a.txt", "text/plain"},
		{"a.json", "application/json"},
		{"demo.MP4", "video/mp4"},
		{"unknown.xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectMimeType(tt.filename); got != tt.want {
				t.Errorf("DetectMimeType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
