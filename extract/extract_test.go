package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestIsMediaFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"demo.mp4", true},
		{"Recording.MOV", true},
		{"clip.m4v", true},
		{"talk.mpeg", true},
		{"old.avi", true},
		{"old.wmv", true},
		{"audio.mp3", true},
		{"voice.m4a", true},
		{"notes.pdf", false},
		{"notes.txt", false},
		{"data.json", false},
		{"README.md", false},
		{"noextension", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsMediaFile(tt.filename); got != tt.want {
				t.Errorf("IsMediaFile(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIsSupportedFile(t *testing.T) {
	if !IsSupportedFile("update.pdf") {
		t.Error("pdf should be supported")
	}
	if !IsSupportedFile("demo.mp4") {
		t.Error("mp4 should be supported")
	}
	if IsSupportedFile("archive.zip") {
		t.Error("zip should not be supported")
	}
}

func TestTextFromTxt(t *testing.T) {
	got, err := Text("notes.txt", []byte("hello release"))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "hello release" {
		t.Errorf("Text() = %q", got)
	}
}

func TestTextFromMarkdown(t *testing.T) {
	src := "# Release\n\nSome feature."
	got, err := Text("notes.md", []byte(src))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != src {
		t.Errorf("Text() = %q", got)
	}
}

func TestTextFromInvalidUTF8(t *testing.T) {
	_, err := Text("notes.txt", []byte{0xff, 0xfe, 0xfd})
	if err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
}

func TestTextFromJSON(t *testing.T) {
	got, err := Text("data.json", []byte(`{"feature":"shift planning","status":"done"}`))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if !strings.Contains(got, `"feature": "shift planning"`) {
		t.Errorf("expected pretty-printed JSON, got %q", got)
	}
}

func TestTextFromInvalidJSON(t *testing.T) {
	_, err := Text("data.json", []byte(`{"feature":`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestTextSniffsUnknownExtension(t *testing.T) {
	got, err := Text("build.log", []byte("deployed version 2.4"))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != "deployed version 2.4" {
		t.Errorf("Text() = %q", got)
	}
}

func TestTextUnsupportedType(t *testing.T) {
	_, err := Text("archive.zip", []byte("PK\x03\x04\x00\x00\x00\x00"))
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}

	var typeErr *UnsupportedTypeError
	if !errors.As(err, &typeErr) {
		t.Errorf("expected UnsupportedTypeError, got %v", err)
	}
	if typeErr != nil && typeErr.Ext != ".zip" {
		t.Errorf("Ext = %q, want .zip", typeErr.Ext)
	}
}

func TestTextFromEmptyPDF(t *testing.T) {
	_, err := Text("report.pdf", []byte("not a pdf"))
	if err == nil {
		t.Fatal("expected error for invalid PDF bytes")
	}
}
