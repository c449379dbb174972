// Package extract turns uploaded documents into plain text.
// PDF, TXT, Markdown, and JSON are handled directly; audio and video
// files are detected here and transcribed by the caller.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/plugnplai/relnotes/log"
)

var logger = log.GetLogger("Extract")

// UnsupportedTypeError is returned for file extensions the extractor
// does not know
type UnsupportedTypeError struct {
	Ext string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.Ext)
}

var mediaExtensions = map[string]bool{
	".mp4":  true,
	".mpeg": true,
	".m4v":  true,
	".mov":  true,
	".avi":  true,
	".wmv":  true,
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".webm": true,
}

var documentExtensions = map[string]bool{
	".pdf":  true,
	".txt":  true,
	".md":   true,
	".json": true,
}

// IsMediaFile reports whether the filename looks like an audio or video
// file that needs speech-to-text
func IsMediaFile(filename string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsDocumentFile reports whether the filename is a directly extractable
// document
func IsDocumentFile(filename string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsSupportedFile reports whether the filename can be processed at all
func IsSupportedFile(filename string) bool {
	return IsDocumentFile(filename) || IsMediaFile(filename)
}

// Text extracts plain text from document bytes based on the filename
// extension. Media files are rejected here; transcribe them instead.
func Text(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return fromPDF(data)
	case ".txt", ".md":
		return fromText(data)
	case ".json":
		return fromJSON(data)
	default:
		return fromSniffed(ext, data)
	}
}

// fromSniffed is the fallback for unknown extensions. The content is
// sniffed and handled when it turns out to be a known format anyway.
func fromSniffed(ext string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	switch {
	case contentType == "application/pdf":
		return fromPDF(data)
	case strings.HasPrefix(contentType, "text/plain"):
		return fromText(data)
	case strings.HasPrefix(contentType, "text/"), contentType == "application/json":
		logger.Debug().Str("contentType", contentType).Msg("treating unknown extension as text")
		return fromText(data)
	default:
		return "", &UnsupportedTypeError{Ext: ext}
	}
}

func fromText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text file is not valid UTF-8")
	}
	return string(data), nil
}

// fromJSON validates the document and pretty-prints it so field names
// survive into the transcript
func fromJSON(data []byte) (string, error) {
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("error reading JSON: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(parsed); err != nil {
		return "", fmt.Errorf("error reading JSON: %w", err)
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}
