// Package utils holds small filesystem and filename helpers shared by
// the upload paths.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var unsafeChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFilename strips directory components and replaces characters
// that are unsafe on common filesystems
func SanitizeFilename(filename string) string {
	return unsafeChars.Replace(filepath.Base(filename))
}

// DeduplicateFilename returns a name that does not collide with an
// existing file in dir, counting up in the "notes 2.pdf" style
func DeduplicateFilename(dir, filename string) string {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	candidate := filename
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s %d%s", stem, n, ext)
	}
}

var extensionMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".json": "application/json",
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".wmv":  "video/x-ms-wmv",
	".webm": "video/webm",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

// DetectMimeType maps a filename extension to a MIME type,
// application/octet-stream when unknown
func DetectMimeType(filename string) string {
	if mime, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mime
	}
	return "application/octet-stream"
}
