package server

import (
	"mime"
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

// TypeGuesser maps a file name to a content type.
type TypeGuesser func(name string) string

var previewablePrefixes = []string{"image/", "video/", "audio/", "text/"}

// GuessType guesses a content type from the file extension.
func GuessType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return defaultContentType
	}

	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}

	// Fallbacks for systems with sparse mime tables.
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".txt", ".md", ".log", ".csv", ".yaml", ".yml", ".toml", ".ini", ".conf", ".go", ".py", ".sh", ".rs", ".c", ".h":
		return "text/plain; charset=utf-8"
	case ".zip":
		return "application/zip"
	case ".tar":
		return "application/x-tar"
	case ".gz":
		return "application/gzip"
	case ".7z":
		return "application/x-7z-compressed"
	}

	return defaultContentType
}

// CanPreview reports whether a browser can render the content type inline.
func CanPreview(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}

	if mediaType == "application/pdf" {
		return true
	}

	for _, prefix := range previewablePrefixes {
		if strings.HasPrefix(mediaType, prefix) {
			return true
		}
	}

	return false
}
