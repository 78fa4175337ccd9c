package gallery

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// IsValidPath validates that a path string meets the requirements for a storage key.
// It checks that the path:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8
//   - does not contain "." segments (/., /./, or ending with /.)
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
//
// Returns true if the path is valid, false otherwise.
func IsValidPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' {
		return false
	}

	if strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") {
		return false
	}

	if strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if p == "/." || strings.Contains(p, "/./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r == 0 || r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

// ParseTags splits a comma separated tag string. Each tag is trimmed, empty
// tags are dropped and order is preserved. Duplicates are kept.
// The result is never nil.
func ParseTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		tag := strings.TrimSpace(part)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// FileExtension returns the part of name after the last ".", or "" if there
// is none. Extensions containing anything but ASCII letters and digits are
// treated as absent.
func FileExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	ext := name[i+1:]
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// GenerateFilename builds the storage key for a new upload from the upload
// time, a random id and the original file extension.
func GenerateFilename(originalName string, now time.Time, id uuid.UUID) string {
	name := fmt.Sprintf("%d_%s", now.UnixMilli(), id.String())
	if ext := FileExtension(originalName); ext != "" {
		name += "." + ext
	}
	return name
}

// IsGeneratedFilename reports whether key has the shape GenerateFilename
// produces: "<unix millis>_<uuid>" with an optional alphanumeric extension.
func IsGeneratedFilename(key string) bool {
	millis, rest, found := strings.Cut(key, "_")
	if !found || millis == "" {
		return false
	}
	for _, r := range millis {
		if r < '0' || r > '9' {
			return false
		}
	}

	id, ext, hasExt := strings.Cut(rest, ".")
	if hasExt && (ext == "" || FileExtension("."+ext) != ext) {
		return false
	}

	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// MatchesQuery reports whether the record's title, description or any tag
// contains query, ignoring case. An empty query matches everything.
func MatchesQuery(r ImageRecord, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)

	if r.Title != "" && strings.Contains(strings.ToLower(r.Title), q) {
		return true
	}
	if r.Description != "" && strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// DetectContentType guesses a MIME type from the file extension.
func DetectContentType(name string) string {
	contentType := mime.TypeByExtension(filepath.Ext(name))

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
