package util

import (
	"errors"
	"strings"
)

// SanitizeFileName cleans an uploaded document's file name before it is used
// as part of an object-store key. Traversal patterns are rejected outright;
// path separators are flattened to underscores.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
