// Package util contains any functions used across the application that don't match
// any other package
package util

import (
	"path/filepath"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idCharset = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewID returns a random alphanumeric ID of length n
func NewID(n int) (string, error) {
	return gonanoid.Generate(idCharset, n)
}

// StoredName builds a collision resistant object name for an uploaded file,
// keeping a sanitized version of the original name for readability
func StoredName(original string) (string, error) {
	prefix, err := NewID(16)
	if err != nil {
		return "", err
	}

	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := strings.ToLower(filepath.Ext(base))
	stem := unsafeName.ReplaceAllString(strings.TrimSuffix(base, filepath.Ext(base)), "_")
	stem = strings.Trim(stem, "._-")

	if len(stem) > 64 {
		stem = stem[:64]
	}

	if stem == "" {
		return prefix + ext, nil
	}

	return prefix + "_" + stem + ext, nil
}
