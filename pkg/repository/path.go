package repository

import (
	"errors"
	"path"
	"strings"
)

// ErrInvalidPath is returned for artifact paths that escape the repository
// root or are otherwise malformed.
var ErrInvalidPath = errors.New("invalid artifact path")

// NormalizePath validates and canonicalizes an artifact path relative to the
// repository root. Leading slashes are stripped; traversal segments, empty
// paths, and backslashes are rejected.
func NormalizePath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}

	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, "../") || strings.HasPrefix(cleaned, "/") {
		return "", ErrInvalidPath
	}

	return cleaned, nil
}

// IsMetadataPath reports whether the path addresses Maven repository
// metadata rather than an artifact payload. Metadata requests are excluded
// from download statistics.
func IsMetadataPath(p string) bool {
	base := path.Base(p)
	if strings.HasPrefix(base, "maven-metadata.xml") {
		return true
	}
	switch path.Ext(base) {
	case ".md5", ".sha1", ".sha256", ".sha512", ".asc":
		return true
	}
	return false
}
