package blobstore

import (
	"errors"
	"path"
	"strings"
)

var errInvalidKey = errors.New("invalid object key")

// cleanKey rejects empty and escaping keys and strips a leading slash.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", errInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errInvalidKey
	}
	return key, nil
}
