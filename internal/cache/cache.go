package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// keyVersion is bumped whenever the cached page layout format changes
const keyVersion = "taxscroll:v1:"

// Key derives a cache key from its parts
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return keyVersion + hex.EncodeToString(hash[:])
}

// DocumentKey identifies a document by location, size and modification time, so an
// edited or replaced file never hits stale entries
func DocumentKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat document: %w", err)
	}

	return Key(abs, strconv.FormatInt(info.Size(), 10), strconv.FormatInt(info.ModTime().UnixNano(), 10)), nil
}

// PageKey returns the key of one page of a document
func PageKey(documentKey string, page int) string {
	return Key(documentKey, "page", strconv.Itoa(page))
}
