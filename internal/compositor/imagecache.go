package compositor

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type cachedImage struct {
	dataURI string
	modTime time.Time
	size    int64
}

// imageCache memoizes base64 data URIs per image path. Entries are
// invalidated when the file's mtime or size changes, so recalibrated floor
// plans show up without a restart.
type imageCache struct {
	mu      sync.RWMutex
	entries map[string]cachedImage
}

func newImageCache() *imageCache {
	return &imageCache{entries: make(map[string]cachedImage)}
}

// DataURI returns the data: URI for an image file, encoding at most once per
// file version.
func (c *imageCache) DataURI(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}

	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && e.modTime.Equal(fi.ModTime()) && e.size == fi.Size() {
		return e.dataURI, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		ext = "png"
	}
	uri := "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(data)

	c.mu.Lock()
	c.entries[path] = cachedImage{dataURI: uri, modTime: fi.ModTime(), size: fi.Size()}
	c.mu.Unlock()
	return uri, nil
}
