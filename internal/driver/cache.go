package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"gleam/internal/build"
	"gleam/internal/source"
)

// Digest is a sha256 content hash.
type Digest [sha256.Size]byte

// Increment when the payload format changes.
const cacheSchemaVersion uint16 = 1

// DiskCache persists per-module build metadata between sessions: the
// source hash that decides whether a module needs recompiling, and the
// warnings it produced, for replay when the module is served from cache.
// Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// diskPayload is the msgpack-encoded cache record for one module.
type diskPayload struct {
	Schema     uint16
	Path       string
	SourceHash Digest
	Warnings   []payloadWarning
}

type payloadWarning struct {
	Message   string
	StartLine uint32
	StartCol  uint32
	EndLine   uint32
	EndCol    uint32
}

// CacheDir returns the standard cache location for the toolchain.
func CacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "gleam"), nil
}

// OpenDiskCache initializes a disk cache at the standard location.
func OpenDiskCache() (*DiskCache, error) {
	dir, err := CacheDir()
	if err != nil {
		return nil, err
	}
	return OpenDiskCacheAt(dir)
}

// OpenDiskCacheAt initializes a disk cache rooted at dir.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "mods"), 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(modulePath string) string {
	key := sha256.Sum256([]byte(modulePath))
	return filepath.Join(c.dir, "mods", hex.EncodeToString(key[:])+".mp")
}

// Store writes the cache record for one module.
func (c *DiskCache) Store(modulePath string, sourceHash Digest, warnings []build.Warning) error {
	payload := diskPayload{
		Schema:     cacheSchemaVersion,
		Path:       modulePath,
		SourceHash: sourceHash,
		Warnings:   encodeWarnings(warnings),
	}
	data, err := msgpack.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload for %s: %w", modulePath, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.pathFor(modulePath)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// Load reads the cache record for one module. The second return value is
// false when no usable record exists; stale schemas are treated as absent.
func (c *DiskCache) Load(modulePath string) (Digest, []build.Warning, bool) {
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(modulePath))
	c.mu.RUnlock()
	if err != nil {
		return Digest{}, nil, false
	}
	var payload diskPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return Digest{}, nil, false
	}
	if payload.Schema != cacheSchemaVersion || payload.Path != modulePath {
		return Digest{}, nil, false
	}
	return payload.SourceHash, decodeWarnings(modulePath, payload.Warnings), true
}

// Remove deletes the cache record for one module, if present.
func (c *DiskCache) Remove(modulePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := os.Remove(c.pathFor(modulePath))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func encodeWarnings(warnings []build.Warning) []payloadWarning {
	out := make([]payloadWarning, 0, len(warnings))
	for _, w := range warnings {
		d := w.ToDiagnostic()
		if d.Location == nil {
			continue
		}
		r := d.Location.Range
		out = append(out, payloadWarning{
			Message:   d.Message,
			StartLine: r.Start.Line,
			StartCol:  r.Start.Col,
			EndLine:   r.End.Line,
			EndCol:    r.End.Col,
		})
	}
	return out
}

func decodeWarnings(modulePath string, warnings []payloadWarning) []build.Warning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]build.Warning, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, build.CachedWarning{
			Path:    modulePath,
			Message: w.Message,
			Range: source.Range{
				Start: source.LineCol{Line: w.StartLine, Col: w.StartCol},
				End:   source.LineCol{Line: w.EndLine, Col: w.EndCol},
			},
		})
	}
	return out
}
