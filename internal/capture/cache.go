package capture

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"argon/internal/ir"
)

// cacheSchema is bumped whenever Payload or the graph layout changes.
const cacheSchema uint16 = 1

// Digest is a sha256 sum, compatible with source.File.Hash.
type Digest [32]byte

// Key derives the cache key of a capture from the file content and every
// option that changes the staged graph.
func Key(content Digest, entry string, whitelist []string) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte{byte(cacheSchema >> 8), byte(cacheSchema)})
	_, _ = h.Write(content[:])
	_, _ = h.Write([]byte(entry))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strings.Join(whitelist, "\x00")))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Payload is what the cache stores per capture.
type Payload struct {
	Schema     uint16
	Path       string
	Entry      string
	Funcs      []string
	Graph      *ir.Graph
	HostOutput []byte
	Nodes      int
	Bounds     int
}

// Cache stores captured graphs on disk keyed by Digest. A nil *Cache is a
// valid cache that never hits.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache creates dir if needed.
func OpenCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "graphs", hex.EncodeToString(key[:])+".mp")
}

// Put writes p atomically under key.
func (c *Cache) Put(key Digest, p *Payload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	p.Schema = cacheSchema
	if err := msgpack.NewEncoder(f).Encode(p); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Get loads the payload stored under key. A payload with a stale schema
// counts as a miss.
func (c *Cache) Get(key Digest) (*Payload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var p Payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, false, err
	}
	if p.Schema != cacheSchema {
		return nil, false, nil
	}
	return &p, true, nil
}

// DropAll removes every cached graph.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "graphs"))
}
