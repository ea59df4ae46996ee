// Package sizecache caches folder-size computations in a local Badger
// store. Folder sizes are expensive to compute over large footage trees
// and only advisory (staleness detection uses a 1 KiB threshold), so
// entries carry a TTL instead of precise invalidation.
package sizecache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bakerlabs/baker/pkg/baker/project"
)

// DefaultTTL bounds how stale a cached folder size may be.
const DefaultTTL = 15 * time.Minute

// ErrNotFound is returned when a folder has no cached size.
var ErrNotFound = errors.New("folder size not cached")

// Cache wraps Badger for folder-size lookups.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens or creates a size cache at the given path.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger's own logging is noise here.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open size cache: %w", err)
	}
	return &Cache{db: db, ttl: DefaultTTL}, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached size for a project folder, or ErrNotFound.
func (c *Cache) Get(projectPath string) (int64, error) {
	var size int64
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(projectPath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return ErrNotFound
			}
			size = int64(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Put stores a folder size with the cache TTL.
func (c *Cache) Put(projectPath string, size int64) error {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, uint64(size))

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(projectPath), val).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
}

// Invalidate drops the cached size for a project folder. The watcher
// calls this when footage changes under a watched project.
func (c *Cache) Invalidate(projectPath string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(projectPath))
	})
}

// Size returns the folder size, computing and caching it on a miss.
func (c *Cache) Size(projectPath string) (int64, error) {
	if size, err := c.Get(projectPath); err == nil {
		return size, nil
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	size, err := project.FolderSize(projectPath)
	if err != nil {
		return 0, err
	}
	if err := c.Put(projectPath, size); err != nil {
		return size, err
	}
	return size, nil
}
