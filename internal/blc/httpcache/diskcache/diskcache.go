// Package diskcache implements a persistent second tier for
// httpcache.Client, backed by go.etcd.io/bbolt.
//
// Grounded on TheSnook-polyester/storage/bbolt.go, which opens a bbolt
// database and a single bucket and stores one binary blob per key. Entries
// here are encoded with encoding/gob rather than protobuf: unlike
// polyester's resource.Resource, a cached http response has no wire
// contract shared with another system, so there is nothing for a .proto
// schema to buy us (see DESIGN.md).
package diskcache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/cametumbling/blc/internal/blc/model"
)

var bucketName = []byte("responses")

// Cache is a bbolt-backed persistent response cache.
type Cache struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a bbolt database at path and ensures
// the response bucket exists.
func Open(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening disk cache %q: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating disk cache bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get implements httpcache.DiskCache.
func (c *Cache) Get(key string) (*model.Response, bool) {
	var resp model.Response
	var found bool
	c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&resp); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if !found {
		return nil, false
	}
	return &resp, true
}

// Put implements httpcache.DiskCache.
func (c *Cache) Put(key string, resp *model.Response) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(resp); err != nil {
		return
	}
	c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), buf.Bytes())
	})
}
