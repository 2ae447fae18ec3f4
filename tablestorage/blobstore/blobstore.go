// Package blobstore is an in-memory stand-in for a cloud blob service.
// Blobs live in a Badger database under keys of the form
//
//	[container][0x00][blob name]
//
// which keeps every container's blobs in one contiguous, name-ordered range.
package blobstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

var ErrBlobNotFound = errors.New("blob not found")

const keySeparator byte = 0x00

// Store holds blob containers.
type Store struct {
	db *badger.DB

	mu         sync.Mutex
	containers map[string]*Container
}

// Options configures the Badger database behind a Store.
type Options struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
	// Logger for Badger. If nil, logging is disabled.
	Logger badger.Logger
}

func New(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(opts.Logger)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db, containers: make(map[string]*Container)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Container returns the named container, creating it on first use.
func (s *Store) Container(name string) *Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.containers[name]
	if !ok {
		c = &Container{name: name, db: s.db}
		s.containers[name] = c
	}
	return c
}

// Container is a named group of blobs.
type Container struct {
	name string
	db   *badger.DB
}

func (c *Container) Name() string {
	return c.name
}

func (c *Container) prefix() []byte {
	return append([]byte(c.name), keySeparator)
}

func (c *Container) key(blob string) []byte {
	return append(c.prefix(), blob...)
}

// SharedAccessSignature returns a placeholder token. Nothing checks it.
func (c *Container) SharedAccessSignature(validSeconds int) string {
	return fmt.Sprintf("Fake Blob Container/%s/ValidFor/%d/seconds", c.name, validSeconds)
}

func (c *Container) UploadText(blob, content string) error {
	return c.put(blob, []byte(content))
}

// Upload stores everything read from r, replacing any existing blob.
func (c *Container) Upload(blob string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read blob %s/%s: %w", c.name, blob, err)
	}
	return c.put(blob, data)
}

func (c *Container) put(blob string, data []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(blob), data)
	})
	if err != nil {
		return fmt.Errorf("store blob %s/%s: %w", c.name, blob, err)
	}
	return nil
}

// OpenStream returns a reader over the blob's contents.
func (c *Container) OpenStream(blob string) (io.ReadCloser, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(blob))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s/%s: %w", c.name, blob, ErrBlobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", c.name, blob, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// ListBlobs returns the names of blobs starting with prefix, in name order.
func (c *Container) ListBlobs(prefix string) ([]string, error) {
	var names []string
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = c.key(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		base := len(c.prefix())
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[base:]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs in %s: %w", c.name, err)
	}
	return names, nil
}

// DeleteBlob removes a blob. Deleting a missing blob is not an error.
func (c *Container) DeleteBlob(blob string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(c.key(blob))
	})
	if err != nil {
		return fmt.Errorf("delete blob %s/%s: %w", c.name, blob, err)
	}
	return nil
}

// ReadText reads a whole blob as a string.
func (c *Container) ReadText(blob string) (string, error) {
	r, err := c.OpenStream(blob)
	if err != nil {
		return "", err
	}
	defer r.Close()
	var sb strings.Builder
	if _, err := io.Copy(&sb, r); err != nil {
		return "", err
	}
	return sb.String(), nil
}
