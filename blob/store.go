package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/nicolaschan/baybridge/canon"
)

// ErrNotFound is returned by Get when no block exists at the given hash.
var ErrNotFound = errors.New("blob: not found")

// Store is a content-addressed, write-once block store backed by one file
// per block in a directory, named by the block's hash. A single
// sync.RWMutex enforces the single-writer/multiple-reader discipline
// required by §4.5 — writes never race each other or a concurrent read.
type Store struct {
	mu   sync.RWMutex
	path string
}

// NewStore creates the backing directory (if absent) and returns a Store
// rooted at it.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("blob: creating store directory: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) blockPath(h canon.Hash) string {
	return filepath.Join(s.path, h.Hex())
}

// Get decodes and returns the block at hash, or ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, hash canon.Hash) (ContentBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.blockPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return ContentBlock{}, ErrNotFound
		}
		return ContentBlock{}, fmt.Errorf("blob: reading block: %w", err)
	}
	block, err := DecodeContentBlock(data)
	if err != nil {
		return ContentBlock{}, fmt.Errorf("blob: decoding block: %w", err)
	}
	return block, nil
}

// Put writes block if it is not already present and returns its hash.
// Blocks are write-once: an existing file at the computed hash is left
// untouched.
func (s *Store) Put(ctx context.Context, block ContentBlock) (canon.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := block.Hash()
	path := s.blockPath(hash)
	if _, err := os.Stat(path); err == nil {
		return hash, nil
	} else if !os.IsNotExist(err) {
		return canon.Hash{}, fmt.Errorf("blob: stat block: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, block.CanonicalBytes(), 0o600); err != nil {
		return canon.Hash{}, fmt.Errorf("blob: writing block: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return canon.Hash{}, fmt.Errorf("blob: finalizing block: %w", err)
	}
	return hash, nil
}
