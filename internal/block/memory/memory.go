// Package memory provides an in-process block.Adapter backed by a map
// guarded by a sync.RWMutex, typically used as the fast front layer of a
// cascade.
package memory

import (
	"context"
	"sync"

	"github.com/shazhou-ww/hstore/internal/block"
)

// Adapter is a map-backed block.Adapter. The zero value is not usable;
// construct with New.
type Adapter struct {
	mu     sync.RWMutex
	blocks map[string][]byte
}

// New creates an empty in-memory adapter.
func New() *Adapter {
	return &Adapter{blocks: make(map[string][]byte)}
}

func (a *Adapter) Read(_ context.Context, hash string) (block.StoredBlock, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.blocks[hash]
	if !ok {
		return block.StoredBlock{}, false, nil
	}
	return block.StoredBlock{Hash: hash, Bytes: data}.Clone(), true, nil
}

func (a *Adapter) Write(_ context.Context, b block.StoredBlock) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]byte, len(b.Bytes))
	copy(cp, b.Bytes)
	a.blocks[b.Hash] = cp
	return nil
}

// Clear removes every block. Exercises block.Clearer; the core never calls
// it, only tests.
func (a *Adapter) Clear(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blocks = make(map[string][]byte)
	return nil
}

// Len reports how many blocks are currently stored, for test assertions.
func (a *Adapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.blocks)
}
