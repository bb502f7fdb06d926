// Package objectstore projects a JSON value onto a DAG of
// content-addressed Nodes through a block.Adapter, deduplicating within
// one call and across calls, and the inverse — materializing a frozen
// JSON value back out of a root hash.
package objectstore

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shazhou-ww/hstore/internal/block"
	"github.com/shazhou-ww/hstore/internal/canhash"
	"github.com/shazhou-ww/hstore/internal/canon"
	"github.com/shazhou-ww/hstore/internal/frozen"
	"github.com/shazhou-ww/hstore/internal/herr"
	"github.com/shazhou-ww/hstore/internal/jsonvalue"
)

// Store maps JSON values to and from a DAG of blocks.
type Store struct {
	adapter block.Adapter
	hashFn  canhash.HashFn

	mu             sync.Mutex
	hashToValue    map[string]*frozen.Value // instance-lifetime hydration cache
	primitiveHints map[string]string        // canonical literal -> hash, instance-lifetime
}

// New builds an Object Store over adapter using hashFn.
func New(adapter block.Adapter, hashFn canhash.HashFn) *Store {
	return &Store{
		adapter:        adapter,
		hashFn:         hashFn,
		hashToValue:    make(map[string]*frozen.Value),
		primitiveHints: make(map[string]string),
	}
}

// perCallCache tracks subtrees already resolved to a hash within a single
// Write invocation, keyed by a composite value's identity (§4.4's "cycles
// of pending work over shared substructures within one write compute each
// subtree at most once").
type perCallCache struct {
	mu      sync.Mutex
	pending map[any]string
}

func newPerCallCache() *perCallCache {
	return &perCallCache{pending: make(map[any]string)}
}

func (c *perCallCache) get(key any) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.pending[key]
	return h, ok
}

func (c *perCallCache) set(key any, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[key] = hash
}

// Write decomposes value into a Node DAG, writes every not-yet-known block
// through the adapter, and returns the root hash.
func (s *Store) Write(ctx context.Context, value jsonvalue.Value) (string, error) {
	cache := newPerCallCache()
	return s.writeValue(ctx, value, cache)
}

func (s *Store) writeValue(ctx context.Context, value jsonvalue.Value, cache *perCallCache) (string, error) {
	if key, ok := value.IdentityKey(); ok {
		if h, hit := cache.get(key); hit {
			return h, nil
		}
	}

	var node canon.Node
	switch value.Kind() {
	case jsonvalue.KindNull, jsonvalue.KindBool, jsonvalue.KindNumber, jsonvalue.KindString:
		lit, err := value.PrimitiveLiteral()
		if err != nil {
			return "", err
		}
		s.mu.Lock()
		if h, ok := s.primitiveHints[string(lit)]; ok {
			s.mu.Unlock()
			return h, nil
		}
		s.mu.Unlock()
		node = canon.NewPrimitive(lit)

	case jsonvalue.KindArray:
		elems := value.Elements()
		children := make([]string, len(elems))
		g, gctx := errgroup.WithContext(ctx)
		for i, elem := range elems {
			i, elem := i, elem
			g.Go(func() error {
				h, err := s.writeValue(gctx, elem, cache)
				if err != nil {
					return err
				}
				children[i] = h
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}
		node = canon.NewArray(children)

	case jsonvalue.KindObject:
		keys := value.Keys()
		hashes := make([]string, len(keys))
		g, gctx := errgroup.WithContext(ctx)
		for i, key := range keys {
			i, key := i, key
			fieldVal, _ := value.Field(key)
			g.Go(func() error {
				h, err := s.writeValue(gctx, fieldVal, cache)
				if err != nil {
					return err
				}
				hashes[i] = h
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return "", err
		}
		entries := make(map[string]string, len(keys))
		for i, key := range keys {
			entries[key] = hashes[i]
		}
		node = canon.NewObject(entries)

	default:
		return "", fmt.Errorf("objectstore: unknown value kind %v", value.Kind())
	}

	hash, bytes, err := canhash.HashNode(s.hashFn, node)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	_, known := s.hashToValue[hash]
	if !known {
		s.hashToValue[hash] = frozen.Freeze(value)
	}
	if value.Kind() != jsonvalue.KindArray && value.Kind() != jsonvalue.KindObject {
		lit, _ := value.PrimitiveLiteral()
		s.primitiveHints[string(lit)] = hash
	}
	s.mu.Unlock()

	if !known {
		if err := s.adapter.Write(ctx, block.StoredBlock{Hash: hash, Bytes: bytes}); err != nil {
			return "", herr.NewAdapterError("objectstore write", err)
		}
	}

	if key, ok := value.IdentityKey(); ok {
		cache.set(key, hash)
	}
	return hash, nil
}

// Read materializes the value rooted at hash, recursively fetching child
// blocks. Returns (nil, false, nil) if the root block itself is absent or
// any transitively referenced child is missing (a dangling reference,
// §7 — never an error).
func (s *Store) Read(ctx context.Context, hash string) (*frozen.Value, bool, error) {
	s.mu.Lock()
	if v, ok := s.hashToValue[hash]; ok {
		s.mu.Unlock()
		return v, true, nil
	}
	s.mu.Unlock()

	v, ok, err := s.readValue(ctx, hash)
	if err != nil || !ok {
		return nil, ok, err
	}

	frozenV := frozen.Freeze(v)
	s.mu.Lock()
	s.hashToValue[hash] = frozenV
	s.mu.Unlock()
	return frozenV, true, nil
}

func (s *Store) readValue(ctx context.Context, hash string) (jsonvalue.Value, bool, error) {
	s.mu.Lock()
	if v, ok := s.hashToValue[hash]; ok {
		s.mu.Unlock()
		return v.Unwrap(), true, nil
	}
	s.mu.Unlock()

	blk, ok, err := s.adapter.Read(ctx, hash)
	if err != nil {
		return jsonvalue.Value{}, false, herr.NewAdapterError("objectstore read", err)
	}
	if !ok {
		return jsonvalue.Value{}, false, nil
	}

	node, err := canon.Deserialize(blk.Bytes)
	if err != nil {
		return jsonvalue.Value{}, false, err
	}

	switch node.Kind {
	case canon.NodePrimitive:
		v, err := jsonvalue.Parse(node.Primitive)
		if err != nil {
			return jsonvalue.Value{}, false, herr.ErrCorruptBlock
		}
		return v, true, nil

	case canon.NodeArray:
		items := make([]jsonvalue.Value, len(node.Children))
		for i, childHash := range node.Children {
			child, ok, err := s.readValue(ctx, childHash)
			if err != nil {
				return jsonvalue.Value{}, false, err
			}
			if !ok {
				return jsonvalue.Value{}, false, nil // dangling reference
			}
			items[i] = child
		}
		return jsonvalue.Array(items), true, nil

	case canon.NodeObject:
		fields := make(map[string]jsonvalue.Value, len(node.Entries))
		for _, e := range node.Entries {
			child, ok, err := s.readValue(ctx, e.Hash)
			if err != nil {
				return jsonvalue.Value{}, false, err
			}
			if !ok {
				return jsonvalue.Value{}, false, nil // dangling reference
			}
			fields[e.Key] = child
		}
		return jsonvalue.Object(fields), true, nil

	default:
		return jsonvalue.Value{}, false, herr.ErrCorruptBlock
	}
}
