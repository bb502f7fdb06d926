// Package cascade composes N ordered block.Adapters, fastest to slowest,
// into one adapter that reads with first-hit-wins-then-hydrate-up
// semantics and writes through to every layer as a barrier, fanning out
// with golang.org/x/sync/errgroup.
package cascade

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shazhou-ww/hstore/internal/block"
	"github.com/shazhou-ww/hstore/internal/herr"
)

// Cascade composes layers[0]...layers[n-1] into a single block.Adapter.
type Cascade struct {
	layers []block.Adapter
}

// New composes layers into a Cascade. Fails with a herr.ConfigError if
// layers is empty (§4.2's construction invariant).
func New(layers []block.Adapter) (*Cascade, error) {
	if len(layers) == 0 {
		return nil, herr.NewConfigError("cascade requires at least one layer")
	}
	cp := make([]block.Adapter, len(layers))
	copy(cp, layers)
	return &Cascade{layers: cp}, nil
}

// Read probes layers in declared order. On a hit at index k, the block is
// written through to layers[0:k] concurrently (hydration) before
// returning. The returned bytes are always the first-hit value — hydration
// never alters what's observed.
func (c *Cascade) Read(ctx context.Context, hash string) (block.StoredBlock, bool, error) {
	for k, layer := range c.layers {
		found, ok, err := layer.Read(ctx, hash)
		if err != nil {
			return block.StoredBlock{}, false, herr.NewAdapterError("cascade read", err)
		}
		if !ok {
			continue
		}
		result := found.Clone()
		if k > 0 {
			if err := c.hydrate(ctx, result, k); err != nil {
				return block.StoredBlock{}, false, err
			}
		}
		return result, true, nil
	}
	return block.StoredBlock{}, false, nil
}

// hydrate writes b to layers[0:upTo] concurrently, barriering on
// completion. A hydration failure is surfaced to the caller of Read —
// §4.2 treats any layer failure as an error, hydration included.
func (c *Cascade) hydrate(ctx context.Context, b block.StoredBlock, upTo int) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < upTo; i++ {
		layer := c.layers[i]
		g.Go(func() error {
			return layer.Write(gctx, b.Clone())
		})
	}
	if err := g.Wait(); err != nil {
		return herr.NewAdapterError("cascade hydrate", err)
	}
	return nil
}

// Write fans out to every layer concurrently; it only returns once every
// layer has acknowledged, and surfaces the first error encountered.
func (c *Cascade) Write(ctx context.Context, b block.StoredBlock) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, layer := range c.layers {
		l := layer
		blk := b.Clone()
		g.Go(func() error {
			return l.Write(gctx, blk)
		})
	}
	if err := g.Wait(); err != nil {
		return herr.NewAdapterError("cascade write", err)
	}
	return nil
}

// Clear clears every layer that implements block.Clearer. Used only by
// tests; the core never calls it.
func (c *Cascade) Clear(ctx context.Context) error {
	for _, layer := range c.layers {
		if clearer, ok := layer.(block.Clearer); ok {
			if err := clearer.Clear(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
