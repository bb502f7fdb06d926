// Package block defines the Block Adapter Contract (§6.1): the uniform,
// opaque-bytes persistence interface every backend — and the Cascade
// Adapter composing them — must honor.
package block

import "context"

// ReservedHeadKey is the fixed key the Version Store persists its head
// record under (§6.4). No user value may ever be written under this key.
const ReservedHeadKey = "__hstore_head__"

// StoredBlock is the adapter-level record: a hash and its opaque bytes
// (§3). Bytes are the canonical encoding of exactly one Node, one
// VersionBlock, or the head record — the adapter never interprets them.
type StoredBlock struct {
	Hash  string
	Bytes []byte
}

// Clone returns a deep copy of the block, including its byte buffer — the
// immutability discipline every layer crossing an adapter boundary must
// apply (§4.2).
func (b StoredBlock) Clone() StoredBlock {
	cp := make([]byte, len(b.Bytes))
	copy(cp, b.Bytes)
	return StoredBlock{Hash: b.Hash, Bytes: cp}
}

// Adapter is the contract every block-storage backend satisfies (§6.1).
// Read returns (block, true, nil) on a hit, (zero, false, nil) on a clean
// miss, and a non-nil error only for an underlying I/O failure. Write is
// idempotent for the same (hash, bytes) pair; writing different bytes
// under a hash already present is undefined behavior the caller must never
// trigger (the hash function is assumed collision-free in practice). The
// one exception is ReservedHeadKey: each Write under it replaces the
// stored head record.
type Adapter interface {
	Read(ctx context.Context, hash string) (StoredBlock, bool, error)
	Write(ctx context.Context, b StoredBlock) error
}

// Closer is an optional lifecycle hook. The core never calls it; callers
// that own an Adapter's underlying resource may use it during shutdown.
type Closer interface {
	Close() error
}

// Clearer is an optional lifecycle hook for wiping a backend's contents
// (primarily useful in tests). The core never calls it.
type Clearer interface {
	Clear(ctx context.Context) error
}
