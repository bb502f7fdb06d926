// Package canhash implements the Canonical Hasher: a thin wrapper over a
// caller-supplied HashFn, plus two concrete, fully-wired HashFn
// implementations built on the go-cid / go-multihash / go-multibase
// content-identifier stack, so the store's hash-function-agnostic
// design is backed by more than one real choice.
package canhash

import (
	"fmt"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"lukechampine.com/blake3"

	"github.com/shazhou-ww/hstore/internal/canon"
)

// HashFn is the pure function bytes -> Hash the store is built around
// (§3). Implementations must be deterministic and, in practice,
// collision-resistant; the core never checks either property.
type HashFn func(data []byte) string

// HashBytes applies a HashFn to a raw byte sequence.
func HashBytes(fn HashFn, data []byte) string {
	return fn(data)
}

// HashNode serializes a Node and hashes the result — the hash a block is
// stored and looked up under.
func HashNode(fn HashFn, n canon.Node) (string, []byte, error) {
	data, err := canon.Serialize(n)
	if err != nil {
		return "", nil, err
	}
	return fn(data), data, nil
}

// SHA256 returns a HashFn that multihashes input with SHA2-256, wraps the
// digest in a CIDv1 (raw codec), and renders it as a lowercase base32
// (RFC4648, no padding) multibase string.
func SHA256() HashFn {
	return func(data []byte) string {
		mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
		if err != nil {
			// multihash.Sum only fails for an unsupported code or a bad
			// length argument, neither of which is possible with this
			// fixed code and the default (-1) length.
			panic(fmt.Sprintf("canhash: sha256 multihash: %v", err))
		}
		c := gocid.NewCidV1(gocid.Raw, mh)
		encoded, err := multibase.Encode(multibase.Base32, c.Bytes())
		if err != nil {
			panic(fmt.Sprintf("canhash: sha256 multibase encode: %v", err))
		}
		return encoded
	}
}

// BLAKE3 returns a HashFn built the same way as SHA256 but over BLAKE3's
// 256-bit output, exercising go-multihash's BLAKE3 registration. A second,
// independently-wired hash function is proof that the store genuinely
// doesn't care which HashFn it's given.
func BLAKE3() HashFn {
	return func(data []byte) string {
		sum := blake3.Sum256(data)
		// BLAKE3 is a XOF; go-multihash's Sum() only drives hash
		// implementations it has built in, so the digest is computed
		// directly with lukechampine.com/blake3 and then wrapped with
		// Encode, which just attaches the multihash code+length header to
		// an already-computed digest.
		mhBytes, err := multihash.Encode(sum[:], multihash.BLAKE3)
		if err != nil {
			panic(fmt.Sprintf("canhash: blake3 multihash encode: %v", err))
		}
		c := gocid.NewCidV1(gocid.Raw, multihash.Multihash(mhBytes))
		encoded, err := multibase.Encode(multibase.Base32, c.Bytes())
		if err != nil {
			panic(fmt.Sprintf("canhash: blake3 multibase encode: %v", err))
		}
		return encoded
	}
}
