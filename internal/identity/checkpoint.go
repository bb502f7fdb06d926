package identity

import (
	"encoding/json"
	"fmt"
)

// Checkpoint is a signed, point-in-time snapshot of a store's head: enough
// for a remote party to later confirm "the head really was this hash, at
// this time, according to this identity" without trusting whatever
// transport carried the export. It never appears in the core's own block
// storage — it is export tooling layered entirely outside §6.2's wire
// format.
type Checkpoint struct {
	DID        string `json:"did"`
	Head       string `json:"head"`
	ChainLen   int    `json:"chain_len"`
	ExportedAt int64  `json:"exported_at"`
	Signature  string `json:"signature"`
}

// Export builds and signs a Checkpoint over the given head hash and chain
// length, using id's private key and exportedAtMS as the timestamp.
func (id *Identity) Export(head string, chainLen int, exportedAtMS int64) (*Checkpoint, error) {
	unsigned := Checkpoint{
		DID:        id.DID,
		Head:       head,
		ChainLen:   chainLen,
		ExportedAt: exportedAtMS,
	}
	doc, err := canonicalDocument(unsigned)
	if err != nil {
		return nil, err
	}
	sig, err := id.Sign(doc)
	if err != nil {
		return nil, err
	}
	unsigned.Signature = sig
	return &unsigned, nil
}

// VerifyCheckpoint reports whether cp's signature is valid for its own
// DID and content.
func VerifyCheckpoint(cp Checkpoint) (bool, error) {
	signature := cp.Signature
	cp.Signature = ""
	doc, err := canonicalDocument(cp)
	if err != nil {
		return false, err
	}
	return Verify(cp.DID, doc, signature)
}

// canonicalDocument marshals the checkpoint's signed fields in a fixed
// field order, independent of cp.Signature.
func canonicalDocument(cp Checkpoint) ([]byte, error) {
	doc := struct {
		DID        string `json:"did"`
		Head       string `json:"head"`
		ChainLen   int    `json:"chain_len"`
		ExportedAt int64  `json:"exported_at"`
	}{cp.DID, cp.Head, cp.ChainLen, cp.ExportedAt}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("identity: marshal checkpoint document: %w", err)
	}
	return data, nil
}
