// Package identity manages a local Ed25519 keypair and its DID encoding,
// used to detached-sign checkpoint exports (see cmd/hstore's "checkpoint"
// subcommand). It never touches the VersionBlock or head wire format; a
// store works identically with or without an identity configured.
//
// Keys live under ~/.config/hstore/identity.json, generated on first use
// and loaded thereafter. DIDs are multicodec 0xED01 + base58btc over the
// raw public key. The private key is persisted as its 32-byte seed,
// alongside the public key and the DID.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mr-tron/base58"
)

const identityRelPath = ".config/hstore/identity.json"

var ed25519Multicodec = []byte{0xed, 0x01}

// Identity holds an Ed25519 keypair and the derived did:key.
type Identity struct {
	DID        string `json:"did"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"` // base64 32-byte seed
}

// DefaultPath returns ~/.config/hstore/identity.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("identity: determine home directory: %w", err)
	}
	return filepath.Join(home, identityRelPath), nil
}

// Load reads the identity file at path, generating and persisting a new
// keypair if it does not yet exist.
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var id Identity
		if err := json.Unmarshal(data, &id); err != nil {
			return nil, fmt.Errorf("identity: parse %s: %w", path, err)
		}
		return &id, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("identity: read %s: %w", path, err)
	}
	return generate(path)
}

func generate(path string) (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate key: %w", err)
	}
	seed := priv.Seed()
	did := encodeDIDKey(pub)

	id := &Identity{
		DID:        did,
		PublicKey:  base64.StdEncoding.EncodeToString(pub),
		PrivateKey: base64.StdEncoding.EncodeToString(seed),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("identity: create directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("identity: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("identity: write %s: %w", path, err)
	}
	return id, nil
}

// SigningKey returns the Ed25519 private key derived from the stored seed.
func (id *Identity) SigningKey() (ed25519.PrivateKey, error) {
	seed, err := base64.StdEncoding.DecodeString(id.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("identity: decode private key: %w", err)
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// VerifyKey returns the Ed25519 public key.
func (id *Identity) VerifyKey() (ed25519.PublicKey, error) {
	pub, err := base64.StdEncoding.DecodeString(id.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("identity: decode public key: %w", err)
	}
	return ed25519.PublicKey(pub), nil
}

// Sign detached-signs an arbitrary document (a checkpoint's canonical
// bytes) with the local identity's private key.
func (id *Identity) Sign(document []byte) (string, error) {
	key, err := id.SigningKey()
	if err != nil {
		return "", err
	}
	sig := ed25519.Sign(key, document)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a base64-encoded detached signature against document using
// the public key embedded in the given did:key string.
func Verify(did string, document []byte, signatureB64 string) (bool, error) {
	pub, err := DecodeDIDKey(did)
	if err != nil {
		return false, err
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return false, fmt.Errorf("identity: decode signature: %w", err)
	}
	return ed25519.Verify(ed25519.PublicKey(pub), document, sig), nil
}

// DecodeDIDKey decodes a did:key:z... string to its raw 32-byte Ed25519
// public key, using the multibase-compatible base58btc alphabet that
// go-multibase and the rest of this rewrite's hash stack already depend
// on transitively.
func DecodeDIDKey(did string) ([]byte, error) {
	if !strings.HasPrefix(did, "did:key:z") {
		return nil, fmt.Errorf("identity: invalid did:key format: %s", did)
	}
	prefixed, err := base58.Decode(did[len("did:key:z"):])
	if err != nil {
		return nil, fmt.Errorf("identity: invalid base58 payload: %w", err)
	}
	if len(prefixed) != 2+ed25519.PublicKeySize || prefixed[0] != ed25519Multicodec[0] || prefixed[1] != ed25519Multicodec[1] {
		return nil, fmt.Errorf("identity: invalid multicodec prefix for Ed25519 key")
	}
	return prefixed[2:], nil
}

func encodeDIDKey(publicKey []byte) string {
	prefixed := append(append([]byte{}, ed25519Multicodec...), publicKey...)
	return "did:key:z" + base58.Encode(prefixed)
}
