// Package version implements the Version Store: a schema-validated
// commit chain over the Object Store, with a singleton head pointer
// persisted through the same block.Adapter every value block goes
// through — so every backend cascade participates in head storage the
// same way it does value storage, rather than the head living in a
// separate dotfile on disk.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/shazhou-ww/hstore/internal/block"
	"github.com/shazhou-ww/hstore/internal/canhash"
	"github.com/shazhou-ww/hstore/internal/frozen"
	"github.com/shazhou-ww/hstore/internal/herr"
	"github.com/shazhou-ww/hstore/internal/jsonvalue"
	"github.com/shazhou-ww/hstore/internal/objectstore"
	"github.com/shazhou-ww/hstore/internal/schema"
)

// Block is the wire shape of a version block (§6.2): {"value":<hash>,
// "previous":<hash|null>,"timestamp":<int>}. Previous is nil for the
// first commit in a chain, matching the wire format's literal JSON null.
type Block struct {
	Value     string  `json:"value"`
	Previous  *string `json:"previous"`
	Timestamp int64   `json:"timestamp"`
}

// headRecord is the singleton block stored under block.ReservedHeadKey.
// Head is nil before any commit or immediately after a repair.
type headRecord struct {
	Head *string `json:"head"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// StateVersion is the caller-visible snapshot of one commit: its own
// hash, the frozen value it points to, the hash of the previous version
// (empty string for the first commit), and the commit's timestamp.
type StateVersion struct {
	Hash      string
	Value     *frozen.Value
	Previous  string
	Timestamp int64
}

// Store is the Version Store: a schema-validated commit chain with a
// persisted head pointer. One Store must not be shared across goroutines
// making concurrent commits — §5 requires single-writer discipline.
type Store struct {
	adapter   block.Adapter
	hashFn    canhash.HashFn
	objects   *objectstore.Store
	validator schema.Validator
	nowMS     func() int64

	mu           sync.Mutex
	headMemo     string // "" means no commits yet
	versionCache map[string]struct{}
}

// Open constructs a Store, probing and, if necessary, repairing the head
// record (§4.5's Initialization algorithm). nowMS supplies the current
// time in epoch milliseconds; tests substitute a deterministic clock.
func Open(ctx context.Context, adapter block.Adapter, hashFn canhash.HashFn, validator schema.Validator, nowMS func() int64) (*Store, error) {
	if adapter == nil {
		return nil, herr.NewConfigError("version: adapter is required")
	}
	if hashFn == nil {
		return nil, herr.NewConfigError("version: hashFn is required")
	}
	if validator == nil {
		validator = schema.Any{}
	}
	if nowMS == nil {
		return nil, herr.NewConfigError("version: nowMS clock is required")
	}

	s := &Store{
		adapter:      adapter,
		hashFn:       hashFn,
		objects:      objectstore.New(adapter, hashFn),
		validator:    validator,
		nowMS:        nowMS,
		versionCache: make(map[string]struct{}),
	}

	if err := s.loadOrRepairHead(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadOrRepairHead(ctx context.Context) error {
	blk, ok, err := s.adapter.Read(ctx, block.ReservedHeadKey)
	if err != nil {
		return herr.NewAdapterError("version: read head", err)
	}
	if !ok {
		return s.writeHeadRecord(ctx, "")
	}

	var rec headRecord
	if jsonErr := json.Unmarshal(blk.Bytes, &rec); jsonErr != nil {
		log.Printf("version: head record corrupt, repairing to null: %v", jsonErr)
		return s.writeHeadRecord(ctx, "")
	}

	s.headMemo = strVal(rec.Head)
	return nil
}

func (s *Store) writeHeadRecord(ctx context.Context, head string) error {
	rec := headRecord{Head: strPtr(head)}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("version: encode head record: %w", err)
	}
	if err := s.adapter.Write(ctx, block.StoredBlock{Hash: block.ReservedHeadKey, Bytes: data}); err != nil {
		return herr.NewAdapterError("version: write head", err)
	}
	s.headMemo = head
	return nil
}

// Commit validates value, persists it through the Object Store, links it
// to the current head via a new version block, and advances the head.
func (s *Store) Commit(ctx context.Context, value jsonvalue.Value) (StateVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	validated, err := s.validator.Validate(value)
	if err != nil {
		return StateVersion{}, herr.NewValidationError(err)
	}

	valueHash, err := s.objects.Write(ctx, validated)
	if err != nil {
		return StateVersion{}, err
	}

	frozenVal, ok, err := s.objects.Read(ctx, valueHash)
	if err != nil {
		return StateVersion{}, err
	}
	if !ok {
		// The write we just performed guarantees presence; this would
		// only trip on an adapter that lies about its own writes.
		return StateVersion{}, fmt.Errorf("version: wrote %s but immediate read-back missed", valueHash)
	}

	previous := s.headMemo
	vb := Block{Value: valueHash, Previous: strPtr(previous), Timestamp: s.nowMS()}
	versionBytes, err := json.Marshal(vb)
	if err != nil {
		return StateVersion{}, fmt.Errorf("version: encode version block: %w", err)
	}
	versionHash := s.hashFn(versionBytes)

	if _, known := s.versionCache[versionHash]; !known {
		if err := s.adapter.Write(ctx, block.StoredBlock{Hash: versionHash, Bytes: versionBytes}); err != nil {
			return StateVersion{}, herr.NewAdapterError("version: write version block", err)
		}
		s.versionCache[versionHash] = struct{}{}
	}

	if err := s.writeHeadRecord(ctx, versionHash); err != nil {
		return StateVersion{}, err
	}

	return StateVersion{
		Hash:      versionHash,
		Value:     frozenVal,
		Previous:  previous,
		Timestamp: vb.Timestamp,
	}, nil
}

// Head returns the current head version, or (zero, false, nil) if no
// commit has ever been made.
func (s *Store) Head(ctx context.Context) (StateVersion, bool, error) {
	s.mu.Lock()
	head := s.headMemo
	s.mu.Unlock()

	if head == "" {
		return StateVersion{}, false, nil
	}
	return s.Get(ctx, head)
}

// Get fetches the version at hash, then loads its value through the
// Object Store. Returns (zero, false, nil) — never an error — for a
// missing block, a malformed version block, or a dangling value
// reference (§7's CorruptBlock/DanglingReference policy for reads).
func (s *Store) Get(ctx context.Context, hash string) (StateVersion, bool, error) {
	blk, ok, err := s.adapter.Read(ctx, hash)
	if err != nil {
		return StateVersion{}, false, herr.NewAdapterError("version: read version block", err)
	}
	if !ok {
		return StateVersion{}, false, nil
	}

	var vb Block
	if err := json.Unmarshal(blk.Bytes, &vb); err != nil {
		return StateVersion{}, false, nil
	}
	if vb.Value == "" {
		return StateVersion{}, false, nil
	}

	val, ok, err := s.objects.Read(ctx, vb.Value)
	if err != nil {
		return StateVersion{}, false, err
	}
	if !ok {
		return StateVersion{}, false, nil
	}

	return StateVersion{
		Hash:      hash,
		Value:     val,
		Previous:  strVal(vb.Previous),
		Timestamp: vb.Timestamp,
	}, true, nil
}

// Log walks the previous-chain from head, returning up to n versions,
// newest first.
func (s *Store) Log(ctx context.Context, n int) ([]StateVersion, error) {
	head, ok, err := s.Head(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	out := make([]StateVersion, 0, n)
	current := head
	for i := 0; i < n; i++ {
		out = append(out, current)
		if current.Previous == "" {
			break
		}
		next, ok, err := s.Get(ctx, current.Previous)
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		current = next
	}
	return out, nil
}

// ChainLength walks only the version-block chain from head (never
// materializing a value), which is what a checkpoint's "chain length"
// field needs without the cost of reading every historical value.
func (s *Store) ChainLength(ctx context.Context) (int, error) {
	s.mu.Lock()
	hash := s.headMemo
	s.mu.Unlock()

	count := 0
	for hash != "" {
		blk, ok, err := s.adapter.Read(ctx, hash)
		if err != nil {
			return count, herr.NewAdapterError("version: read version block", err)
		}
		if !ok {
			break
		}
		var vb Block
		if err := json.Unmarshal(blk.Bytes, &vb); err != nil {
			break
		}
		count++
		hash = strVal(vb.Previous)
	}
	return count, nil
}
