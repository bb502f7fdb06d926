package version

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shazhou-ww/hstore/internal/block"
	"github.com/shazhou-ww/hstore/internal/block/memory"
	"github.com/shazhou-ww/hstore/internal/canhash"
	"github.com/shazhou-ww/hstore/internal/jsonvalue"
	"github.com/shazhou-ww/hstore/internal/schema"
)

var errRejected = errors.New("rejected by test schema")

func clockFrom(start int64) func() int64 {
	t := start
	return func() int64 {
		t++
		return t
	}
}

func TestOpen_EmptyStoreHasNullHead(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	s, err := Open(ctx, adapter, canhash.SHA256(), schema.Any{}, clockFrom(0))
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := s.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no head on an empty store")
	}
	blk, ok, err := adapter.Read(ctx, block.ReservedHeadKey)
	if err != nil || !ok {
		t.Fatalf("expected head record to be written, ok=%v err=%v", ok, err)
	}
	if string(blk.Bytes) != `{"head":null}` {
		t.Errorf("unexpected head record bytes: %s", blk.Bytes)
	}
}

func TestOpen_RepairsCorruptHead(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	if err := adapter.Write(ctx, block.StoredBlock{Hash: block.ReservedHeadKey, Bytes: []byte("not json")}); err != nil {
		t.Fatal(err)
	}
	s, err := Open(ctx, adapter, canhash.SHA256(), schema.Any{}, clockFrom(0))
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := s.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected repaired head to be null")
	}
}

func TestCommit_AdvancesHeadAndChainsPrevious(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	s, err := Open(ctx, adapter, canhash.SHA256(), schema.Any{}, clockFrom(1000))
	if err != nil {
		t.Fatal(err)
	}

	v1, err := s.Commit(ctx, jsonvalue.String("first"))
	if err != nil {
		t.Fatal(err)
	}
	if v1.Previous != "" {
		t.Errorf("first commit must have empty previous, got %q", v1.Previous)
	}

	v2, err := s.Commit(ctx, jsonvalue.String("second"))
	if err != nil {
		t.Fatal(err)
	}
	if v2.Previous != v1.Hash {
		t.Errorf("second commit's previous = %q, want %q", v2.Previous, v1.Hash)
	}

	head, ok, err := s.Head(ctx)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if head.Hash != v2.Hash {
		t.Errorf("head hash = %q, want %q", head.Hash, v2.Hash)
	}
	if head.Value.Unwrap().String() != "second" {
		t.Errorf("head value = %v, want second", head.Value.ToGo())
	}
}

func TestCommit_ValidationFailureDoesNotAdvanceHead(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	reject := schema.Func(func(v jsonvalue.Value) (jsonvalue.Value, error) {
		return jsonvalue.Value{}, errRejected
	})
	s, err := Open(ctx, adapter, canhash.SHA256(), reject, clockFrom(0))
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Commit(ctx, jsonvalue.String("x"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	_, ok, err := s.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("head must not advance on validation failure")
	}
}

func TestLog_WalksChainNewestFirst(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	s, err := Open(ctx, adapter, canhash.SHA256(), schema.Any{}, clockFrom(0))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Commit(ctx, jsonvalue.Number(json.Number(itoa(i)))); err != nil {
			t.Fatal(err)
		}
	}
	log, err := s.Log(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(log))
	}
	want := []string{"2", "1", "0"}
	for i, entry := range log {
		if got := entry.Value.Unwrap().NumberLiteral().String(); got != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got, want[i])
		}
	}
}

func TestChainLength_MatchesLogLength(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	s, err := Open(ctx, adapter, canhash.SHA256(), schema.Any{}, clockFrom(0))
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.ChainLength(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("empty store chain length = %d, want 0", n)
	}
	for i := 0; i < 4; i++ {
		if _, err := s.Commit(ctx, jsonvalue.Bool(true)); err != nil {
			t.Fatal(err)
		}
	}
	n, err = s.ChainLength(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("chain length = %d, want 4", n)
	}
}

func TestGet_DanglingValueReferenceReturnsFalse(t *testing.T) {
	ctx := context.Background()
	adapter := memory.New()
	s, err := Open(ctx, adapter, canhash.SHA256(), schema.Any{}, clockFrom(0))
	if err != nil {
		t.Fatal(err)
	}
	v1, err := s.Commit(ctx, jsonvalue.String("x"))
	if err != nil {
		t.Fatal(err)
	}

	// Blow away every block except the version/head chain, to simulate a
	// GC'd or corrupted value DAG.
	fresh := memory.New()
	blk, ok, _ := adapter.Read(ctx, v1.Hash)
	if !ok {
		t.Fatal("expected version block present")
	}
	if err := fresh.Write(ctx, blk); err != nil {
		t.Fatal(err)
	}
	s2, err := Open(ctx, fresh, canhash.SHA256(), schema.Any{}, clockFrom(0))
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err = s2.Get(ctx, v1.Hash)
	if err != nil {
		t.Fatalf("dangling reference must not be an error: %v", err)
	}
	if ok {
		t.Error("expected miss: value block was never copied over")
	}
}

func itoa(i int) string {
	return string(rune('0' + i))
}
