package objectstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shazhou-ww/hstore/internal/block/memory"
	"github.com/shazhou-ww/hstore/internal/canhash"
	"github.com/shazhou-ww/hstore/internal/jsonvalue"
)

func newTestStore() (*Store, *memory.Adapter) {
	adapter := memory.New()
	return New(adapter, canhash.SHA256()), adapter
}

func TestWriteRead_Primitives(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	for _, v := range []jsonvalue.Value{
		jsonvalue.Null(),
		jsonvalue.Bool(true),
		jsonvalue.String("hello"),
		jsonvalue.Number(json.Number("42")),
	} {
		hash, err := s.Write(ctx, v)
		if err != nil {
			t.Fatalf("write %v: %v", v.Kind(), err)
		}
		got, ok, err := s.Read(ctx, hash)
		if err != nil || !ok {
			t.Fatalf("read back %v: ok=%v err=%v", v.Kind(), ok, err)
		}
		if !jsonvalue.Equal(got.Unwrap(), v) {
			t.Errorf("round trip mismatch for %v", v.Kind())
		}
	}
}

func TestWrite_SameValueSameHash(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	v := jsonvalue.Object(map[string]jsonvalue.Value{
		"a": jsonvalue.Number(json.Number("1")),
		"b": jsonvalue.String("x"),
	})
	h1, err := s.Write(ctx, v)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := s.Write(ctx, v)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("expected identical hash for identical value, got %s != %s", h1, h2)
	}
}

func TestWrite_KeyOrderDoesNotAffectHash(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	v1 := jsonvalue.Object(map[string]jsonvalue.Value{
		"a": jsonvalue.Number(json.Number("1")),
		"b": jsonvalue.Number(json.Number("2")),
	})
	v2 := jsonvalue.Object(map[string]jsonvalue.Value{
		"b": jsonvalue.Number(json.Number("2")),
		"a": jsonvalue.Number(json.Number("1")),
	})
	h1, err := s.Write(ctx, v1)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := s.Write(ctx, v2)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("object key order must not affect hash: %s != %s", h1, h2)
	}
}

func TestWrite_ArrayOrderAffectsHash(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	v1 := jsonvalue.Array([]jsonvalue.Value{jsonvalue.String("a"), jsonvalue.String("b")})
	v2 := jsonvalue.Array([]jsonvalue.Value{jsonvalue.String("b"), jsonvalue.String("a")})
	h1, _ := s.Write(ctx, v1)
	h2, _ := s.Write(ctx, v2)
	if h1 == h2 {
		t.Error("array order must affect hash")
	}
}

func TestWriteRead_NestedStructure(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()
	v := jsonvalue.Object(map[string]jsonvalue.Value{
		"name": jsonvalue.String("root"),
		"children": jsonvalue.Array([]jsonvalue.Value{
			jsonvalue.Object(map[string]jsonvalue.Value{"id": jsonvalue.Number(json.Number("1"))}),
			jsonvalue.Object(map[string]jsonvalue.Value{"id": jsonvalue.Number(json.Number("2"))}),
		}),
	})
	hash, err := s.Write(ctx, v)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Read(ctx, hash)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if !jsonvalue.Equal(got.Unwrap(), v) {
		t.Error("nested round trip mismatch")
	}
}

func TestWrite_DeduplicatesRepeatedBlocks(t *testing.T) {
	s, adapter := newTestStore()
	ctx := context.Background()
	shared := jsonvalue.Object(map[string]jsonvalue.Value{"k": jsonvalue.String("v")})
	v := jsonvalue.Array([]jsonvalue.Value{shared, shared})
	if _, err := s.Write(ctx, v); err != nil {
		t.Fatal(err)
	}
	// The array node, one shared object node and its single primitive
	// leaf "v" (keys are stored inside the object node) make 3 blocks; the
	// second reference to the shared object adds none.
	if adapter.Len() != 3 {
		t.Errorf("expected 3 blocks (array, shared object, \"v\"), got %d", adapter.Len())
	}
}

func TestRead_MissingHashReturnsFalse(t *testing.T) {
	s, _ := newTestStore()
	_, ok, err := s.Read(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected miss for unknown hash")
	}
}

func TestRead_DanglingChildReturnsFalse(t *testing.T) {
	s, adapter := newTestStore()
	ctx := context.Background()
	v := jsonvalue.Array([]jsonvalue.Value{jsonvalue.String("a")})
	hash, err := s.Write(ctx, v)
	if err != nil {
		t.Fatal(err)
	}
	// Copy only the root array block into a fresh adapter, so the root
	// decodes but its child block is missing.
	fresh := memory.New()
	root, ok, _ := adapter.Read(ctx, hash)
	if !ok {
		t.Fatal("expected root block present")
	}
	if err := fresh.Write(ctx, root); err != nil {
		t.Fatal(err)
	}
	// Fresh store so the instance-lifetime hydration cache can't paper
	// over the now-missing child block.
	s2 := New(fresh, canhash.SHA256())
	_, ok, err = s2.Read(ctx, hash)
	if err != nil {
		t.Fatalf("dangling reference must not be an error, got %v", err)
	}
	if ok {
		t.Error("expected miss: the root's child block is gone")
	}
}
