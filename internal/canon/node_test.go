package canon

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSerialize_PrimitiveTag(t *testing.T) {
	n := NewPrimitive(json.RawMessage(`"hi"`))
	got, err := Serialize(n)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[0,"hi"]` {
		t.Errorf("got %s, want [0,\"hi\"]", got)
	}
}

func TestSerialize_ArrayTag(t *testing.T) {
	n := NewArray([]string{"h1", "h2"})
	got, err := Serialize(n)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[1,["h1","h2"]]` {
		t.Errorf("got %s, want [1,[\"h1\",\"h2\"]]", got)
	}
}

func TestSerialize_ObjectTagSortsKeys(t *testing.T) {
	n := NewObject(map[string]string{"b": "hb", "a": "ha"})
	got, err := Serialize(n)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `[2,[["a","ha"],["b","hb"]]]` {
		t.Errorf("got %s", got)
	}
}

func TestSerialize_NoWhitespace(t *testing.T) {
	n := NewObject(map[string]string{"key": "value"})
	got, err := Serialize(n)
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(string(got), " \t\n") {
		t.Errorf("canonical encoding must contain no whitespace, got %s", got)
	}
}

func TestRoundTrip_AllKinds(t *testing.T) {
	nodes := []Node{
		NewPrimitive(json.RawMessage("null")),
		NewPrimitive(json.RawMessage("true")),
		NewPrimitive(json.RawMessage("42")),
		NewPrimitive(json.RawMessage(`""`)),
		NewArray(nil),
		NewArray([]string{"a", "b", "c"}),
		NewObject(map[string]string{}),
		NewObject(map[string]string{"x": "hx", "y": "hy"}),
	}
	for _, n := range nodes {
		data, err := Serialize(n)
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		got, err := Deserialize(data)
		if err != nil {
			t.Fatalf("deserialize: %v", err)
		}
		if !Equal(n, got) {
			t.Errorf("round trip mismatch: %+v != %+v (wire %s)", n, got, data)
		}
	}
}

func TestDeserialize_RejectsBadTag(t *testing.T) {
	_, err := Deserialize([]byte(`[9,null]`))
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestDeserialize_RejectsMalformedShape(t *testing.T) {
	cases := []string{
		`not json`,
		`[0]`,
		`{"tag":0}`,
		`[1,"not-an-array"]`,
		`[2,[[1,2]]]`,
	}
	for _, c := range cases {
		if _, err := Deserialize([]byte(c)); err == nil {
			t.Errorf("expected error decoding %q", c)
		}
	}
}

func TestDeserialize_RejectsNonScalarPrimitivePayload(t *testing.T) {
	cases := []string{
		`[0,{"a":1}]`,
		`[0,[1,2]]`,
	}
	for _, c := range cases {
		if _, err := Deserialize([]byte(c)); err == nil {
			t.Errorf("expected error decoding %q as a primitive node", c)
		}
	}
}

func TestDeserialize_RejectsUnsortedObjectEntries(t *testing.T) {
	_, err := Deserialize([]byte(`[2,[["b","hb"],["a","ha"]]]`))
	if err == nil {
		t.Fatal("expected error for unsorted object entries")
	}
}
