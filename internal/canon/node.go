// Package canon implements the Canonical Codec: the Node tagged
// variant — the unit of content addressing — and its total, deterministic
// mapping to and from the wire format [0,p] | [1,[h...]] | [2,[[k,h]...]].
// A Node points at its children by hash rather than by value, so one
// canonical document decomposes into many independently addressable
// Nodes instead of one whole-document encoding.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shazhou-ww/hstore/internal/herr"
)

// Tag values for the three Node cases, per §4.1.
const (
	TagPrimitive = 0
	TagArray     = 1
	TagObject    = 2
)

// NodeKind mirrors jsonvalue.Kind's composite/primitive split for a Node.
type NodeKind int

const (
	NodePrimitive NodeKind = iota
	NodeArray
	NodeObject
)

// Entry is one sorted {key, hash} pair inside an Object node.
type Entry struct {
	Key  string
	Hash string
}

// Node is the tagged variant described in §3: a Primitive carries its own
// raw JSON literal, an Array carries ordered child hashes, an Object
// carries key-sorted {key, hash} entries.
type Node struct {
	Kind      NodeKind
	Primitive json.RawMessage // only meaningful when Kind == NodePrimitive
	Children  []string        // only meaningful when Kind == NodeArray
	Entries   []Entry         // only meaningful when Kind == NodeObject, pre-sorted
}

// NewPrimitive builds a Primitive node from a raw JSON literal (already
// validated finite by the jsonvalue layer).
func NewPrimitive(raw json.RawMessage) Node {
	return Node{Kind: NodePrimitive, Primitive: append(json.RawMessage(nil), raw...)}
}

// NewArray builds an Array node preserving child order.
func NewArray(children []string) Node {
	cp := make([]string, len(children))
	copy(cp, children)
	return Node{Kind: NodeArray, Children: cp}
}

// NewObject builds an Object node, sorting entries by code-point key order.
func NewObject(entries map[string]string) Node {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sorted := make([]Entry, len(keys))
	for i, k := range keys {
		sorted[i] = Entry{Key: k, Hash: entries[k]}
	}
	return Node{Kind: NodeObject, Entries: sorted}
}

// wireForm is the minified-JSON outer shape: [tag, payload].
type wireForm struct {
	Tag     int             `json:"-"`
	Payload json.RawMessage `json:"-"`
}

// Serialize produces the deterministic byte encoding for a Node. Output is
// total for any well-formed Node value; length is a pure function of the
// Node's contents.
func Serialize(n Node) ([]byte, error) {
	var payload []byte
	var tag int
	switch n.Kind {
	case NodePrimitive:
		tag = TagPrimitive
		payload = n.Primitive
		if len(payload) == 0 {
			payload = []byte("null")
		}
	case NodeArray:
		tag = TagArray
		arr, err := json.Marshal(n.Children)
		if err != nil {
			return nil, fmt.Errorf("canon: serialize array node: %w", err)
		}
		payload = arr
	case NodeObject:
		tag = TagObject
		buf := bytes.NewBuffer(nil)
		buf.WriteByte('[')
		for i, e := range n.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, err := json.Marshal(e.Key)
			if err != nil {
				return nil, fmt.Errorf("canon: serialize object key: %w", err)
			}
			hashBytes, err := json.Marshal(e.Hash)
			if err != nil {
				return nil, fmt.Errorf("canon: serialize object hash: %w", err)
			}
			buf.WriteByte('[')
			buf.Write(keyBytes)
			buf.WriteByte(',')
			buf.Write(hashBytes)
			buf.WriteByte(']')
		}
		buf.WriteByte(']')
		payload = buf.Bytes()
	default:
		return nil, fmt.Errorf("canon: unknown node kind %v", n.Kind)
	}

	out := bytes.NewBuffer(nil)
	out.WriteByte('[')
	fmt.Fprintf(out, "%d", tag)
	out.WriteByte(',')
	out.Write(payload)
	out.WriteByte(']')
	return out.Bytes(), nil
}

// Deserialize parses bytes back into a Node, failing with herr.ErrCorruptBlock
// for anything that isn't a well-formed canonical encoding.
func Deserialize(data []byte) (Node, error) {
	var outer []json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&outer); err != nil {
		return Node{}, fmt.Errorf("%w: %v", herr.ErrCorruptBlock, err)
	}
	if len(outer) != 2 {
		return Node{}, fmt.Errorf("%w: expected [tag, payload], got %d elements", herr.ErrCorruptBlock, len(outer))
	}
	var tag int
	if err := json.Unmarshal(outer[0], &tag); err != nil {
		return Node{}, fmt.Errorf("%w: non-integer tag: %v", herr.ErrCorruptBlock, err)
	}

	switch tag {
	case TagPrimitive:
		var scalar interface{}
		if err := json.Unmarshal(outer[1], &scalar); err != nil {
			return Node{}, fmt.Errorf("%w: malformed primitive payload: %v", herr.ErrCorruptBlock, err)
		}
		switch scalar.(type) {
		case map[string]interface{}, []interface{}:
			return Node{}, fmt.Errorf("%w: primitive payload is not a scalar", herr.ErrCorruptBlock)
		}
		return Node{Kind: NodePrimitive, Primitive: outer[1]}, nil
	case TagArray:
		var children []string
		if err := json.Unmarshal(outer[1], &children); err != nil {
			return Node{}, fmt.Errorf("%w: malformed array payload: %v", herr.ErrCorruptBlock, err)
		}
		if children == nil {
			children = []string{}
		}
		return Node{Kind: NodeArray, Children: children}, nil
	case TagObject:
		var pairs [][2]string
		if err := json.Unmarshal(outer[1], &pairs); err != nil {
			return Node{}, fmt.Errorf("%w: malformed object payload: %v", herr.ErrCorruptBlock, err)
		}
		entries := make([]Entry, len(pairs))
		for i, p := range pairs {
			entries[i] = Entry{Key: p[0], Hash: p[1]}
		}
		if !sort.SliceIsSorted(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key }) {
			return Node{}, fmt.Errorf("%w: object entries not key-sorted", herr.ErrCorruptBlock)
		}
		return Node{Kind: NodeObject, Entries: entries}, nil
	default:
		return Node{}, fmt.Errorf("%w: unknown tag %d", herr.ErrCorruptBlock, tag)
	}
}

// Equal reports whether two Nodes have the same kind, the same child
// hashes or entries, and primitive literals that decode to the same JSON
// value (so literals such as 1 and 1.0 compare equal).
func Equal(a, b Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case NodePrimitive:
		return bytes.Equal(normalizeJSON(a.Primitive), normalizeJSON(b.Primitive))
	case NodeArray:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i := range a.Children {
			if a.Children[i] != b.Children[i] {
				return false
			}
		}
		return true
	case NodeObject:
		if len(a.Entries) != len(b.Entries) {
			return false
		}
		for i := range a.Entries {
			if a.Entries[i] != b.Entries[i] {
				return false
			}
		}
		return true
	}
	return false
}

func normalizeJSON(raw json.RawMessage) []byte {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return out
}
