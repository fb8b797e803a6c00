package amf

import (
	"github.com/wippyai/rtmp-wire/errors"
)

// Reference tables are scoped to exactly one codec instance, which in turn
// scopes one message. They are append-only arenas: indices are assigned in
// strict decode/encode order and never renumbered, and a back-reference
// resolves to the same composite identity as the original occurrence.

// valueTable is the decode-side object arena (AMF0 objects and arrays;
// AMF3 objects, arrays, dates and externalized objects).
type valueTable struct {
	vals []Value
}

func (t *valueTable) add(v Value) {
	t.vals = append(t.vals, v)
}

func (t *valueTable) get(phase errors.Phase, offset, idx int) (Value, error) {
	if idx < 0 || idx >= len(t.vals) {
		return nil, errors.BadReference(phase, offset, idx, len(t.vals))
	}
	return t.vals[idx], nil
}

// stringTable is the AMF3 decode-side string arena. The empty string is
// always inlined on the wire and never registered.
type stringTable struct {
	vals []string
}

func (t *stringTable) add(s string) {
	if s != "" {
		t.vals = append(t.vals, s)
	}
}

func (t *stringTable) get(offset, idx int) (string, error) {
	if idx < 0 || idx >= len(t.vals) {
		return "", errors.BadReference(errors.PhaseDecode, offset, idx, len(t.vals))
	}
	return t.vals[idx], nil
}

// traitTable is the AMF3 decode-side class-trait arena. A registered trait
// is immutable; later references reuse the identical member layout.
type traitTable struct {
	vals []*Trait
}

func (t *traitTable) add(tr *Trait) {
	t.vals = append(t.vals, tr)
}

func (t *traitTable) get(offset, idx int) (*Trait, error) {
	if idx < 0 || idx >= len(t.vals) {
		return nil, errors.BadReference(errors.PhaseDecode, offset, idx, len(t.vals))
	}
	return t.vals[idx], nil
}

// identTable is the encode-side composite table. Keys are only ever the
// pointer composites (*Object, *Array, *Date, *Externalized), so lookup is
// by identity: distinct-but-equal composites encode independently, and the
// same composite encodes as a back-reference the second time.
type identTable struct {
	idx map[Value]int
}

func newIdentTable() *identTable {
	return &identTable{idx: make(map[Value]int)}
}

// lookup returns the table index of v, or -1 if v has not been registered.
func (t *identTable) lookup(v Value) int {
	if i, ok := t.idx[v]; ok {
		return i
	}
	return -1
}

// register assigns v the next index. The value is registered before its
// contents are encoded so self-references resolve.
func (t *identTable) register(v Value) {
	t.idx[v] = len(t.idx)
}
