package property

import "fmt"

// RawValue is an exported mirror of Value, used only by package serialize to
// read and restore a leaf's exact stored bits without going through the
// write-path policy: a deserialized value isn't a manual write, a script
// output, or a link propagation, it's the prior state being put back.
type RawValue struct {
	Kind Kind
	I64  int64
	F64  float64
	B    bool
	Str  string
	VI   [4]int32
	VF   [4]float64
}

// GetRawValue reads id's current value verbatim, whatever its Kind.
func (t *Tree) GetRawValue(id ID) RawValue {
	r := t.rec(id)
	return RawValue{Kind: r.kind, I64: r.value.i64, F64: r.value.f64, B: r.value.b, Str: r.value.str, VI: r.value.vi, VF: r.value.vf}
}

// SetRawValue writes v directly into id's stored value and has_new_value
// flag, bypassing checkWritable. The Kind must match id's declared Kind;
// shape is never rebuilt here since a deserialized tree's shape has already
// been reconstructed to match the one that was saved. Only leaves are ever
// saved with an explicit has_new_value bit, so a restored dirty leaf bubbles
// the flag up its ancestors the same way a live write does, keeping a
// just-loaded tree's dirty state equivalent to the one that was saved.
func (t *Tree) SetRawValue(id ID, v RawValue, hasNewValue bool) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	if r.kind != v.Kind {
		return fmt.Errorf("property: %w: want %s, got %s", ErrTypeMismatch, r.kind, v.Kind)
	}
	r.value = Value{kind: v.Kind, i64: v.I64, f64: v.F64, b: v.B, str: v.Str, vi: v.VI, vf: v.VF}
	r.hasNewValue = hasNewValue
	if hasNewValue {
		t.markNewValueUpward(id)
	}
	return nil
}
