package property

import "fmt"

// GetInt32 returns id's value iff its Kind is Int32.
func (t *Tree) GetInt32(id ID) (int32, bool) {
	r := t.rec(id)
	if r == nil || r.kind != Int32 {
		return 0, false
	}
	return int32(r.value.i64), true
}

// GetInt64 returns id's value iff its Kind is Int64.
func (t *Tree) GetInt64(id ID) (int64, bool) {
	r := t.rec(id)
	if r == nil || r.kind != Int64 {
		return 0, false
	}
	return r.value.i64, true
}

// GetFloat returns id's value iff its Kind is Float.
func (t *Tree) GetFloat(id ID) (float64, bool) {
	r := t.rec(id)
	if r == nil || r.kind != Float {
		return 0, false
	}
	return r.value.f64, true
}

// GetBool returns id's value iff its Kind is Bool.
func (t *Tree) GetBool(id ID) (bool, bool) {
	r := t.rec(id)
	if r == nil || r.kind != Bool {
		return false, false
	}
	return r.value.b, true
}

// GetString returns id's value iff its Kind is String.
func (t *Tree) GetString(id ID) (string, bool) {
	r := t.rec(id)
	if r == nil || r.kind != String {
		return "", false
	}
	return r.value.str, true
}

// GetVecf returns the float components (length 2/3/4) of a Vec*f property.
func (t *Tree) GetVecf(id ID) ([]float64, bool) {
	r := t.rec(id)
	if r == nil {
		return nil, false
	}
	n := vectorArity(r.kind)
	if n == 0 || isIntVector(r.kind) {
		return nil, false
	}
	out := make([]float64, n)
	copy(out, r.value.vf[:n])
	return out, true
}

// GetVeci returns the integer components (length 2/3/4) of a Vec*i property.
func (t *Tree) GetVeci(id ID) ([]int32, bool) {
	r := t.rec(id)
	if r == nil {
		return nil, false
	}
	n := vectorArity(r.kind)
	if n == 0 || !isIntVector(r.kind) {
		return nil, false
	}
	out := make([]int32, n)
	copy(out, r.value.vi[:n])
	return out, true
}

// writeKind is the internal write-path discriminator from spec.md §4.1.
type writeKind uint8

const (
	writeManual writeKind = iota
	writeScriptOutput
	writeLinkPropagation
)

func (t *Tree) checkWritable(id ID, w writeKind) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	switch w {
	case writeManual:
		switch r.semantics {
		case BindingInput:
			return nil
		case ScriptInput:
			if r.isLinkedIn {
				return fmt.Errorf("property: %w: linked script input cannot be set manually", ErrSemanticsViolation)
			}
			return nil
		default:
			return fmt.Errorf("property: %w: cannot manually write a script output", ErrSemanticsViolation)
		}
	case writeScriptOutput:
		if r.semantics != ScriptOutput {
			return fmt.Errorf("property: %w: only script outputs may be written from run()", ErrSemanticsViolation)
		}
		return nil
	case writeLinkPropagation:
		if r.semantics == ScriptOutput {
			return fmt.Errorf("property: %w: link propagation targets must be inputs", ErrSemanticsViolation)
		}
		return nil
	}
	return nil
}

func (t *Tree) setScalar(id ID, w writeKind, v Value) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	if r.kind != v.kind {
		return fmt.Errorf("property: %w: want %s, got %s", ErrTypeMismatch, r.kind, v.kind)
	}
	if err := t.checkWritable(id, w); err != nil {
		return err
	}
	r.value = v
	r.hasNewValue = true
	t.markNewValueUpward(id)
	return nil
}

// SetInt32 performs a manual or binding-input write of an Int32 property.
func (t *Tree) SetInt32(id ID, v int32) error {
	return t.setScalar(id, writeManual, Value{kind: Int32, i64: int64(v)})
}

// SetInt64 performs a manual or binding-input write of an Int64 property.
func (t *Tree) SetInt64(id ID, v int64) error {
	return t.setScalar(id, writeManual, Value{kind: Int64, i64: v})
}

// SetFloat performs a manual or binding-input write of a Float property.
// Used for the "assigning a floating value to an integer property fails if
// not integral" rule: callers doing Lua table marshaling check integrality
// themselves before calling SetInt32/SetInt64 (package script).
func (t *Tree) SetFloat(id ID, v float64) error {
	return t.setScalar(id, writeManual, Value{kind: Float, f64: v})
}

// SetBool performs a manual or binding-input write of a Bool property.
func (t *Tree) SetBool(id ID, v bool) error {
	return t.setScalar(id, writeManual, Value{kind: Bool, b: v})
}

// SetString performs a manual or binding-input write of a String property.
func (t *Tree) SetString(id ID, v string) error {
	return t.setScalar(id, writeManual, Value{kind: String, str: v})
}

// SetVecf performs a manual or binding-input write of a Vec*f property.
func (t *Tree) SetVecf(id ID, comps []float64) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	n := vectorArity(r.kind)
	if n == 0 || isIntVector(r.kind) || len(comps) != n {
		return fmt.Errorf("property: %w: want %d float components", ErrTypeMismatch, n)
	}
	var v Value
	v.kind = r.kind
	copy(v.vf[:n], comps)
	return t.setScalar(id, writeManual, v)
}

// SetVeci performs a manual or binding-input write of a Vec*i property.
func (t *Tree) SetVeci(id ID, comps []int32) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	n := vectorArity(r.kind)
	if n == 0 || !isIntVector(r.kind) || len(comps) != n {
		return fmt.Errorf("property: %w: want %d int components", ErrTypeMismatch, n)
	}
	var v Value
	v.kind = r.kind
	copy(v.vi[:n], comps)
	return t.setScalar(id, writeManual, v)
}

// SetScriptOutputScalar is the script-output write path (§4.1): only legal
// on ScriptOutput properties, called by package script when marshaling a
// script's OUT table back into the tree after run() returns.
func (t *Tree) SetScriptOutputScalar(id ID, v Value) error {
	return t.setScalar(id, writeScriptOutput, v)
}

// SetInt32Output is a convenience wrapper over SetScriptOutputScalar for
// scalar Int32 outputs, used by package script's OUT marshaling and by
// non-script producers (package timer, package animvalue) that write
// ScriptOutput-semantics properties directly.
func (t *Tree) SetInt32Output(id ID, v int32) error {
	return t.SetScriptOutputScalar(id, Value{kind: Int32, i64: int64(v)})
}

// SetInt64Output is the Int64 analog of SetInt32Output.
func (t *Tree) SetInt64Output(id ID, v int64) error {
	return t.SetScriptOutputScalar(id, Value{kind: Int64, i64: v})
}

// SetFloatOutput is the Float analog of SetInt32Output.
func (t *Tree) SetFloatOutput(id ID, v float64) error {
	return t.SetScriptOutputScalar(id, Value{kind: Float, f64: v})
}

// SetBoolOutput is the Bool analog of SetInt32Output.
func (t *Tree) SetBoolOutput(id ID, v bool) error {
	return t.SetScriptOutputScalar(id, Value{kind: Bool, b: v})
}

// SetStringOutput is the String analog of SetInt32Output.
func (t *Tree) SetStringOutput(id ID, v string) error {
	return t.SetScriptOutputScalar(id, Value{kind: String, str: v})
}

// SetVecfOutput is the Vec*f analog of SetInt32Output.
func (t *Tree) SetVecfOutput(id ID, comps []float64) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	n := vectorArity(r.kind)
	if n == 0 || isIntVector(r.kind) || len(comps) != n {
		return fmt.Errorf("property: %w: want %d float components", ErrTypeMismatch, n)
	}
	var v Value
	v.kind = r.kind
	copy(v.vf[:n], comps)
	return t.SetScriptOutputScalar(id, v)
}

// SetVeciOutput is the Vec*i analog of SetInt32Output.
func (t *Tree) SetVeciOutput(id ID, comps []int32) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	n := vectorArity(r.kind)
	if n == 0 || !isIntVector(r.kind) || len(comps) != n {
		return fmt.Errorf("property: %w: want %d int components", ErrTypeMismatch, n)
	}
	var v Value
	v.kind = r.kind
	copy(v.vi[:n], comps)
	return t.SetScriptOutputScalar(id, v)
}

// SetDefaultVecf seeds id's construction-time value without marking
// has_new_value, used by fixed binding schemas (package binding) to match a
// renderer's own defaults (e.g. NodeBinding's scaling starts at (1,1,1)) so
// that an update pass with no user changes is a no-op, per spec.md §3/§4.3.
func (t *Tree) SetDefaultVecf(id ID, comps []float64) error {
	r := t.rec(id)
	if r == nil {
		return ErrUnknownChild
	}
	n := vectorArity(r.kind)
	if n == 0 || isIntVector(r.kind) || len(comps) != n {
		return fmt.Errorf("property: %w: want %d float components", ErrTypeMismatch, n)
	}
	var v Value
	v.kind = r.kind
	copy(v.vf[:n], comps)
	r.value = v
	return nil
}

// CopyFromLink performs link-propagation: copies src's value (and, for
// Struct/Array, the whole subtree) into dst, which must be in a different
// tree (the scheduler never links a node to itself — checked by package
// link before calling this). has_new_value is set on dstID itself, not on
// every copied descendant (per spec.md §4.1, "deep copy... resets
// has_new_value only at the root" — "root" meaning the linked property
// itself), and bubbled up dst's ancestors the same way a leaf write is, so a
// Struct/Array link landing inside a further linked/bound ancestor is itself
// observed as dirty.
func CopyFromLink(src *Tree, srcID ID, dst *Tree, dstID ID) error {
	sr := src.rec(srcID)
	dr := dst.rec(dstID)
	if sr == nil || dr == nil {
		return ErrUnknownChild
	}
	if sr.kind != dr.kind {
		return fmt.Errorf("property: %w: link source %s, target %s", ErrTypeMismatch, sr.kind, dr.kind)
	}
	if err := dst.checkWritable(dstID, writeLinkPropagation); err != nil {
		return err
	}
	deepCopyInto(src, srcID, dst, dstID)
	dr.hasNewValue = true
	dst.markNewValueUpward(dstID)
	return nil
}

// SetOutputFromTree performs a script-output assignment of an entire
// Struct/Array subtree in one call: src's shape must equal dstID's (see
// ShapeEqual), then every leaf is deep-copied by position. This is the
// engine-side half of Lua's "OUT.foo = IN.bar" userdata-proxy assignment
// (package script) — a typed deep copy through the normal script-output
// write path, as distinct from CopyFromLink's link-propagation path.
func (t *Tree) SetOutputFromTree(dstID ID, src *Tree, srcID ID) error {
	dr := t.rec(dstID)
	sr := src.rec(srcID)
	if dr == nil || sr == nil {
		return ErrUnknownChild
	}
	if dr.kind != sr.kind {
		return fmt.Errorf("property: %w: want %s, got %s", ErrTypeMismatch, dr.kind, sr.kind)
	}
	if !ShapeEqual(src, srcID, t, dstID) {
		return fmt.Errorf("property: %w: source and target shapes differ", ErrShapeMismatch)
	}
	if err := t.checkWritable(dstID, writeScriptOutput); err != nil {
		return err
	}
	deepCopyInto(src, srcID, t, dstID)
	dr.hasNewValue = true
	t.markNewValueUpward(dstID)
	return nil
}

// deepCopyInto recursively copies value and children without touching
// has_new_value (the caller sets it once, at the root, after the walk).
//
// Shape is never rebuilt here: link() (package link) only admits links whose
// source and target shapes are already identical, and a property's shape is
// immutable after creation (spec.md §3), so dst already has exactly the
// children src has, in the same order. Copying by position is enough.
func deepCopyInto(src *Tree, srcID ID, dst *Tree, dstID ID) {
	sr := src.rec(srcID)
	dr := dst.rec(dstID)
	dr.value = sr.value
	if sr.kind != Struct && sr.kind != Array {
		return
	}
	for i, sc := range sr.children {
		if i >= len(dr.children) {
			break
		}
		deepCopyInto(src, sc, dst, dr.children[i])
	}
}
