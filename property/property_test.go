package property

import (
	"errors"
	"testing"
)

func TestBuildAndScalarRoundTrip(t *testing.T) {
	tr := NewTree(1)
	x, err := tr.AddStructField(tr.Root(), "x", Int32, ScriptInput)
	if err != nil {
		t.Fatalf("AddStructField: %v", err)
	}
	if got, ok := tr.GetInt32(x); !ok || got != 0 {
		t.Fatalf("zero value = %v, %v", got, ok)
	}
	if err := tr.SetInt32(x, 40); err != nil {
		t.Fatalf("SetInt32: %v", err)
	}
	if got, ok := tr.GetInt32(x); !ok || got != 40 {
		t.Fatalf("got %v, %v, want 40", got, ok)
	}
	if !tr.HasNewValue(x) {
		t.Fatal("expected has_new_value after manual set")
	}
}

func TestSetSameValueStillMarksDirty(t *testing.T) {
	// spec.md §8: "Setting a value equal to the current value still marks
	// has_new_value (fidelity over efficiency is required here)."
	tr := NewTree(1)
	x, _ := tr.AddStructField(tr.Root(), "x", Int32, BindingInput)
	_ = tr.SetInt32(x, 5)
	tr.ClearNewValue(x)
	if tr.HasNewValue(x) {
		t.Fatal("expected clear to reset flag")
	}
	_ = tr.SetInt32(x, 5)
	if !tr.HasNewValue(x) {
		t.Fatal("re-setting the same value must still mark has_new_value")
	}
}

func TestScriptOutputCannotBeSetManually(t *testing.T) {
	tr := NewTree(1)
	out, _ := tr.AddStructField(tr.Root(), "out", Int32, ScriptOutput)
	if err := tr.SetInt32(out, 1); !errors.Is(err, ErrSemanticsViolation) {
		t.Fatalf("expected ErrSemanticsViolation, got %v", err)
	}
	if err := tr.SetScriptOutputScalar(out, Value{kind: Int32, i64: 1}); err != nil {
		t.Fatalf("script-output write should succeed: %v", err)
	}
}

func TestLinkedScriptInputRejectsManualSet(t *testing.T) {
	tr := NewTree(1)
	in, _ := tr.AddStructField(tr.Root(), "in", Int32, ScriptInput)
	tr.SetLinkedInput(in, true)
	if err := tr.SetInt32(in, 1); !errors.Is(err, ErrSemanticsViolation) {
		t.Fatalf("expected ErrSemanticsViolation for linked input, got %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	tr := NewTree(1)
	x, _ := tr.AddStructField(tr.Root(), "x", Int32, ScriptInput)
	if err := tr.SetFloat(x, 1.5); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, ok := tr.GetFloat(x); ok {
		t.Fatal("GetFloat on an Int32 property should fail")
	}
}

func TestDuplicateFieldRejected(t *testing.T) {
	tr := NewTree(1)
	if _, err := tr.AddStructField(tr.Root(), "a", Int32, ScriptInput); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddStructField(tr.Root(), "a", Float, ScriptInput); !errors.Is(err, ErrInterfaceDuplicate) {
		t.Fatalf("expected ErrInterfaceDuplicate, got %v", err)
	}
}

func TestDeepCopyStructAcrossLink(t *testing.T) {
	src := NewTree(1)
	srcRoot := src.Root()
	_ = src.BuildChildren(srcRoot, ScriptOutput, []Descriptor{
		{Name: "x", Kind: Int32},
		{Name: "y", Kind: Float},
	})
	sx, _ := src.GetChildByName(srcRoot, "x")
	sy, _ := src.GetChildByName(srcRoot, "y")
	_ = src.SetScriptOutputScalar(sx, Value{kind: Int32, i64: 7})
	_ = src.SetScriptOutputScalar(sy, Value{kind: Float, f64: 1.5})

	dst := NewTree(2)
	dstRoot := dst.Root()
	_ = dst.BuildChildren(dstRoot, ScriptInput, []Descriptor{
		{Name: "x", Kind: Int32},
		{Name: "y", Kind: Float},
	})

	if !ShapeEqual(src, srcRoot, dst, dstRoot) {
		t.Fatal("expected identical shapes")
	}

	if err := CopyFromLink(src, srcRoot, dst, dstRoot); err != nil {
		t.Fatalf("CopyFromLink: %v", err)
	}
	dx, _ := dst.GetChildByName(dstRoot, "x")
	dy, _ := dst.GetChildByName(dstRoot, "y")
	if got, _ := dst.GetInt32(dx); got != 7 {
		t.Fatalf("x = %d, want 7", got)
	}
	if got, _ := dst.GetFloat(dy); got != 1.5 {
		t.Fatalf("y = %v, want 1.5", got)
	}
	if !dst.HasNewValue(dstRoot) {
		t.Fatal("expected has_new_value set on propagation root")
	}
}

func TestScalarWriteBubblesDirtyToStructAncestor(t *testing.T) {
	tr := NewTree(1)
	s, _ := tr.AddStructField(tr.Root(), "s", Struct, ScriptInput)
	x, _ := tr.AddStructField(s, "x", Int32, ScriptInput)
	tr.ClearNewValue(s)
	tr.ClearNewValue(x)
	if err := tr.SetInt32(x, 1); err != nil {
		t.Fatal(err)
	}
	if !tr.HasNewValue(x) {
		t.Fatal("expected leaf to be marked has_new_value")
	}
	if !tr.HasNewValue(s) {
		t.Fatal("expected the Struct ancestor to be marked has_new_value too")
	}
	if !tr.HasNewValue(tr.Root()) {
		t.Fatal("expected has_new_value to bubble all the way to the root")
	}
}

func TestSetOutputFromTreeCopiesWholeStruct(t *testing.T) {
	// Mirrors how package script uses this: the assignment target is a
	// declared ScriptOutput field, never a tree's bare root (which is
	// always ScriptInput by construction, see NewTree).
	src := NewTree(1)
	in, _ := src.AddStructField(src.Root(), "in", Struct, ScriptInput)
	_ = src.BuildChildren(in, ScriptInput, []Descriptor{
		{Name: "x", Kind: Int32},
		{Name: "y", Kind: Float},
	})
	sx, _ := src.GetChildByName(in, "x")
	sy, _ := src.GetChildByName(in, "y")
	_ = src.SetInt32(sx, 3)
	_ = src.SetFloat(sy, 4.5)

	dst := NewTree(1)
	out, _ := dst.AddStructField(dst.Root(), "out", Struct, ScriptOutput)
	_ = dst.BuildChildren(out, ScriptOutput, []Descriptor{
		{Name: "x", Kind: Int32},
		{Name: "y", Kind: Float},
	})

	if err := dst.SetOutputFromTree(out, src, in); err != nil {
		t.Fatalf("SetOutputFromTree: %v", err)
	}
	dx, _ := dst.GetChildByName(out, "x")
	dy, _ := dst.GetChildByName(out, "y")
	if got, _ := dst.GetInt32(dx); got != 3 {
		t.Fatalf("x = %d, want 3", got)
	}
	if got, _ := dst.GetFloat(dy); got != 4.5 {
		t.Fatalf("y = %v, want 4.5", got)
	}
	if !dst.HasNewValue(out) {
		t.Fatal("expected has_new_value set on the assignment target")
	}
}

func TestSetOutputFromTreeRejectsShapeMismatch(t *testing.T) {
	src := NewTree(1)
	in, _ := src.AddStructField(src.Root(), "in", Struct, ScriptInput)
	_ = src.BuildChildren(in, ScriptInput, []Descriptor{{Name: "x", Kind: Int32}})

	dst := NewTree(1)
	out, _ := dst.AddStructField(dst.Root(), "out", Struct, ScriptOutput)
	_ = dst.BuildChildren(out, ScriptOutput, []Descriptor{
		{Name: "x", Kind: Int32},
		{Name: "y", Kind: Float},
	})

	if err := dst.SetOutputFromTree(out, src, in); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestArrayBounds(t *testing.T) {
	tr := NewTree(1)
	arr, _ := tr.AddStructField(tr.Root(), "arr", Array, ScriptInput)
	for i := 0; i < 3; i++ {
		if _, err := tr.AddArrayElement(arr, Int32, ScriptInput); err != nil {
			t.Fatal(err)
		}
	}
	if tr.ChildCount(arr) != 3 {
		t.Fatalf("ChildCount = %d, want 3", tr.ChildCount(arr))
	}
	if _, ok := tr.GetChildByIndex(arr, 3); ok {
		t.Fatal("expected out-of-range index to fail")
	}
}

func TestVectorChildCount(t *testing.T) {
	tr := NewTree(1)
	v, _ := tr.AddStructField(tr.Root(), "v", Vec3f, ScriptInput)
	if tr.ChildCount(v) != 3 {
		t.Fatalf("ChildCount(Vec3f) = %d, want 3", tr.ChildCount(v))
	}
	if err := tr.SetVecf(v, []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	got, ok := tr.GetVecf(v)
	if !ok || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("GetVecf = %v, %v", got, ok)
	}
}
