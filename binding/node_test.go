package binding

import (
	"testing"

	"github.com/phanxgames/logiclang/renderer"
)

type fakeNode struct {
	id                       renderer.ObjectID
	visible                  bool
	rx, ry, rz               float64
	tx, ty, tz               float64
	sx, sy, sz               float64
	setRotationCalls         int
	rejectScaling            bool
}

func (f *fakeNode) ObjectID() renderer.ObjectID { return f.id }

func (f *fakeNode) SetVisibility(v bool) error { f.visible = v; return nil }

func (f *fakeNode) SetRotation(x, y, z float64, conv renderer.RotationType) error {
	f.rx, f.ry, f.rz = x, y, z
	f.setRotationCalls++
	return nil
}

func (f *fakeNode) SetTranslation(x, y, z float64) error {
	f.tx, f.ty, f.tz = x, y, z
	return nil
}

func (f *fakeNode) SetScaling(x, y, z float64) error {
	if f.rejectScaling {
		return errRejected
	}
	f.sx, f.sy, f.sz = x, y, z
	return nil
}

var errRejected = &rejectErr{}

type rejectErr struct{}

func (*rejectErr) Error() string { return "rejected" }

func TestNodeBindingDefaultPreservation(t *testing.T) {
	target := &fakeNode{id: 1, tx: 3, ty: 3, tz: 3}
	b := NewNodeBinding(1, "box")
	b.Attach(target)

	if err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if target.tx != 3 || target.ty != 3 || target.tz != 3 {
		t.Fatalf("expected renderer translation unchanged, got (%v,%v,%v)", target.tx, target.ty, target.tz)
	}

	if err := b.Inputs().SetVecf(b.translationID, []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := b.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if target.tx != 1 || target.ty != 2 || target.tz != 3 {
		t.Fatalf("expected renderer translation (1,2,3), got (%v,%v,%v)", target.tx, target.ty, target.tz)
	}
}

func TestNodeBindingScalingDefaultMatchesRenderer(t *testing.T) {
	b := NewNodeBinding(1, "box")
	c, ok := b.Inputs().GetVecf(b.scalingID)
	if !ok || c[0] != 1 || c[1] != 1 || c[2] != 1 {
		t.Fatalf("expected default scaling (1,1,1), got %v", c)
	}
	if b.Inputs().HasNewValue(b.scalingID) {
		t.Fatal("default scaling must not be marked has_new_value")
	}
}

func TestNodeBindingNoOpWithoutTarget(t *testing.T) {
	b := NewNodeBinding(1, "box")
	if err := b.Update(); err != nil {
		t.Fatalf("expected no-op without a target, got %v", err)
	}
}

func TestNodeBindingStopsOnRejection(t *testing.T) {
	target := &fakeNode{id: 1, rejectScaling: true}
	b := NewNodeBinding(1, "box")
	b.Attach(target)
	b.Inputs().SetVecf(b.translationID, []float64{5, 5, 5})
	b.Inputs().SetVecf(b.scalingID, []float64{2, 2, 2})

	err := b.Update()
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if target.tx != 5 {
		t.Fatalf("expected translation to have applied before the rejection, got %v", target.tx)
	}
}
