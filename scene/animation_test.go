package scene

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func TestTweenPositionReachesTarget(t *testing.T) {
	n := NewNode("n")
	g := TweenPosition(n, 10, 20, 1.0, ease.Linear)
	for i := 0; i < 120; i++ {
		g.Update(1.0 / 60.0)
	}
	if !g.Done {
		t.Fatal("expected tween to finish")
	}
	if math.Abs(n.X-10) > 1e-3 || math.Abs(n.Y-20) > 1e-3 {
		t.Fatalf("final position = (%v,%v), want (10,20)", n.X, n.Y)
	}
}

func TestTweenMarksNodeDirty(t *testing.T) {
	n := NewNode("n")
	n.transformDirty = false
	g := TweenPosition(n, 5, 5, 1.0, ease.Linear)
	g.Update(1.0 / 60.0)
	if !n.transformDirty {
		t.Fatal("expected tween update to mark the node dirty")
	}
}

func TestTweenRotation(t *testing.T) {
	n := NewNode("n")
	g := TweenRotation(n, math.Pi, 0.5, ease.Linear)
	for i := 0; i < 60; i++ {
		g.Update(1.0 / 60.0)
	}
	if math.Abs(n.RotationZ-math.Pi) > 1e-3 {
		t.Fatalf("RotationZ = %v, want pi", n.RotationZ)
	}
}
