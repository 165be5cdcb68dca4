package scene

import (
	"math"
	"testing"

	"github.com/phanxgames/logiclang/renderer"
)

func TestCameraTargetSetViewport(t *testing.T) {
	cam := NewCamera(Rect{})
	if err := cam.SetViewport(0, 0, 800, 600); err != nil {
		t.Fatal(err)
	}
	if cam.Viewport.Width != 800 || cam.Viewport.Height != 600 {
		t.Fatalf("viewport = %v", cam.Viewport)
	}
	if err := cam.SetViewport(0, 0, 0, 600); err == nil {
		t.Fatal("expected error for zero-width viewport")
	}
}

func TestCameraPerspectiveFrustum(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	if cam.ValidFrustum() {
		t.Fatal("expected no frustum set initially")
	}
	if err := cam.SetFrustumPerspective(60, 800.0/600.0, 0.1, 1000); err != nil {
		t.Fatal(err)
	}
	if !cam.ValidFrustum() {
		t.Fatal("expected frustum to be valid after configuring")
	}
	if cam.Kind() != renderer.Perspective {
		t.Fatalf("Kind() = %v, want Perspective", cam.Kind())
	}
	if err := cam.SetFrustumPerspective(200, 1, 0.1, 10); err == nil {
		t.Fatal("expected error for out-of-range fov")
	}
}

func TestCameraOrthographicFrustum(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	if err := cam.SetFrustumOrthographic(-1, 1, -1, 1, 0.1, 100); err != nil {
		t.Fatal(err)
	}
	if cam.Kind() != renderer.Orthographic {
		t.Fatalf("Kind() = %v, want Orthographic", cam.Kind())
	}
	if err := cam.SetFrustumOrthographic(1, -1, -1, 1, 0.1, 100); err == nil {
		t.Fatal("expected error for inverted left/right")
	}
}

func TestWorldToScreenRoundTrip(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	cam.X, cam.Y = 50, 25
	cam.Zoom = 2
	sx, sy := cam.WorldToScreen(cam.X, cam.Y)
	wx, wy := cam.ScreenToWorld(sx, sy)
	if math.Abs(wx-cam.X) > 1e-9 || math.Abs(wy-cam.Y) > 1e-9 {
		t.Fatalf("round trip mismatch: got (%v,%v), want (%v,%v)", wx, wy, cam.X, cam.Y)
	}
}

func TestCameraFollow(t *testing.T) {
	cam := NewCamera(Rect{Width: 800, Height: 600})
	target := NewNode("target")
	target.worldTransform = [6]float64{1, 0, 0, 1, 100, 200}
	cam.Follow(target, 0, 0, 1.0)
	cam.Update(1.0 / 60.0)
	if cam.X != 100 || cam.Y != 200 {
		t.Fatalf("expected camera to snap to target, got (%v,%v)", cam.X, cam.Y)
	}
}
