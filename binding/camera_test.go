package binding

import (
	"testing"

	"github.com/phanxgames/logiclang/renderer"
)

type fakeCamera struct {
	id                                    renderer.ObjectID
	kind                                  renderer.CameraKind
	vx, vy, vw, vh                        int32
	fov, aspect, near, far                float64
	valid                                 bool
}

func (f *fakeCamera) ObjectID() renderer.ObjectID { return f.id }
func (f *fakeCamera) Kind() renderer.CameraKind   { return f.kind }

func (f *fakeCamera) SetViewport(x, y, w, h int32) error {
	f.vx, f.vy, f.vw, f.vh = x, y, w, h
	return nil
}

func (f *fakeCamera) SetFrustumPerspective(fov, aspect, near, far float64) error {
	f.fov, f.aspect, f.near, f.far = fov, aspect, near, far
	f.valid = true
	return nil
}

func (f *fakeCamera) SetFrustumOrthographic(left, right, bottom, top, near, far float64) error {
	f.valid = true
	return nil
}

func (f *fakeCamera) ValidFrustum() bool { return f.valid }

func TestCameraBindingAppliesViewportAndFrustum(t *testing.T) {
	target := &fakeCamera{id: 1, kind: renderer.Perspective}
	b := NewCameraBinding(1, "cam")
	b.Attach(target)

	b.Inputs().SetInt32(b.widthID, 1920)
	b.Inputs().SetInt32(b.heightID, 1080)
	fovID, _ := b.Inputs().GetChildByName(b.frustumID, "fieldOfView")
	b.Inputs().SetFloat(fovID, 60)
	aspectID, _ := b.Inputs().GetChildByName(b.frustumID, "aspectRatio")
	b.Inputs().SetFloat(aspectID, 16.0/9.0)
	nearID, _ := b.Inputs().GetChildByName(b.frustumID, "nearPlane")
	b.Inputs().SetFloat(nearID, 0.1)
	farID, _ := b.Inputs().GetChildByName(b.frustumID, "farPlane")
	b.Inputs().SetFloat(farID, 1000)

	if err := b.Update(); err != nil {
		t.Fatal(err)
	}
	if target.vw != 1920 || target.vh != 1080 {
		t.Fatalf("viewport = %dx%d", target.vw, target.vh)
	}
	if target.fov != 60 || !target.valid {
		t.Fatalf("frustum not applied: fov=%v valid=%v", target.fov, target.valid)
	}
}

func TestCameraBindingNoOpWithoutTarget(t *testing.T) {
	b := NewCameraBinding(1, "cam")
	if err := b.Update(); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
