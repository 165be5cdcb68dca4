// Package renderer declares the collaborator interfaces a binding node
// drives (§4.3/§6): the engine depends only on these, never on a concrete
// renderer. package scene provides one implementation, built by adapting the
// teacher's scene-graph code; any host renderer can provide another.
package renderer

import "fmt"

// ObjectID is the stable scene-object id a binding targets, also used as the
// serialization key for binding nodes (§6).
type ObjectID uint32

// RotationType is the closed set of rotation conventions a NodeBinding can be
// configured with, carried from the Euler/Quaternion enumeration in
// original_source's rotation convention tests.
type RotationType uint8

const (
	RotationEulerXYZ RotationType = iota
	RotationEulerXZY
	RotationEulerYXZ
	RotationEulerYZX
	RotationEulerZXY
	RotationEulerZYX
	RotationQuaternion
)

func (r RotationType) String() string {
	switch r {
	case RotationEulerXYZ:
		return "EulerXYZ"
	case RotationEulerXZY:
		return "EulerXZY"
	case RotationEulerYXZ:
		return "EulerYXZ"
	case RotationEulerYZX:
		return "EulerYZX"
	case RotationEulerZXY:
		return "EulerZXY"
	case RotationEulerZYX:
		return "EulerZYX"
	case RotationQuaternion:
		return "Quaternion"
	default:
		return fmt.Sprintf("RotationType(%d)", uint8(r))
	}
}

// CameraKind distinguishes the two frustum shapes a CameraTarget can take.
type CameraKind uint8

const (
	Perspective CameraKind = iota
	Orthographic
)

// PropertyType mirrors property.Kind for uniforms that an appearance exposes
// to bindings. Kept as a distinct type (rather than importing package
// property) so renderer has no dependency on the engine's internals — a
// renderer implementation should never need to know about the property
// arena, only about the shapes bindings may feed it.
type PropertyType uint8

const (
	TypeInt32 PropertyType = iota
	TypeInt64
	TypeFloat
	TypeBool
	TypeString
	TypeVec2i
	TypeVec3i
	TypeVec4i
	TypeVec2f
	TypeVec3f
	TypeVec4f
)

// NodeTarget is the collaborator a NodeBinding drives: a scene-graph node's
// transform and visibility, as original_source's RamsesNodeBinding.h exposes
// them.
type NodeTarget interface {
	ObjectID() ObjectID
	SetVisibility(visible bool) error
	SetRotation(x, y, z float64, conv RotationType) error
	SetTranslation(x, y, z float64) error
	SetScaling(x, y, z float64) error
}

// UniformDescriptor describes one shader uniform an AppearanceTarget exposes;
// bindings use it to build their input property schema (§4.3).
type UniformDescriptor struct {
	Name string
	Type PropertyType
	Size int // component count: 1 for scalars, 2/3/4 for vectors
}

// AppearanceTarget is the collaborator an AppearanceBinding drives: a
// material's uniform set.
type AppearanceTarget interface {
	ObjectID() ObjectID
	Uniforms() []UniformDescriptor
	SetUniform(name string, v any) error
}

// CameraTarget is the collaborator a CameraBinding drives: viewport and
// frustum, as original_source's RamsesCameraBinding.h exposes them. Each
// SetFrustum* method sets the data of one frustum shape; package scene's
// Camera also switches its Kind() to the shape whose setter ran last.
type CameraTarget interface {
	ObjectID() ObjectID
	Kind() CameraKind
	SetViewport(x, y, w, h int32) error
	SetFrustumPerspective(fov, aspect, near, far float64) error
	SetFrustumOrthographic(left, right, bottom, top, near, far float64) error
	// ValidFrustum reports whether the frustum currently set is usable
	// (non-degenerate near/far planes, positive aspect, etc). CameraBinding
	// does not call it; a frustum a setter refuses reaches the binding as
	// that setter's error.
	ValidFrustum() bool
}
