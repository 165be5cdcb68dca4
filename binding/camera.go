package binding

import (
	"github.com/phanxgames/logiclang/property"
	"github.com/phanxgames/logiclang/renderer"
)

// CameraBinding mirrors viewport and frustum inputs onto a
// renderer.CameraTarget. The frustum shape depends on the target's kind
// (4 fields for Perspective, 6 for Orthographic, spec.md §4.3) and so, like
// AppearanceBinding, is only known once a target is attached.
type CameraBinding struct {
	id     property.NodeID
	name   string
	in     *property.Tree
	target renderer.CameraTarget
	kind   renderer.CameraKind

	viewportID                       property.ID
	offsetXID, offsetYID, widthID, heightID property.ID

	frustumID property.ID
	frustumFields                    [6]property.ID // fov,aspect,near,far OR left,right,bottom,top,near,far
	frustumBuilt                     bool

	forceDirty bool
}

// NewCameraBinding builds the fixed viewport schema immediately; the
// frustum schema is built on first Attach, once the target's Kind is known.
func NewCameraBinding(id property.NodeID, name string) *CameraBinding {
	in := property.NewTree(id)
	root := in.Root()
	viewportID, _ := in.AddStructField(root, "viewport", property.Struct, property.BindingInput)
	offX, _ := in.AddStructField(viewportID, "offsetX", property.Int32, property.BindingInput)
	offY, _ := in.AddStructField(viewportID, "offsetY", property.Int32, property.BindingInput)
	width, _ := in.AddStructField(viewportID, "width", property.Int32, property.BindingInput)
	height, _ := in.AddStructField(viewportID, "height", property.Int32, property.BindingInput)

	return &CameraBinding{
		id: id, name: name, in: in,
		viewportID: viewportID,
		offsetXID:  offX, offsetYID: offY, widthID: width, heightID: height,
		forceDirty: true,
	}
}

// Attach binds target, building the frustum schema from target.Kind() the
// first time a target is attached. Later attaches to a target of a
// different kind keep the original frustum shape (re-deriving would orphan
// any links already wired to the old fields).
func (b *CameraBinding) Attach(target renderer.CameraTarget) {
	if !b.frustumBuilt && target != nil {
		b.kind = target.Kind()
		root := b.in.Root()
		b.frustumID, _ = b.in.AddStructField(root, "frustum", property.Struct, property.BindingInput)
		if b.kind == renderer.Perspective {
			b.frustumFields[0], _ = b.in.AddStructField(b.frustumID, "fieldOfView", property.Float, property.BindingInput)
			b.frustumFields[1], _ = b.in.AddStructField(b.frustumID, "aspectRatio", property.Float, property.BindingInput)
			b.frustumFields[2], _ = b.in.AddStructField(b.frustumID, "nearPlane", property.Float, property.BindingInput)
			b.frustumFields[3], _ = b.in.AddStructField(b.frustumID, "farPlane", property.Float, property.BindingInput)
		} else {
			b.frustumFields[0], _ = b.in.AddStructField(b.frustumID, "left", property.Float, property.BindingInput)
			b.frustumFields[1], _ = b.in.AddStructField(b.frustumID, "right", property.Float, property.BindingInput)
			b.frustumFields[2], _ = b.in.AddStructField(b.frustumID, "bottom", property.Float, property.BindingInput)
			b.frustumFields[3], _ = b.in.AddStructField(b.frustumID, "top", property.Float, property.BindingInput)
			b.frustumFields[4], _ = b.in.AddStructField(b.frustumID, "near", property.Float, property.BindingInput)
			b.frustumFields[5], _ = b.in.AddStructField(b.frustumID, "far", property.Float, property.BindingInput)
		}
		b.frustumBuilt = true
	}
	b.target = target
	b.forceDirty = true
}

// Detach removes the renderer target without clearing input values.
func (b *CameraBinding) Detach() { b.target = nil }

// Target returns the currently attached renderer object, or nil if none,
// used by package serialize to persist which object this binding drives.
func (b *CameraBinding) Target() renderer.CameraTarget { return b.target }

// ID implements graph.Node.
func (b *CameraBinding) ID() property.NodeID { return b.id }

// Name returns the binding's user-facing name.
func (b *CameraBinding) Name() string { return b.name }

// Inputs returns the binding's input tree.
func (b *CameraBinding) Inputs() *property.Tree { return b.in }

// Outputs implements graph.Node; bindings own no outputs.
func (b *CameraBinding) Outputs() *property.Tree { return nil }

func (b *CameraBinding) viewportDirty() bool {
	return b.in.HasNewValue(b.offsetXID) || b.in.HasNewValue(b.offsetYID) ||
		b.in.HasNewValue(b.widthID) || b.in.HasNewValue(b.heightID)
}

func (b *CameraBinding) frustumDirty() bool {
	if !b.frustumBuilt {
		return false
	}
	for _, f := range frustumFieldCount(b.kind == renderer.Perspective, b.frustumFields) {
		if b.in.HasNewValue(f) {
			return true
		}
	}
	return false
}

func frustumFieldCount(perspective bool, fields [6]property.ID) []property.ID {
	if perspective {
		return fields[:4]
	}
	return fields[:6]
}

// Dirty implements graph.Node.
func (b *CameraBinding) Dirty() bool {
	return b.forceDirty || b.viewportDirty() || b.frustumDirty()
}

// MarkDirty implements graph.Node.
func (b *CameraBinding) MarkDirty() { b.forceDirty = true }

// ClearDirty implements graph.Node.
func (b *CameraBinding) ClearDirty() { b.forceDirty = false }

// Update implements graph.Node. Viewport and frustum are each pushed as one
// atomic renderer call (the renderer interfaces take every component at
// once), applied only when at least one field in the group changed, reading
// the group's full current values. Stops at the first rejection, per the
// partial-application rule of spec.md §4.3.
func (b *CameraBinding) Update() error {
	if b.target == nil {
		b.clearAll()
		return nil
	}
	if b.viewportDirty() {
		x, _ := b.in.GetInt32(b.offsetXID)
		y, _ := b.in.GetInt32(b.offsetYID)
		w, _ := b.in.GetInt32(b.widthID)
		h, _ := b.in.GetInt32(b.heightID)
		if err := b.target.SetViewport(x, y, w, h); err != nil {
			return rendererErr("viewport", err)
		}
		b.in.ClearNewValue(b.offsetXID)
		b.in.ClearNewValue(b.offsetYID)
		b.in.ClearNewValue(b.widthID)
		b.in.ClearNewValue(b.heightID)
	}
	if b.frustumDirty() {
		get := func(id property.ID) float64 { v, _ := b.in.GetFloat(id); return v }
		var err error
		if b.kind == renderer.Perspective {
			err = b.target.SetFrustumPerspective(
				get(b.frustumFields[0]), get(b.frustumFields[1]),
				get(b.frustumFields[2]), get(b.frustumFields[3]))
		} else {
			err = b.target.SetFrustumOrthographic(
				get(b.frustumFields[0]), get(b.frustumFields[1]), get(b.frustumFields[2]),
				get(b.frustumFields[3]), get(b.frustumFields[4]), get(b.frustumFields[5]))
		}
		if err != nil {
			return rendererErr("frustum", err)
		}
		for _, f := range frustumFieldCount(b.kind == renderer.Perspective, b.frustumFields) {
			b.in.ClearNewValue(f)
		}
	}
	return nil
}

func (b *CameraBinding) clearAll() {
	b.in.ClearNewValue(b.offsetXID)
	b.in.ClearNewValue(b.offsetYID)
	b.in.ClearNewValue(b.widthID)
	b.in.ClearNewValue(b.heightID)
	if b.frustumBuilt {
		for _, f := range frustumFieldCount(b.kind == renderer.Perspective, b.frustumFields) {
			b.in.ClearNewValue(f)
		}
	}
}
