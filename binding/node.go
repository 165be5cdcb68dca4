package binding

import (
	"github.com/phanxgames/logiclang/property"
	"github.com/phanxgames/logiclang/renderer"
)

// NodeBinding mirrors {visibility, rotation, translation, scaling} onto a
// renderer.NodeTarget. The rotation convention is a node-level attribute,
// not a property — original_source's RotationUtilsTest.cpp treats it the
// same way, as configuration rather than data a script could drive.
type NodeBinding struct {
	id     property.NodeID
	name   string
	in     *property.Tree
	target renderer.NodeTarget
	conv   renderer.RotationType

	visibilityID, rotationID, translationID, scalingID property.ID

	forceDirty bool
}

// NewNodeBinding builds the fixed four-field input schema with renderer-
// matching defaults: scaling (1,1,1), visibility true, rotation and
// translation zero (spec.md §3's "Construction" clause).
func NewNodeBinding(id property.NodeID, name string) *NodeBinding {
	in := property.NewTree(id)
	root := in.Root()
	visID, _ := in.AddStructField(root, "visibility", property.Bool, property.BindingInput)
	rotID, _ := in.AddStructField(root, "rotation", property.Vec3f, property.BindingInput)
	transID, _ := in.AddStructField(root, "translation", property.Vec3f, property.BindingInput)
	scaleID, _ := in.AddStructField(root, "scaling", property.Vec3f, property.BindingInput)
	in.SetDefaultVecf(scaleID, []float64{1, 1, 1})

	b := &NodeBinding{
		id: id, name: name, in: in,
		conv:          renderer.RotationEulerXYZ,
		visibilityID:  visID,
		rotationID:    rotID,
		translationID: transID,
		scalingID:     scaleID,
		forceDirty:    true,
	}
	// visibility defaults to true, matching the renderer's own default.
	in.SetBool(visID, true)
	in.ClearNewValue(visID)
	return b
}

// ID implements graph.Node.
func (b *NodeBinding) ID() property.NodeID { return b.id }

// Name returns the binding's user-facing name (used by find_by_name).
func (b *NodeBinding) Name() string { return b.name }

// Inputs returns the binding's fixed input tree.
func (b *NodeBinding) Inputs() *property.Tree { return b.in }

// Outputs implements graph.Node; bindings own no outputs (spec.md §4.3).
func (b *NodeBinding) Outputs() *property.Tree { return nil }

// RotationConvention reports the configured Euler/Quaternion convention.
func (b *NodeBinding) RotationConvention() renderer.RotationType { return b.conv }

// SetRotationConvention changes the convention used on the next update;
// does not by itself push a value to the renderer.
func (b *NodeBinding) SetRotationConvention(conv renderer.RotationType) { b.conv = conv }

// Attach binds target as the renderer object this binding drives. Per
// spec.md §4.3, attaching does not push current property values — the user
// must set them explicitly — but it does mark the binding dirty so a
// subsequent update() is guaranteed to run (even if its inputs still hold
// only defaults, which remain no-ops against a fresh renderer object).
func (b *NodeBinding) Attach(target renderer.NodeTarget) {
	b.target = target
	b.forceDirty = true
}

// Detach removes the renderer target without clearing input values.
func (b *NodeBinding) Detach() { b.target = nil }

// Target returns the currently attached renderer object, or nil if none,
// used by package serialize to persist which object this binding drives.
func (b *NodeBinding) Target() renderer.NodeTarget { return b.target }

// Dirty implements graph.Node.
func (b *NodeBinding) Dirty() bool {
	if b.forceDirty {
		return true
	}
	return b.in.HasNewValue(b.visibilityID) || b.in.HasNewValue(b.rotationID) ||
		b.in.HasNewValue(b.translationID) || b.in.HasNewValue(b.scalingID)
}

// MarkDirty implements graph.Node (called by the scheduler after a link
// propagation writes one of this binding's inputs).
func (b *NodeBinding) MarkDirty() { b.forceDirty = true }

// ClearDirty implements graph.Node.
func (b *NodeBinding) ClearDirty() { b.forceDirty = false }

// Update implements graph.Node: applies every dirty input to the attached
// renderer target, in declaration order, stopping at the first rejection.
// With no target attached, Update is a no-op that never fails.
func (b *NodeBinding) Update() error {
	if b.target == nil {
		b.in.ClearNewValue(b.visibilityID)
		b.in.ClearNewValue(b.rotationID)
		b.in.ClearNewValue(b.translationID)
		b.in.ClearNewValue(b.scalingID)
		return nil
	}
	return applyDirtyLeaves(b.in, b.in.Root(), func(id property.ID) error {
		switch id {
		case b.visibilityID:
			v, _ := b.in.GetBool(id)
			if err := b.target.SetVisibility(v); err != nil {
				return rendererErr("visibility", err)
			}
		case b.rotationID:
			c, _ := b.in.GetVecf(id)
			if err := b.target.SetRotation(c[0], c[1], c[2], b.conv); err != nil {
				return rendererErr("rotation", err)
			}
		case b.translationID:
			c, _ := b.in.GetVecf(id)
			if err := b.target.SetTranslation(c[0], c[1], c[2]); err != nil {
				return rendererErr("translation", err)
			}
		case b.scalingID:
			c, _ := b.in.GetVecf(id)
			if err := b.target.SetScaling(c[0], c[1], c[2]); err != nil {
				return rendererErr("scaling", err)
			}
		}
		return nil
	})
}
