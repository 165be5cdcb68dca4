package binding

import (
	"fmt"

	"github.com/phanxgames/logiclang/property"
	"github.com/phanxgames/logiclang/renderer"
)

// AppearanceBinding mirrors a dynamically-derived set of uniform inputs onto
// a renderer.AppearanceTarget. Unlike NodeBinding's fixed schema, the input
// shape is only known once a target is attached (spec.md §4.3: "inputs are
// dynamically derived from the renderer object's uniform descriptors on
// attach").
type AppearanceBinding struct {
	id     property.NodeID
	name   string
	in     *property.Tree
	target renderer.AppearanceTarget
	fields map[string]property.ID

	forceDirty bool
}

// NewAppearanceBinding returns a binding with no derived fields yet; call
// Attach to build the schema from a target's uniform descriptors.
func NewAppearanceBinding(id property.NodeID, name string) *AppearanceBinding {
	return &AppearanceBinding{
		id: id, name: name,
		in:         property.NewTree(id),
		fields:     make(map[string]property.ID),
		forceDirty: true,
	}
}

func uniformKind(t renderer.PropertyType) (property.Kind, error) {
	switch t {
	case renderer.TypeInt32:
		return property.Int32, nil
	case renderer.TypeInt64:
		return property.Int64, nil
	case renderer.TypeFloat:
		return property.Float, nil
	case renderer.TypeBool:
		return property.Bool, nil
	case renderer.TypeString:
		return property.String, nil
	case renderer.TypeVec2i:
		return property.Vec2i, nil
	case renderer.TypeVec3i:
		return property.Vec3i, nil
	case renderer.TypeVec4i:
		return property.Vec4i, nil
	case renderer.TypeVec2f:
		return property.Vec2f, nil
	case renderer.TypeVec3f:
		return property.Vec3f, nil
	case renderer.TypeVec4f:
		return property.Vec4f, nil
	default:
		return 0, fmt.Errorf("binding: unknown uniform type %d", t)
	}
}

// Attach binds target. On the first call this derives the input schema from
// target.Uniforms(); later calls reuse the existing schema and only swap the
// renderer object, the same "attach doesn't push values" contract
// NodeBinding follows.
func (b *AppearanceBinding) Attach(target renderer.AppearanceTarget) error {
	if len(b.fields) == 0 && target != nil {
		root := b.in.Root()
		for _, u := range target.Uniforms() {
			kind, err := uniformKind(u.Type)
			if err != nil {
				return err
			}
			fid, err := b.in.AddStructField(root, u.Name, kind, property.BindingInput)
			if err != nil {
				return err
			}
			b.fields[u.Name] = fid
		}
	}
	b.target = target
	b.forceDirty = true
	return nil
}

// Detach removes the renderer target without clearing input values or the
// derived schema.
func (b *AppearanceBinding) Detach() { b.target = nil }

// Target returns the currently attached renderer object, or nil if none,
// used by package serialize to persist which object this binding drives.
func (b *AppearanceBinding) Target() renderer.AppearanceTarget { return b.target }

// ID implements graph.Node.
func (b *AppearanceBinding) ID() property.NodeID { return b.id }

// Name returns the binding's user-facing name.
func (b *AppearanceBinding) Name() string { return b.name }

// Inputs returns the binding's (possibly still empty) input tree.
func (b *AppearanceBinding) Inputs() *property.Tree { return b.in }

// Outputs implements graph.Node; bindings own no outputs.
func (b *AppearanceBinding) Outputs() *property.Tree { return nil }

// Dirty implements graph.Node.
func (b *AppearanceBinding) Dirty() bool {
	if b.forceDirty {
		return true
	}
	for _, id := range b.fields {
		if b.in.HasNewValue(id) {
			return true
		}
	}
	return false
}

// MarkDirty implements graph.Node.
func (b *AppearanceBinding) MarkDirty() { b.forceDirty = true }

// ClearDirty implements graph.Node.
func (b *AppearanceBinding) ClearDirty() { b.forceDirty = false }

// Update implements graph.Node: pushes every dirty uniform to the attached
// target, stopping at the first rejection. A no-op with no target attached.
func (b *AppearanceBinding) Update() error {
	if b.target == nil {
		for _, id := range b.fields {
			b.in.ClearNewValue(id)
		}
		return nil
	}
	return applyDirtyLeaves(b.in, b.in.Root(), func(id property.ID) error {
		name := b.in.Name(id)
		v, err := scalarOrVector(b.in, id)
		if err != nil {
			return err
		}
		if err := b.target.SetUniform(name, v); err != nil {
			return rendererErr(name, err)
		}
		return nil
	})
}

// scalarOrVector reads id's current value as the `any` SetUniform expects:
// native Go scalars, or a []float64/[]int32 slice for vector kinds.
func scalarOrVector(t *property.Tree, id property.ID) (any, error) {
	switch t.Kind(id) {
	case property.Int32:
		v, _ := t.GetInt32(id)
		return v, nil
	case property.Int64:
		v, _ := t.GetInt64(id)
		return v, nil
	case property.Float:
		v, _ := t.GetFloat(id)
		return v, nil
	case property.Bool:
		v, _ := t.GetBool(id)
		return v, nil
	case property.String:
		v, _ := t.GetString(id)
		return v, nil
	case property.Vec2f, property.Vec3f, property.Vec4f:
		v, _ := t.GetVecf(id)
		return v, nil
	case property.Vec2i, property.Vec3i, property.Vec4i:
		v, _ := t.GetVeci(id)
		return v, nil
	default:
		return nil, fmt.Errorf("binding: cannot read compound property as a uniform value")
	}
}
