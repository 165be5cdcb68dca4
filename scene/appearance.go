package scene

import (
	"fmt"

	"github.com/phanxgames/logiclang/renderer"
)

var appearanceIDCounter uint32

func nextAppearanceID() uint32 {
	appearanceIDCounter++
	return appearanceIDCounter
}

// Appearance is a minimal renderer.AppearanceTarget: a named, fixed set of
// uniforms with no shader program behind them. Values are stored and can be
// read back for assertions in tests and examples; a real renderer would
// forward SetUniform to its material system instead.
type Appearance struct {
	id       renderer.ObjectID
	uniforms []renderer.UniformDescriptor
	values   map[string]any
}

// NewAppearance creates an Appearance exposing the given uniforms.
func NewAppearance(uniforms []renderer.UniformDescriptor) *Appearance {
	return &Appearance{
		id:       renderer.ObjectID(nextAppearanceID()),
		uniforms: uniforms,
		values:   make(map[string]any, len(uniforms)),
	}
}

// ObjectID implements renderer.AppearanceTarget.
func (a *Appearance) ObjectID() renderer.ObjectID { return a.id }

// Uniforms implements renderer.AppearanceTarget.
func (a *Appearance) Uniforms() []renderer.UniformDescriptor { return a.uniforms }

// SetUniform implements renderer.AppearanceTarget.
func (a *Appearance) SetUniform(name string, v any) error {
	for _, u := range a.uniforms {
		if u.Name == name {
			a.values[name] = v
			return nil
		}
	}
	return fmt.Errorf("scene: appearance has no uniform %q", name)
}

// Value returns the last value SetUniform stored for name, for tests and
// debugging tools.
func (a *Appearance) Value(name string) (any, bool) {
	v, ok := a.values[name]
	return v, ok
}
