package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/phanxgames/logiclang/property"
)

// typeDescriptor is the Go-side value returned by every Type:Xxx() call made
// during interface(IN, OUT). Scripts assign these into plain Lua tables;
// extractInterface walks the result after interface() returns and turns it
// into a []property.Descriptor tree consumed by Tree.BuildChildren.
type typeDescriptor struct {
	kind property.Kind
	size int             // Array length, for kind == Array
	elem *typeDescriptor // Array element type, for kind == Array
}

const typeDescriptorTag = "logiclang.typeDescriptor"

func newTypeUserData(L *lua.LState, d typeDescriptor) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = d
	return ud
}

// registerTypeTable installs the global Type table exposing one constructor
// method per property.Kind plus Type:Array(n, elem), mirroring the
// declaration-time API original_source scripts use inside interface(IN, OUT).
func registerTypeTable(L *lua.LState) {
	tbl := L.NewTable()
	reg := func(name string, k property.Kind) {
		tbl.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			L.Push(newTypeUserData(L, typeDescriptor{kind: k}))
			return 1
		}))
	}
	reg("Int32", property.Int32)
	reg("Int64", property.Int64)
	reg("Float", property.Float)
	reg("Bool", property.Bool)
	reg("String", property.String)
	reg("Vec2i", property.Vec2i)
	reg("Vec3i", property.Vec3i)
	reg("Vec4i", property.Vec4i)
	reg("Vec2f", property.Vec2f)
	reg("Vec3f", property.Vec3f)
	reg("Vec4f", property.Vec4f)

	tbl.RawSetString("Array", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(2)
		elemUD := L.CheckUserData(3)
		elem, ok := elemUD.Value.(typeDescriptor)
		if !ok {
			L.RaiseError("script: Type.Array's second argument must be a Type descriptor")
		}
		L.Push(newTypeUserData(L, typeDescriptor{kind: property.Array, size: n, elem: &elem}))
		return 1
	}))

	L.SetGlobal("Type", tbl)
}

// extractInterface walks a populated IN or OUT Lua table (the argument a
// script's interface(IN, OUT) function received and filled in) into a
// []property.Descriptor tree. A table entry holding a typeDescriptor
// userdata becomes a leaf or Array descriptor; a plain nested table becomes
// a nested Struct descriptor, recursively.
//
// Lua's pairs() order is unspecified, so struct field order here follows
// gopher-lua's internal table iteration rather than script source order;
// this is a known limitation inherited from embedding Lua tables as the
// declaration surface, not something this walker can fix.
func extractInterface(tbl *lua.LTable) ([]property.Descriptor, error) {
	var out []property.Descriptor
	var walkErr error
	tbl.ForEach(func(key, val lua.LValue) {
		if walkErr != nil {
			return
		}
		name, ok := key.(lua.LString)
		if !ok {
			walkErr = fmt.Errorf("script: %w: interface fields must be string keys", ErrBadDeclaration)
			return
		}
		d, err := toDescriptor(string(name), val)
		if err != nil {
			walkErr = err
			return
		}
		out = append(out, d)
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return out, nil
}

func toDescriptor(name string, val lua.LValue) (property.Descriptor, error) {
	switch v := val.(type) {
	case *lua.LUserData:
		td, ok := v.Value.(typeDescriptor)
		if !ok {
			return property.Descriptor{}, fmt.Errorf("script: %w: %q is not a Type descriptor", ErrBadDeclaration, name)
		}
		return descriptorFromType(name, td)
	case *lua.LTable:
		children, err := extractInterface(v)
		if err != nil {
			return property.Descriptor{}, err
		}
		return property.Descriptor{Name: name, Kind: property.Struct, Children: children}, nil
	default:
		return property.Descriptor{}, fmt.Errorf("script: %w: %q must be a Type descriptor or nested struct table", ErrBadDeclaration, name)
	}
}

func descriptorFromType(name string, td typeDescriptor) (property.Descriptor, error) {
	if td.kind != property.Array {
		return property.Descriptor{Name: name, Kind: td.kind}, nil
	}
	if td.elem == nil || td.size <= 0 || td.size > 255 {
		return property.Descriptor{}, fmt.Errorf("script: %w: %q declares an invalid array size (want 1-255)", ErrBadDeclaration, name)
	}
	if td.elem.kind == property.Array {
		return property.Descriptor{}, fmt.Errorf("script: %w: %q is an array of arrays, which is forbidden", ErrBadDeclaration, name)
	}
	elemDesc, err := descriptorFromType("", *td.elem)
	if err != nil {
		return property.Descriptor{}, err
	}
	children := make([]property.Descriptor, td.size)
	for i := range children {
		children[i] = elemDesc
	}
	return property.Descriptor{Name: name, Kind: property.Array, Children: children}, nil
}
