package script

import (
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/phanxgames/logiclang/property"
)

// bridge marshals one property.Tree (a script's IN or OUT view) into Lua
// values for run()/init(). output selects the write-path: IN is read-only
// from Lua (writes raise ErrWriteToInput), OUT writes go through the
// script-output setters (property.Tree.Set*Output).
type bridge struct {
	tree   *property.Tree
	output bool
}

type bridgeRef struct {
	b  *bridge
	id property.ID
}

// pushProperty converts a property to a Lua value: scalars become plain Lua
// values, vectors become 1-indexed tables, and Struct/Array become userdata
// carrying __index/__newindex metamethods so nested access stays live
// against the tree rather than snapshotting it.
func pushProperty(L *lua.LState, b *bridge, id property.ID) lua.LValue {
	tree := b.tree
	switch tree.Kind(id) {
	case property.Int32:
		v, _ := tree.GetInt32(id)
		return lua.LNumber(v)
	case property.Int64:
		v, _ := tree.GetInt64(id)
		return lua.LNumber(v)
	case property.Float:
		v, _ := tree.GetFloat(id)
		return lua.LNumber(v)
	case property.Bool:
		v, _ := tree.GetBool(id)
		return lua.LBool(v)
	case property.String:
		v, _ := tree.GetString(id)
		return lua.LString(v)
	case property.Vec2f, property.Vec3f, property.Vec4f:
		comps, _ := tree.GetVecf(id)
		tbl := L.NewTable()
		for i, c := range comps {
			tbl.RawSetInt(i+1, lua.LNumber(c))
		}
		return tbl
	case property.Vec2i, property.Vec3i, property.Vec4i:
		comps, _ := tree.GetVeci(id)
		tbl := L.NewTable()
		for i, c := range comps {
			tbl.RawSetInt(i+1, lua.LNumber(c))
		}
		return tbl
	case property.Struct, property.Array:
		return newBridgeUserData(L, b, id)
	default:
		return lua.LNil
	}
}

func newBridgeUserData(L *lua.LState, b *bridge, id property.ID) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = bridgeRef{b: b, id: id}
	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(bridgeIndex))
	mt.RawSetString("__newindex", L.NewFunction(bridgeNewIndex))
	mt.RawSetString("__len", L.NewFunction(bridgeLen))
	L.SetMetatable(ud, mt)
	return ud
}

func checkBridgeRef(L *lua.LState, n int) bridgeRef {
	ud := L.CheckUserData(n)
	ref, ok := ud.Value.(bridgeRef)
	if !ok {
		L.RaiseError("script: not a property handle")
	}
	return ref
}

func resolveChild(L *lua.LState, ref bridgeRef, key lua.LValue) property.ID {
	tree := ref.b.tree
	switch tree.Kind(ref.id) {
	case property.Struct:
		name, ok := key.(lua.LString)
		if !ok {
			L.RaiseError("script: struct fields must be indexed by name")
		}
		child, ok := tree.GetChildByName(ref.id, string(name))
		if !ok {
			L.RaiseError("script: no such field %q", string(name))
		}
		return child
	case property.Array:
		idx, ok := key.(lua.LNumber)
		if !ok {
			L.RaiseError("script: array elements must be indexed by number")
		}
		child, ok := tree.GetChildByIndex(ref.id, int(idx)-1)
		if !ok {
			L.RaiseError("script: array index %d out of range", int(idx))
		}
		return child
	default:
		L.RaiseError("script: cannot index a scalar property")
	}
	return 0
}

func bridgeIndex(L *lua.LState) int {
	ref := checkBridgeRef(L, 1)
	key := L.CheckAny(2)
	child := resolveChild(L, ref, key)
	L.Push(pushProperty(L, ref.b, child))
	return 1
}

func bridgeNewIndex(L *lua.LState) int {
	ref := checkBridgeRef(L, 1)
	key := L.CheckAny(2)
	val := L.CheckAny(3)
	child := resolveChild(L, ref, key)
	if err := setProperty(ref.b, child, val); err != nil {
		L.RaiseError("%s", err.Error())
	}
	return 0
}

func bridgeLen(L *lua.LState) int {
	ref := checkBridgeRef(L, 1)
	L.Push(lua.LNumber(ref.b.tree.ChildCount(ref.id)))
	return 1
}

// setProperty applies a Lua value to a property, routed through the
// script-output write path on OUT handles; IN handles always reject writes.
func setProperty(b *bridge, id property.ID, v lua.LValue) error {
	if !b.output {
		return ErrWriteToInput
	}
	tree := b.tree
	switch tree.Kind(id) {
	case property.Int32:
		n, ok := v.(lua.LNumber)
		if !ok {
			return fmt.Errorf("script: %w: expected a number for Int32", ErrBadDeclaration)
		}
		if !isIntegral(n) {
			return fmt.Errorf("script: %w: %v is not integral for Int32", property.ErrTypeMismatch, float64(n))
		}
		return tree.SetInt32Output(id, int32(n))
	case property.Int64:
		n, ok := v.(lua.LNumber)
		if !ok {
			return fmt.Errorf("script: %w: expected a number for Int64", ErrBadDeclaration)
		}
		if !isIntegral(n) {
			return fmt.Errorf("script: %w: %v is not integral for Int64", property.ErrTypeMismatch, float64(n))
		}
		return tree.SetInt64Output(id, int64(n))
	case property.Float:
		n, ok := v.(lua.LNumber)
		if !ok {
			return fmt.Errorf("script: %w: expected a number for Float", ErrBadDeclaration)
		}
		return tree.SetFloatOutput(id, float64(n))
	case property.Bool:
		bv, ok := v.(lua.LBool)
		if !ok {
			return fmt.Errorf("script: %w: expected a boolean", ErrBadDeclaration)
		}
		return tree.SetBoolOutput(id, bool(bv))
	case property.String:
		s, ok := v.(lua.LString)
		if !ok {
			return fmt.Errorf("script: %w: expected a string", ErrBadDeclaration)
		}
		return tree.SetStringOutput(id, string(s))
	case property.Vec2f, property.Vec3f, property.Vec4f:
		comps, err := vecFloatComponents(v, tree.ChildCount(id))
		if err != nil {
			return err
		}
		return tree.SetVecfOutput(id, comps)
	case property.Vec2i, property.Vec3i, property.Vec4i:
		comps, err := vecIntComponents(v, tree.ChildCount(id))
		if err != nil {
			return err
		}
		return tree.SetVeciOutput(id, comps)
	case property.Struct, property.Array:
		return setCompoundProperty(b, id, v)
	default:
		return fmt.Errorf("script: %w: cannot assign to %s", ErrBadDeclaration, tree.Kind(id))
	}
}

// isIntegral reports whether a Lua number holds a whole value, the rule
// spec.md §4.2 requires before truncating a float into an Int32/Int64
// property (2.0 succeeds, 2.5 fails with a type mismatch).
func isIntegral(n lua.LNumber) bool {
	f := float64(n)
	return f == math.Trunc(f)
}

// setCompoundProperty implements whole-Struct/Array assignment to OUT
// (spec.md §4.2): either a Lua table literal, checked field-by-field (or
// element-by-element) against id's declared shape, or a userdata proxy for
// another property (OUT.foo = IN.bar), which does a typed deep copy. Both
// forms go through the same script-output write path as a scalar OUT write.
func setCompoundProperty(b *bridge, id property.ID, v lua.LValue) error {
	switch src := v.(type) {
	case *lua.LUserData:
		ref, ok := src.Value.(bridgeRef)
		if !ok {
			return fmt.Errorf("script: %w: expected a property handle or table", ErrBadDeclaration)
		}
		if err := b.tree.SetOutputFromTree(id, ref.b.tree, ref.id); err != nil {
			return fmt.Errorf("script: %w", err)
		}
		return nil
	case *lua.LTable:
		return setCompoundFromTable(b, id, src)
	default:
		return fmt.Errorf("script: %w: cannot assign %s to %s", ErrBadDeclaration, v.Type().String(), b.tree.Kind(id))
	}
}

// setCompoundFromTable assigns a Lua table literal to a Struct or Array
// property. A Struct literal must supply exactly the declared fields, no
// more, no less; an Array literal must supply exactly N elements (no
// trailing/missing entries — the "trailing nils permitted" leniency spec.md
// §4.2 allows is for Vector literals, not whole-Array assignment). Each
// element is marshaled through setProperty recursively, so nested
// Struct/Array/Vector literals work the same way at every depth.
func setCompoundFromTable(b *bridge, id property.ID, tbl *lua.LTable) error {
	tree := b.tree
	switch tree.Kind(id) {
	case property.Struct:
		children := tree.Children(id)
		assigned := 0
		var walkErr error
		tbl.ForEach(func(k, val lua.LValue) {
			if walkErr != nil {
				return
			}
			name, ok := k.(lua.LString)
			if !ok {
				walkErr = fmt.Errorf("script: %w: struct literal keys must be field names", ErrBadDeclaration)
				return
			}
			child, ok := tree.GetChildByName(id, string(name))
			if !ok {
				walkErr = fmt.Errorf("script: %w: %q is not a declared field", property.ErrShapeMismatch, string(name))
				return
			}
			if err := setProperty(b, child, val); err != nil {
				walkErr = err
				return
			}
			assigned++
		})
		if walkErr != nil {
			return walkErr
		}
		if assigned != len(children) {
			return fmt.Errorf("script: %w: struct literal is missing one or more fields", property.ErrShapeMismatch)
		}
		return nil
	case property.Array:
		children := tree.Children(id)
		if tbl.Len() != len(children) {
			return fmt.Errorf("script: %w: want %d array elements, got %d", property.ErrShapeMismatch, len(children), tbl.Len())
		}
		for i, c := range children {
			val := tbl.RawGetInt(i + 1)
			if val == lua.LNil {
				return fmt.Errorf("script: %w: array element %d is missing", property.ErrShapeMismatch, i+1)
			}
			if err := setProperty(b, c, val); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("script: %w: cannot assign a table to %s", ErrBadDeclaration, tree.Kind(id))
	}
}

func vecFloatComponents(v lua.LValue, n int) ([]float64, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("script: %w: expected a %d-element table", ErrBadDeclaration, n)
	}
	comps := make([]float64, n)
	for i := 0; i < n; i++ {
		lv := tbl.RawGetInt(i + 1)
		num, ok := lv.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("script: %w: vector component %d is not a number", ErrBadDeclaration, i+1)
		}
		comps[i] = float64(num)
	}
	return comps, nil
}

func vecIntComponents(v lua.LValue, n int) ([]int32, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("script: %w: expected a %d-element table", ErrBadDeclaration, n)
	}
	comps := make([]int32, n)
	for i := 0; i < n; i++ {
		lv := tbl.RawGetInt(i + 1)
		num, ok := lv.(lua.LNumber)
		if !ok {
			return nil, fmt.Errorf("script: %w: vector component %d is not a number", ErrBadDeclaration, i+1)
		}
		comps[i] = int32(num)
	}
	return comps, nil
}
