package logiclang

import (
	"github.com/phanxgames/logiclang/property"
	"github.com/phanxgames/logiclang/script"
)

// NodeID identifies any node owned by an Engine, re-exported from package
// property since the façade is where node identity is allocated (property
// only stores the owner tag it's given).
type NodeID = property.NodeID

// ScriptHandle is a script node: a compiled, interface-extracted *script.
// Script plus the node-level bookkeeping (name, dirty flag) the façade and
// scheduler need. It implements graph.Node.
type ScriptHandle struct {
	id         NodeID
	name       string
	s          *script.Script
	forceDirty bool
}

func (h *ScriptHandle) ID() property.NodeID { return h.id }
func (h *ScriptHandle) Name() string        { return h.name }

// In returns the script's declared input tree, for manual sets and links.
func (h *ScriptHandle) In() *property.Tree { return h.s.In() }

// Out returns the script's declared output tree, for links.
func (h *ScriptHandle) Out() *property.Tree { return h.s.Out() }

// Source returns the script's original Lua text, used by package serialize
// to persist and later recompile the script.
func (h *ScriptHandle) Source() string { return h.s.Source() }

// Outputs implements graph.Node.
func (h *ScriptHandle) Outputs() *property.Tree { return h.s.Out() }

// Dirty implements graph.Node: true when freshly created, or when any input
// leaf was set manually or by link propagation since the last successful run.
func (h *ScriptHandle) Dirty() bool {
	if h.forceDirty {
		return true
	}
	return treeHasAnyNewValue(h.s.In(), h.s.In().Root())
}

// MarkDirty implements graph.Node.
func (h *ScriptHandle) MarkDirty() { h.forceDirty = true }

// ClearDirty implements graph.Node.
func (h *ScriptHandle) ClearDirty() { h.forceDirty = false }

// Update implements graph.Node.
func (h *ScriptHandle) Update() error { return h.s.Run() }

// treeHasAnyNewValue reports whether any leaf under id carries has_new_value,
// the same "dirty iff some input leaf changed" check used by package
// binding's applyDirtyLeaves and by animvalue.AnimationNode.
func treeHasAnyNewValue(tree *property.Tree, id property.ID) bool {
	switch tree.Kind(id) {
	case property.Struct, property.Array:
		for _, c := range tree.Children(id) {
			if treeHasAnyNewValue(tree, c) {
				return true
			}
		}
		return false
	default:
		return tree.HasNewValue(id)
	}
}
