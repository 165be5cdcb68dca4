package graph

import (
	"github.com/phanxgames/logiclang/link"
	"github.com/phanxgames/logiclang/property"
)

// Node is the narrow view of a logic node the scheduler needs. The concrete
// node types (Script, NodeBinding, ...) live in the root engine package;
// Node is defined here, not there, so package graph never imports it —
// avoiding the import cycle an engine->graph->engine dependency would create.
type Node interface {
	ID() property.NodeID
	// Dirty reports whether the node must run this pass even absent
	// upstream propagation (manual input set, script source changed, just
	// created/deserialized, or — for bindings — newly attached).
	Dirty() bool
	// MarkDirty flags the node dirty; called by the scheduler itself when
	// an upstream propagation lands on one of this node's inputs.
	MarkDirty()
	ClearDirty()
	// Update runs the node's computation for one pass.
	Update() error
	// Outputs returns the node's output property tree, or nil if it has
	// none (bindings never have outputs).
	Outputs() *property.Tree
}

// NodeError pairs a failed node with the error its Update() returned, the
// shape of one entry in the engine's error buffer (spec.md §4.5/§7).
type NodeError struct {
	Node property.NodeID
	Err  error
}

// RunPass executes one full update pass per spec.md §4.5:
//  1. if the link graph has a cycle, fail without updating anything;
//  2. walk nodes in topological order;
//  3. skip nodes that are neither dirty nor freshly fed by propagation;
//  4. call Update(); on error, record it and move on — links downstream of
//     a failed node do not propagate;
//  5. on success, copy every "new" output along its links, marking targets
//     dirty for this same pass, then clear the node's dirty flag.
func RunPass(g *Graph, nodes map[property.NodeID]Node, links *link.Table) []NodeError {
	order, err := g.Order()
	if err != nil {
		return []NodeError{{Err: err}}
	}

	var errs []NodeError
	for _, id := range order {
		n, ok := nodes[id]
		if !ok {
			continue
		}
		if !n.Dirty() {
			continue
		}
		if err := n.Update(); err != nil {
			errs = append(errs, NodeError{Node: id, Err: err})
			n.ClearDirty()
			continue
		}
		propagate(n, links, nodes)
		n.ClearDirty()
	}
	return errs
}

// propagate copies every has_new_value output of n to its linked targets,
// marking each target node dirty so it runs later in this same pass.
func propagate(n Node, links *link.Table, nodes map[property.NodeID]Node) {
	out := n.Outputs()
	if out == nil {
		return
	}
	walkOutputs(out, out.Root(), n.ID(), links, nodes)
}

func walkOutputs(tree *property.Tree, id property.ID, owner property.NodeID, links *link.Table, nodes map[property.NodeID]Node) {
	if tree.HasNewValue(id) {
		src := link.Ref{Node: owner, Tree: tree, ID: id}
		for _, tgt := range links.TargetsOf(src) {
			if err := property.CopyFromLink(tree, id, tgt.Tree, tgt.ID); err != nil {
				continue
			}
			if tn, ok := nodes[tgt.Node]; ok {
				tn.MarkDirty()
			}
		}
		tree.ClearNewValue(id)
	}
	for _, c := range tree.Children(id) {
		walkOutputs(tree, c, owner, links, nodes)
	}
}
