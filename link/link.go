// Package link implements the link table (C4): oriented edges from one
// output property to one input property on a different node, with the
// conflict and cycle checks of spec.md §4.4.
package link

import (
	"errors"
	"fmt"

	"github.com/phanxgames/logiclang/property"
)

var (
	ErrSameNode    = errors.New("link: source and target belong to the same node")
	ErrTypeMismatch = errors.New("link: source and target types differ")
	ErrSemantics    = errors.New("link: wrong property semantics")
	ErrLinkExists   = errors.New("link: target already has an incoming link")
	ErrNoSuchLink   = errors.New("link: no such link")
)

// Ref addresses one property of one node, across the node/tree boundary
// that package property itself does not cross (a Tree only knows its own
// owner; Ref is how the rest of the engine names a property globally).
type Ref struct {
	Node property.NodeID
	Tree *property.Tree
	ID   property.ID
}

// CycleChecker reports whether adding an edge Node->Node would create a
// cycle in the node dependency graph. Implemented by package graph; link
// depends on it through this narrow interface rather than importing graph
// directly, to keep C4 and C5 independently testable as the spec separates
// them.
type CycleChecker interface {
	WouldCycle(from, to property.NodeID) bool
}

type entry struct {
	src Ref
}

// Table is the link table: a target->source map plus the reverse adjacency
// needed for propagation traversal (source -> targets).
type Table struct {
	bySource map[sourceKey][]Ref // source ref -> target refs
	byTarget map[targetKey]entry // target ref -> source ref
}

type sourceKey struct {
	node property.NodeID
	id   property.ID
}

type targetKey = sourceKey

func refKey(r Ref) sourceKey { return sourceKey{node: r.Node, id: r.ID} }

// New creates an empty link table.
func New() *Table {
	return &Table{
		bySource: make(map[sourceKey][]Ref),
		byTarget: make(map[targetKey]entry),
	}
}

// Link adds an edge from src (an output property) to tgt (an input
// property), enforcing every invariant in spec.md §3/§4.4.
func (t *Table) Link(src, tgt Ref, cycles CycleChecker) error {
	if src.Node == tgt.Node {
		return ErrSameNode
	}
	if src.Tree.Semantics(src.ID) != property.ScriptOutput {
		return fmt.Errorf("%w: source must be a script output", ErrSemantics)
	}
	switch tgt.Tree.Semantics(tgt.ID) {
	case property.ScriptInput, property.BindingInput:
	default:
		return fmt.Errorf("%w: target must be a script or binding input", ErrSemantics)
	}
	if !property.ShapeEqual(src.Tree, src.ID, tgt.Tree, tgt.ID) {
		return ErrTypeMismatch
	}
	if _, exists := t.byTarget[refKey(tgt)]; exists {
		return ErrLinkExists
	}
	if cycles != nil && cycles.WouldCycle(src.Node, tgt.Node) {
		return ErrCycle
	}

	t.byTarget[refKey(tgt)] = entry{src: src}
	k := refKey(src)
	t.bySource[k] = append(t.bySource[k], tgt)
	tgt.Tree.SetLinkedInput(tgt.ID, true)
	return nil
}

// Unlink removes the link targeting tgt, restoring the pre-link state
// (spec.md §8: "link(x,y); unlink(x,y) restores the pre-state").
func (t *Table) Unlink(src, tgt Ref) error {
	e, ok := t.byTarget[refKey(tgt)]
	if !ok || e.src.Node != src.Node || e.src.ID != src.ID {
		return ErrNoSuchLink
	}
	delete(t.byTarget, refKey(tgt))
	k := refKey(src)
	targets := t.bySource[k]
	for i, r := range targets {
		if r.Node == tgt.Node && r.ID == tgt.ID {
			targets = append(targets[:i], targets[i+1:]...)
			break
		}
	}
	if len(targets) == 0 {
		delete(t.bySource, k)
	} else {
		t.bySource[k] = targets
	}
	tgt.Tree.SetLinkedInput(tgt.ID, false)
	return nil
}

// SourceOf returns the source property linked to tgt, if any. Used by the
// scheduler's propagation step (package graph).
func (t *Table) SourceOf(tgt Ref) (Ref, bool) {
	e, ok := t.byTarget[refKey(tgt)]
	return e.src, ok
}

// TargetsOf returns every target linked from src.
func (t *Table) TargetsOf(src Ref) []Ref {
	return t.bySource[refKey(src)]
}

// IsLinked reports whether any property of node participates in a link as
// source or target.
func (t *Table) IsLinked(node property.NodeID) bool {
	for k := range t.byTarget {
		if k.node == node {
			return true
		}
	}
	for k := range t.bySource {
		if k.node == node {
			return true
		}
	}
	return false
}

// RemoveNode deletes every link where node participates as source or
// target, used when an engine destroys a node (spec.md §4.6).
func (t *Table) RemoveNode(node property.NodeID) {
	for k, e := range t.byTarget {
		if k.node == node || e.src.Node == node {
			delete(t.byTarget, k)
		}
	}
	for k, targets := range t.bySource {
		if k.node == node {
			delete(t.bySource, k)
			continue
		}
		kept := targets[:0]
		for _, r := range targets {
			if r.Node != node {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(t.bySource, k)
		} else {
			t.bySource[k] = kept
		}
	}
}

// Endpoint names a link's target by node and property id, without a *Tree;
// a target endpoint is resolved against whichever tree the caller knows to
// be that node's input tree.
type Endpoint struct {
	Node property.NodeID
	ID   property.ID
}

// Pair is one property-level link, used by package serialize to persist the
// full link table.
type Pair struct {
	Src Ref
	Tgt Endpoint
}

// Pairs returns every current link as a (source Ref, target Endpoint) pair.
func (t *Table) Pairs() []Pair {
	out := make([]Pair, 0, len(t.byTarget))
	for tgtKey, e := range t.byTarget {
		out = append(out, Pair{Src: e.src, Tgt: Endpoint{Node: tgtKey.node, ID: tgtKey.id}})
	}
	return out
}

// Edges returns every (sourceNode, targetNode) pair currently linked,
// including duplicates when more than one property pair connects the same
// two nodes. Used by package graph to (re)build the dependency graph.
func (t *Table) Edges() [][2]property.NodeID {
	var out [][2]property.NodeID
	for tgtKey, e := range t.byTarget {
		out = append(out, [2]property.NodeID{e.src.Node, tgtKey.node})
	}
	return out
}

// ErrCycle is returned by Link when the new edge would create a cycle.
// Defined here (rather than reusing graph.ErrCycle) so package link has no
// import-time dependency on package graph — only the narrow CycleChecker
// interface above.
var ErrCycle = errors.New("link: would create a cycle")
