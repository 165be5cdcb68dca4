package link

import (
	"errors"
	"testing"

	"github.com/phanxgames/logiclang/property"
)

// alwaysAcyclic is a CycleChecker stub for tests that don't exercise cycle
// rejection directly (package graph has its own cycle-detection tests).
type alwaysAcyclic struct{}

func (alwaysAcyclic) WouldCycle(from, to property.NodeID) bool { return false }

func newPair(t *testing.T) (srcTree *property.Tree, src property.ID, dstTree *property.Tree, dst property.ID) {
	t.Helper()
	srcTree = property.NewTree(1)
	src, err := srcTree.AddStructField(srcTree.Root(), "out", property.Int32, property.ScriptOutput)
	if err != nil {
		t.Fatal(err)
	}
	dstTree = property.NewTree(2)
	dst, err = dstTree.AddStructField(dstTree.Root(), "in", property.Int32, property.ScriptInput)
	if err != nil {
		t.Fatal(err)
	}
	return
}

func TestLinkAndUnlinkRestoresState(t *testing.T) {
	srcTree, src, dstTree, dst := newPair(t)
	tbl := New()
	srcRef := Ref{Node: 1, Tree: srcTree, ID: src}
	dstRef := Ref{Node: 2, Tree: dstTree, ID: dst}

	if err := tbl.Link(srcRef, dstRef, alwaysAcyclic{}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if !dstTree.IsLinkedInput(dst) {
		t.Fatal("expected target to be marked as linked")
	}
	if got, ok := tbl.SourceOf(dstRef); !ok || got.ID != src {
		t.Fatalf("SourceOf = %v, %v", got, ok)
	}

	if err := tbl.Unlink(srcRef, dstRef); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if dstTree.IsLinkedInput(dst) {
		t.Fatal("expected target to be unmarked after unlink")
	}
	if _, ok := tbl.SourceOf(dstRef); ok {
		t.Fatal("expected no source after unlink")
	}
}

func TestLinkRejectsSameNode(t *testing.T) {
	srcTree, src, _, _ := newPair(t)
	in, _ := srcTree.AddStructField(srcTree.Root(), "in", property.Int32, property.ScriptInput)
	tbl := New()
	err := tbl.Link(Ref{Node: 1, Tree: srcTree, ID: src}, Ref{Node: 1, Tree: srcTree, ID: in}, alwaysAcyclic{})
	if !errors.Is(err, ErrSameNode) {
		t.Fatalf("expected ErrSameNode, got %v", err)
	}
}

func TestLinkRejectsWrongSemantics(t *testing.T) {
	srcTree, _, dstTree, dst := newPair(t)
	notOutput, _ := srcTree.AddStructField(srcTree.Root(), "notOutput", property.Int32, property.ScriptInput)
	tbl := New()
	err := tbl.Link(Ref{Node: 1, Tree: srcTree, ID: notOutput}, Ref{Node: 2, Tree: dstTree, ID: dst}, alwaysAcyclic{})
	if !errors.Is(err, ErrSemantics) {
		t.Fatalf("expected ErrSemantics, got %v", err)
	}
}

func TestLinkRejectsShapeMismatch(t *testing.T) {
	srcTree, src, dstTree, _ := newPair(t)
	wrongShape, _ := dstTree.AddStructField(dstTree.Root(), "wrongShape", property.Float, property.ScriptInput)
	tbl := New()
	err := tbl.Link(Ref{Node: 1, Tree: srcTree, ID: src}, Ref{Node: 2, Tree: dstTree, ID: wrongShape}, alwaysAcyclic{})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestLinkRejectsSecondIncomingLink(t *testing.T) {
	srcTree, src, dstTree, dst := newPair(t)
	otherSrcTree := property.NewTree(3)
	otherSrc, _ := otherSrcTree.AddStructField(otherSrcTree.Root(), "out2", property.Int32, property.ScriptOutput)

	tbl := New()
	if err := tbl.Link(Ref{Node: 1, Tree: srcTree, ID: src}, Ref{Node: 2, Tree: dstTree, ID: dst}, alwaysAcyclic{}); err != nil {
		t.Fatal(err)
	}
	err := tbl.Link(Ref{Node: 3, Tree: otherSrcTree, ID: otherSrc}, Ref{Node: 2, Tree: dstTree, ID: dst}, alwaysAcyclic{})
	if !errors.Is(err, ErrLinkExists) {
		t.Fatalf("expected ErrLinkExists, got %v", err)
	}
}

func TestLinkRejectsCycle(t *testing.T) {
	srcTree, src, dstTree, dst := newPair(t)
	tbl := New()
	cycles := cyclicCheckerStub{}
	err := tbl.Link(Ref{Node: 1, Tree: srcTree, ID: src}, Ref{Node: 2, Tree: dstTree, ID: dst}, cycles)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

type cyclicCheckerStub struct{}

func (cyclicCheckerStub) WouldCycle(from, to property.NodeID) bool { return true }

func TestEdgesReflectsLinks(t *testing.T) {
	srcTree, src, dstTree, dst := newPair(t)
	tbl := New()
	_ = tbl.Link(Ref{Node: 1, Tree: srcTree, ID: src}, Ref{Node: 2, Tree: dstTree, ID: dst}, alwaysAcyclic{})
	edges := tbl.Edges()
	if len(edges) != 1 || edges[0] != [2]property.NodeID{1, 2} {
		t.Fatalf("Edges = %v, want [[1 2]]", edges)
	}
}
