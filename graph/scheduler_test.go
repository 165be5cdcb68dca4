package graph

import (
	"errors"
	"testing"

	"github.com/phanxgames/logiclang/link"
	"github.com/phanxgames/logiclang/property"
)

// stubNode is a minimal Node used to exercise the scheduler without a real
// script or binding implementation.
type stubNode struct {
	id      property.NodeID
	dirty   bool
	outputs *property.Tree
	run     func() error
	calls   int
}

func (s *stubNode) ID() property.NodeID    { return s.id }
func (s *stubNode) Dirty() bool            { return s.dirty }
func (s *stubNode) MarkDirty()             { s.dirty = true }
func (s *stubNode) ClearDirty()            { s.dirty = false }
func (s *stubNode) Outputs() *property.Tree { return s.outputs }
func (s *stubNode) Update() error {
	s.calls++
	if s.run != nil {
		return s.run()
	}
	return nil
}

func TestRunPassPrimitivePipeline(t *testing.T) {
	// node A has a ScriptOutput "out" linked to node B's ScriptInput "in".
	aOut := property.NewTree(1)
	outID, _ := aOut.AddStructField(aOut.Root(), "out", property.Int32, property.ScriptOutput)
	bIn := property.NewTree(2)
	inID, _ := bIn.AddStructField(bIn.Root(), "in", property.Int32, property.ScriptInput)

	links := link.New()
	g := New()
	g.AddNode(1)
	g.AddNode(2)
	if err := links.Link(
		link.Ref{Node: 1, Tree: aOut, ID: outID},
		link.Ref{Node: 2, Tree: bIn, ID: inID},
		g,
	); err != nil {
		t.Fatalf("Link: %v", err)
	}
	g.SetEdges(links.Edges())

	a := &stubNode{id: 1, dirty: true, outputs: aOut, run: func() error {
		return aOut.SetInt32Output(outID, 9)
	}}
	b := &stubNode{id: 2, dirty: false, run: func() error {
		return nil
	}}

	nodes := map[property.NodeID]Node{1: a, 2: b}
	errs := RunPass(g, nodes, links)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if a.calls != 1 {
		t.Fatalf("A should run once, ran %d", a.calls)
	}
	if b.calls != 1 {
		t.Fatalf("B should have been marked dirty by propagation and run once, ran %d", b.calls)
	}
	if got, _ := bIn.GetInt32(inID); got != 9 {
		t.Fatalf("propagated value = %d, want 9", got)
	}
	if !bIn.HasNewValue(inID) {
		// CopyFromLink marks has_new_value on the copied property itself;
		// B's stub never consumes/clears it, so it should remain set.
		t.Fatal("expected target has_new_value to remain set after propagation")
	}
}

func TestRunPassSkipsCleanNodes(t *testing.T) {
	g := New()
	g.AddNode(1)
	n := &stubNode{id: 1, dirty: false}
	errs := RunPass(g, map[property.NodeID]Node{1: n}, link.New())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if n.calls != 0 {
		t.Fatal("clean node should not run")
	}
}

func TestRunPassIsolatesNodeError(t *testing.T) {
	wantErr := errors.New("boom")
	g := New()
	g.AddNode(1)
	g.AddNode(2)
	failing := &stubNode{id: 1, dirty: true, run: func() error { return wantErr }}
	ok := &stubNode{id: 2, dirty: true}
	errs := RunPass(g, map[property.NodeID]Node{1: failing, 2: ok}, link.New())
	if len(errs) != 1 || !errors.Is(errs[0].Err, wantErr) {
		t.Fatalf("expected one wrapped error, got %v", errs)
	}
	if ok.calls != 1 {
		t.Fatal("a failing node must not block independent nodes from running")
	}
}

func TestRunPassCycleFailsWithoutUpdating(t *testing.T) {
	g := New()
	g.AddNode(1)
	g.AddNode(2)
	g.SetEdges([][2]property.NodeID{{1, 2}, {2, 1}})
	a := &stubNode{id: 1, dirty: true}
	b := &stubNode{id: 2, dirty: true}
	errs := RunPass(g, map[property.NodeID]Node{1: a, 2: b}, link.New())
	if len(errs) != 1 || !errors.Is(errs[0].Err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", errs)
	}
	if a.calls != 0 || b.calls != 0 {
		t.Fatal("no node should run when the graph has a cycle")
	}
}
