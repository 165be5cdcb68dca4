// Package timer implements TimerNode (§10 of SPEC_FULL.md): a single-output
// node that turns the host-injected elapsed time of one update pass into a
// microsecond tick count other nodes can link against, grounded on
// original_source's TimerNodeGen.h / TimerNodeImpl.cpp.
package timer

import (
	"time"

	"github.com/phanxgames/logiclang/property"
)

// TimerNode exposes ticker_us: Int64, fed from the Engine.Update elapsed
// duration unless userTimeMs has been set, in which case that value (in
// milliseconds, converted to microseconds) takes over until cleared.
type TimerNode struct {
	id   property.NodeID
	name string
	in   *property.Tree
	out  *property.Tree

	userTimeMsID property.ID
	tickerUsID   property.ID
}

// New builds a TimerNode's fixed schema: one Int64 input (userTimeMs,
// manual override, zero meaning "unset") and one Int64 output (ticker_us).
func New(id property.NodeID, name string) *TimerNode {
	in := property.NewTree(id)
	userTimeMsID, _ := in.AddStructField(in.Root(), "userTimeMs", property.Int64, property.ScriptInput)

	out := property.NewTree(id)
	tickerUsID, _ := out.AddStructField(out.Root(), "ticker_us", property.Int64, property.ScriptOutput)

	return &TimerNode{
		id: id, name: name, in: in, out: out,
		userTimeMsID: userTimeMsID, tickerUsID: tickerUsID,
	}
}

// ID implements graph.Node.
func (n *TimerNode) ID() property.NodeID { return n.id }

// Name returns the node's user-facing name.
func (n *TimerNode) Name() string { return n.name }

// Inputs returns the userTimeMs override input.
func (n *TimerNode) Inputs() *property.Tree { return n.in }

// Outputs implements graph.Node.
func (n *TimerNode) Outputs() *property.Tree { return n.out }

// Dirty implements graph.Node: a TimerNode is dirty on every update pass —
// it always has a new tick to report, there being no "no elapsed time"
// no-op state distinct from zero elapsed time.
func (n *TimerNode) Dirty() bool { return true }

// MarkDirty implements graph.Node. A no-op: TimerNode is always dirty.
func (n *TimerNode) MarkDirty() {}

// ClearDirty implements graph.Node. A no-op: TimerNode is always dirty.
func (n *TimerNode) ClearDirty() {}

// Tick advances ticker_us by elapsed, unless userTimeMs has been set to a
// nonzero value, in which case that overrides the host-injected time for
// this pass. The engine facade calls Tick once per node per Update(elapsed).
func (n *TimerNode) Tick(elapsed time.Duration) error {
	userMs, _ := n.in.GetInt64(n.userTimeMsID)
	var us int64
	if userMs != 0 {
		us = userMs * 1000
	} else {
		us = elapsed.Microseconds()
	}
	return n.out.SetInt64Output(n.tickerUsID, us)
}

// Update implements graph.Node for a TimerNode driven purely by the
// scheduler's own pass (no elapsed time of its own to apply): it simply
// re-reports the value Tick last computed. The engine facade calls Tick
// before running the scheduler's pass each frame so this value is current.
func (n *TimerNode) Update() error { return nil }
