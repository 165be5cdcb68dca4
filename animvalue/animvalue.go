// Package animvalue implements AnimationNode (§10 of SPEC_FULL.md): a node
// whose output channels are gween tweens advanced by a host-injected delta
// time input, the same animation vocabulary as scene.TweenGroup but driving
// a ScriptOutput property for the scheduler to propagate instead of writing
// a scene.Node field directly.
package animvalue

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/logiclang/property"
)

// EaseKind names one of gween/ease's tween functions. Channel stores the
// name rather than the func value itself so a channel's easing survives
// save/load (an ease.TweenFunc can't be serialized; its name can).
type EaseKind uint8

const (
	EaseLinear EaseKind = iota
	EaseInQuad
	EaseOutQuad
	EaseInOutQuad
	EaseInCubic
	EaseOutCubic
	EaseInOutCubic
	EaseInSine
	EaseOutSine
	EaseInOutSine
	EaseInBack
	EaseOutBack
	EaseInBounce
	EaseOutBounce
	EaseInElastic
	EaseOutElastic
)

// Func resolves the named kind to the concrete tween function.
func (k EaseKind) Func() ease.TweenFunc {
	switch k {
	case EaseInQuad:
		return ease.InQuad
	case EaseOutQuad:
		return ease.OutQuad
	case EaseInOutQuad:
		return ease.InOutQuad
	case EaseInCubic:
		return ease.InCubic
	case EaseOutCubic:
		return ease.OutCubic
	case EaseInOutCubic:
		return ease.InOutCubic
	case EaseInSine:
		return ease.InSine
	case EaseOutSine:
		return ease.OutSine
	case EaseInOutSine:
		return ease.InOutSine
	case EaseInBack:
		return ease.InBack
	case EaseOutBack:
		return ease.OutBack
	case EaseInBounce:
		return ease.InBounce
	case EaseOutBounce:
		return ease.OutBounce
	case EaseInElastic:
		return ease.InElastic
	case EaseOutElastic:
		return ease.OutElastic
	default:
		return ease.Linear
	}
}

// Channel describes one animated output: a named Float property tweened
// from one value to another over a duration, with an easing function.
type Channel struct {
	Name     string
	From, To float64
	Duration float32
	Ease     EaseKind
}

// AnimationNode owns N independent channels, each a *gween.Tween over its
// own Float ScriptOutput property, all advanced by the same deltaSeconds
// input every update pass.
type AnimationNode struct {
	id   property.NodeID
	name string
	in   *property.Tree
	out  *property.Tree

	deltaID  property.ID
	channels []channelState
	defs     []Channel // original channel definitions, kept for save/load reconstruction
}

type channelState struct {
	id    property.ID
	tween *gween.Tween
	done  bool
}

// New builds an AnimationNode from its channel list: one deltaSeconds Float
// input (ScriptInput, manual-set by the host or a script) and one Float
// ScriptOutput per channel, named as given.
func New(id property.NodeID, name string, channels []Channel) (*AnimationNode, error) {
	in := property.NewTree(id)
	deltaID, _ := in.AddStructField(in.Root(), "deltaSeconds", property.Float, property.ScriptInput)

	out := property.NewTree(id)
	n := &AnimationNode{id: id, name: name, in: in, out: out, deltaID: deltaID, defs: channels}
	for _, c := range channels {
		if c.Name == "" {
			return nil, fmt.Errorf("animvalue: channel must have a name")
		}
		fid, err := out.AddStructField(out.Root(), c.Name, property.Float, property.ScriptOutput)
		if err != nil {
			return nil, err
		}
		n.channels = append(n.channels, channelState{
			id:    fid,
			tween: gween.New(float32(c.From), float32(c.To), c.Duration, c.Ease.Func()),
		})
	}
	return n, nil
}

// Channels returns the channel definitions this node was built from, used by
// package serialize to reconstruct an identical node on load.
func (n *AnimationNode) Channels() []Channel { return n.defs }

// ID implements graph.Node.
func (n *AnimationNode) ID() property.NodeID { return n.id }

// Name returns the node's user-facing name.
func (n *AnimationNode) Name() string { return n.name }

// Inputs returns the deltaSeconds input tree.
func (n *AnimationNode) Inputs() *property.Tree { return n.in }

// Outputs implements graph.Node.
func (n *AnimationNode) Outputs() *property.Tree { return n.out }

// Dirty implements graph.Node: an AnimationNode stays dirty until every
// channel has finished tweening, then goes quiet until deltaSeconds is set
// again (a manual write or a link propagation both set deltaSeconds'
// has_new_value flag, which Dirty reads directly; MarkDirty plays no part).
func (n *AnimationNode) Dirty() bool {
	if n.in.HasNewValue(n.deltaID) {
		return true
	}
	for _, c := range n.channels {
		if !c.done {
			return true
		}
	}
	return false
}

// MarkDirty implements graph.Node.
func (n *AnimationNode) MarkDirty() {
	// Re-checked lazily via Dirty(); nothing to latch here since
	// deltaSeconds's own has_new_value flag already signals the new input.
}

// ClearDirty implements graph.Node. A no-op: Dirty() is computed, not
// latched, so there is no separate flag to clear.
func (n *AnimationNode) ClearDirty() {}

// Update implements graph.Node: advances every unfinished channel by
// deltaSeconds and writes its new value, marking has_new_value so the
// scheduler propagates it along any outgoing link.
func (n *AnimationNode) Update() error {
	dt, _ := n.in.GetFloat(n.deltaID)
	n.in.ClearNewValue(n.deltaID)
	for i := range n.channels {
		c := &n.channels[i]
		if c.done {
			continue
		}
		val, finished := c.tween.Update(float32(dt))
		c.done = finished
		if err := n.out.SetFloatOutput(c.id, float64(val)); err != nil {
			return err
		}
	}
	return nil
}
