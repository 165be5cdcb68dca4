package serialize

import "github.com/phanxgames/logiclang/animvalue"

// LeafRecord mirrors property.RawValue plus the has_new_value flag, the
// persisted form of one scalar leaf. Paths, not positions, are the key into
// a node's value map: shape is never persisted (see the package doc comment
// in serialize.go),
// so a path-keyed map is the only addressing scheme that survives a
// renderer-derived schema (AppearanceBinding, CameraBinding) being rebuilt
// from scratch on load.
type LeafRecord struct {
	Kind        uint8
	I64         int64
	F64         float64
	B           bool
	Str         string
	VI          [4]int32
	VF          [4]float64
	HasNewValue bool
}

// ModuleRecord persists one require()-able module.
type ModuleRecord struct {
	Name   string
	Source string
}

// ScriptRecord persists one script node: its source (recompiled on load,
// since gopher-lua's FunctionProto has no stable public binary dump this
// codec can round-trip — see DESIGN.md) and its current IN/OUT leaf values.
type ScriptRecord struct {
	ID        uint32
	Name      string
	Source    string
	InValues  map[string]LeafRecord
	OutValues map[string]LeafRecord
}

// NodeBindingRecord persists one NodeBinding.
type NodeBindingRecord struct {
	ID           uint32
	Name         string
	HasTarget    bool
	TargetID     uint32
	RotationConv uint8
	Values       map[string]LeafRecord
}

// AppearanceBindingRecord persists one AppearanceBinding. The uniform schema
// itself is not saved: Attach rederives it from the resolved target.
type AppearanceBindingRecord struct {
	ID        uint32
	Name      string
	HasTarget bool
	TargetID  uint32
	Values    map[string]LeafRecord
}

// CameraBindingRecord persists one CameraBinding. The frustum schema is not
// saved: Attach rederives it from the resolved target's Kind().
type CameraBindingRecord struct {
	ID        uint32
	Name      string
	HasTarget bool
	TargetID  uint32
	Values    map[string]LeafRecord
}

// TimerRecord persists one TimerNode.
type TimerRecord struct {
	ID        uint32
	Name      string
	InValues  map[string]LeafRecord
	OutValues map[string]LeafRecord
}

// ChannelRecord persists one AnimationNode channel definition (animvalue.Channel
// minus its in-flight tween state, which New() rebuilds from From/To/Duration).
type ChannelRecord struct {
	Name     string
	From, To float64
	Duration float32
	Ease     uint8
}

func (c ChannelRecord) toChannel() animvalue.Channel {
	return animvalue.Channel{Name: c.Name, From: c.From, To: c.To, Duration: c.Duration, Ease: animvalue.EaseKind(c.Ease)}
}

func channelRecord(c animvalue.Channel) ChannelRecord {
	return ChannelRecord{Name: c.Name, From: c.From, To: c.To, Duration: c.Duration, Ease: uint8(c.Ease)}
}

// AnimationRecord persists one AnimationNode.
type AnimationRecord struct {
	ID        uint32
	Name      string
	Channels  []ChannelRecord
	InValues  map[string]LeafRecord
	OutValues map[string]LeafRecord
}

// LinkRecord persists one property-level link by node id and path, resolved
// back into a link.Ref against the two nodes' already-rebuilt trees on load.
type LinkRecord struct {
	SrcNode uint32
	SrcPath string
	DstNode uint32
	DstPath string
}

// envelope is the gob-encoded payload, wrapped by Header (see serialize.go).
// NextNodeID is the engine's id counter high-water mark, restored so newly
// created nodes after a load never collide with a restored one.
type envelope struct {
	NextNodeID         uint32
	Modules            []ModuleRecord
	Scripts            []ScriptRecord
	NodeBindings       []NodeBindingRecord
	AppearanceBindings []AppearanceBindingRecord
	CameraBindings     []CameraBindingRecord
	TimerNodes         []TimerRecord
	AnimationNodes     []AnimationRecord
	Links              []LinkRecord
}
