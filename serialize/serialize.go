// Package serialize implements the serializer (C7): a versioned envelope
// wrapping a gob-encoded payload of every node's kind, name, current
// property values and links, per SPEC_FULL.md §4.7.
//
// Shape is never persisted. A script's IN/OUT schema is rebuilt by
// recompiling its source and re-running interface extraction; a binding's
// schema is rebuilt by reattaching to a renderer object looked up by
// ObjectID. Only leaf values are saved, keyed by path rather than position,
// since a freshly rebuilt schema's field order isn't something this package
// wants to depend on matching exactly.
package serialize

import (
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/phanxgames/logiclang"
	"github.com/phanxgames/logiclang/animvalue"
	"github.com/phanxgames/logiclang/link"
	"github.com/phanxgames/logiclang/renderer"
	"github.com/phanxgames/logiclang/script"
)

// FormatVersion is the envelope's wire schema version. Unlike EngineVersion/
// RendererVersion below, any mismatch here is a hard failure: the record
// types in this package may have changed shape entirely.
const FormatVersion uint32 = 1

// Header is written first, via encoding/binary (fixed-width, independent of
// the gob payload that follows), so a reader can reject an incompatible file
// before paying the cost of decoding it.
type Header struct {
	FormatVersion   uint32
	EngineVersion   uint32
	RendererVersion uint32
}

// splitVersion decodes a major*1000+minor encoded version. A major mismatch
// on load is a hard failure (the saved semantics may not match this build's);
// a minor mismatch is accepted.
func splitVersion(v uint32) (major, minor uint32) { return v / 1000, v % 1000 }

var (
	// ErrFormatVersion is returned when a file's envelope schema version
	// does not match this package's FormatVersion.
	ErrFormatVersion = errors.New("serialize: unsupported format version")
	// ErrEngineVersionMajor is returned when a file's engine major version
	// does not match logiclang.EngineVersion's major version.
	ErrEngineVersionMajor = errors.New("serialize: incompatible engine version")
	// ErrRendererVersionMajor is returned when a file's renderer major
	// version does not match the version the caller is loading against.
	ErrRendererVersionMajor = errors.New("serialize: incompatible renderer version")
	// ErrMissingValue is returned when a node's rebuilt property tree has a
	// leaf the saved file has no value for.
	ErrMissingValue = errors.New("serialize: missing value for property")
	// ErrTargetNotFound is returned when a binding's saved renderer target
	// id cannot be resolved against the Resolver passed to Load.
	ErrTargetNotFound = errors.New("serialize: renderer target not found")
	// ErrUnknownLinkEndpoint is returned when a saved link names a node or
	// property path that no longer exists after reconstruction.
	ErrUnknownLinkEndpoint = errors.New("serialize: unknown link endpoint")
)

// Resolver looks up renderer objects by id so Load can reattach bindings to
// a scene already populated with the objects they drove before saving.
// package scene's *Scene implements this directly.
type Resolver interface {
	NodeTarget(id renderer.ObjectID) (renderer.NodeTarget, bool)
	AppearanceTarget(id renderer.ObjectID) (renderer.AppearanceTarget, bool)
	CameraTarget(id renderer.ObjectID) (renderer.CameraTarget, bool)
}

// Save writes e's full state to w: every module, node, current property
// value and link. rendererVersion is recorded in the header so a later Load
// against an incompatible renderer implementation fails fast rather than
// reattaching bindings to objects it misunderstands.
func Save(e *logiclang.Engine, w io.Writer, rendererVersion uint32) error {
	env := envelope{NextNodeID: e.NodeIDCounter()}

	for _, m := range e.Modules() {
		env.Modules = append(env.Modules, ModuleRecord{Name: m.Name(), Source: m.Source()})
	}

	for _, h := range e.Scripts() {
		env.Scripts = append(env.Scripts, ScriptRecord{
			ID:        uint32(h.ID()),
			Name:      h.Name(),
			Source:    h.Source(),
			InValues:  collectLeaves(h.In(), h.In().Root()),
			OutValues: collectLeaves(h.Out(), h.Out().Root()),
		})
	}

	for _, b := range e.NodeBindings() {
		rec := NodeBindingRecord{
			ID:           uint32(b.ID()),
			Name:         b.Name(),
			RotationConv: uint8(b.RotationConvention()),
			Values:       collectLeaves(b.Inputs(), b.Inputs().Root()),
		}
		if t := b.Target(); t != nil {
			rec.HasTarget = true
			rec.TargetID = uint32(t.ObjectID())
		}
		env.NodeBindings = append(env.NodeBindings, rec)
	}

	for _, b := range e.AppearanceBindings() {
		rec := AppearanceBindingRecord{
			ID:     uint32(b.ID()),
			Name:   b.Name(),
			Values: collectLeaves(b.Inputs(), b.Inputs().Root()),
		}
		if t := b.Target(); t != nil {
			rec.HasTarget = true
			rec.TargetID = uint32(t.ObjectID())
		}
		env.AppearanceBindings = append(env.AppearanceBindings, rec)
	}

	for _, b := range e.CameraBindings() {
		rec := CameraBindingRecord{
			ID:     uint32(b.ID()),
			Name:   b.Name(),
			Values: collectLeaves(b.Inputs(), b.Inputs().Root()),
		}
		if t := b.Target(); t != nil {
			rec.HasTarget = true
			rec.TargetID = uint32(t.ObjectID())
		}
		env.CameraBindings = append(env.CameraBindings, rec)
	}

	for _, t := range e.TimerNodes() {
		env.TimerNodes = append(env.TimerNodes, TimerRecord{
			ID:        uint32(t.ID()),
			Name:      t.Name(),
			InValues:  collectLeaves(t.Inputs(), t.Inputs().Root()),
			OutValues: collectLeaves(t.Outputs(), t.Outputs().Root()),
		})
	}

	for _, a := range e.AnimationNodes() {
		chans := make([]ChannelRecord, 0, len(a.Channels()))
		for _, c := range a.Channels() {
			chans = append(chans, channelRecord(c))
		}
		env.AnimationNodes = append(env.AnimationNodes, AnimationRecord{
			ID:        uint32(a.ID()),
			Name:      a.Name(),
			Channels:  chans,
			InValues:  collectLeaves(a.Inputs(), a.Inputs().Root()),
			OutValues: collectLeaves(a.Outputs(), a.Outputs().Root()),
		})
	}

	for _, p := range e.Links() {
		dstTree := e.InputsOf(p.Tgt.Node)
		if dstTree == nil {
			return fmt.Errorf("serialize: link target node %d has no input tree", p.Tgt.Node)
		}
		env.Links = append(env.Links, LinkRecord{
			SrcNode: uint32(p.Src.Node),
			SrcPath: pathOf(p.Src.Tree, p.Src.ID),
			DstNode: uint32(p.Tgt.Node),
			DstPath: pathOf(dstTree, p.Tgt.ID),
		})
	}

	hdr := Header{FormatVersion: FormatVersion, EngineVersion: logiclang.EngineVersion, RendererVersion: rendererVersion}
	if err := binary.Write(w, binary.BigEndian, hdr); err != nil {
		return fmt.Errorf("serialize: writing header: %w", err)
	}
	if err := gob.NewEncoder(w).Encode(env); err != nil {
		return fmt.Errorf("serialize: encoding payload: %w", err)
	}
	return nil
}

// Summary describes a saved file's contents without reconstructing an
// Engine or touching a Resolver, for tools that only need to report what a
// file holds (logicctl inspect).
type Summary struct {
	Header             Header
	Modules            int
	Scripts            int
	NodeBindings       int
	AppearanceBindings int
	CameraBindings     int
	TimerNodes         int
	AnimationNodes     int
	Links              int
	NextNodeID         uint32
}

// Peek reads a file's header and envelope and reports counts, without
// creating an Engine or resolving any binding target.
func Peek(r io.Reader) (Summary, error) {
	var hdr Header
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return Summary{}, fmt.Errorf("serialize: reading header: %w", err)
	}
	if hdr.FormatVersion != FormatVersion {
		return Summary{}, fmt.Errorf("%w: file is format %d, this build reads %d", ErrFormatVersion, hdr.FormatVersion, FormatVersion)
	}

	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return Summary{}, fmt.Errorf("serialize: decoding payload: %w", err)
	}

	return Summary{
		Header:             hdr,
		Modules:            len(env.Modules),
		Scripts:            len(env.Scripts),
		NodeBindings:       len(env.NodeBindings),
		AppearanceBindings: len(env.AppearanceBindings),
		CameraBindings:     len(env.CameraBindings),
		TimerNodes:         len(env.TimerNodes),
		AnimationNodes:     len(env.AnimationNodes),
		Links:              len(env.Links),
		NextNodeID:         env.NextNodeID,
	}, nil
}

// Load rebuilds an Engine from r: an empty Engine is created, then every
// module, node and link is restored under its original id, with its saved
// property values written back directly (bypassing the normal write-path
// policy, since this is prior state being restored, not a new write) and
// bindings reattached to resolver's renderer objects by id.
func Load(r io.Reader, resolver Resolver, onPrint script.PrintFunc, rendererVersion uint32) (*logiclang.Engine, error) {
	var hdr Header
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("serialize: reading header: %w", err)
	}
	if hdr.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: file is format %d, this build reads %d", ErrFormatVersion, hdr.FormatVersion, FormatVersion)
	}
	wantEngineMajor, _ := splitVersion(logiclang.EngineVersion)
	gotEngineMajor, _ := splitVersion(hdr.EngineVersion)
	if gotEngineMajor != wantEngineMajor {
		return nil, fmt.Errorf("%w: file engine version %d, this build %d", ErrEngineVersionMajor, hdr.EngineVersion, logiclang.EngineVersion)
	}
	wantRendererMajor, _ := splitVersion(rendererVersion)
	gotRendererMajor, _ := splitVersion(hdr.RendererVersion)
	if gotRendererMajor != wantRendererMajor {
		return nil, fmt.Errorf("%w: file renderer version %d, this build %d", ErrRendererVersionMajor, hdr.RendererVersion, rendererVersion)
	}

	var env envelope
	if err := gob.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("serialize: decoding payload: %w", err)
	}

	e := logiclang.New(onPrint)

	for _, m := range env.Modules {
		if err := e.RestoreModule(m.Name, m.Source); err != nil {
			return nil, fmt.Errorf("serialize: module %q: %w", m.Name, err)
		}
	}

	for _, s := range env.Scripts {
		h, err := e.RestoreScript(logiclang.NodeID(s.ID), s.Name, s.Source)
		if err != nil {
			return nil, fmt.Errorf("serialize: script %q: %w", s.Name, err)
		}
		if err := restoreLeaves(h.In(), h.In().Root(), s.InValues); err != nil {
			return nil, fmt.Errorf("serialize: script %q inputs: %w", s.Name, err)
		}
		if err := restoreLeaves(h.Out(), h.Out().Root(), s.OutValues); err != nil {
			return nil, fmt.Errorf("serialize: script %q outputs: %w", s.Name, err)
		}
	}

	for _, b := range env.NodeBindings {
		nb := e.RestoreNodeBinding(logiclang.NodeID(b.ID), b.Name)
		nb.SetRotationConvention(renderer.RotationType(b.RotationConv))
		if b.HasTarget {
			target, ok := resolver.NodeTarget(renderer.ObjectID(b.TargetID))
			if !ok {
				return nil, fmt.Errorf("%w: node binding %q target %d", ErrTargetNotFound, b.Name, b.TargetID)
			}
			nb.Attach(target)
		}
		if err := restoreLeaves(nb.Inputs(), nb.Inputs().Root(), b.Values); err != nil {
			return nil, fmt.Errorf("serialize: node binding %q: %w", b.Name, err)
		}
	}

	for _, b := range env.AppearanceBindings {
		ab := e.RestoreAppearanceBinding(logiclang.NodeID(b.ID), b.Name)
		if b.HasTarget {
			target, ok := resolver.AppearanceTarget(renderer.ObjectID(b.TargetID))
			if !ok {
				return nil, fmt.Errorf("%w: appearance binding %q target %d", ErrTargetNotFound, b.Name, b.TargetID)
			}
			if err := ab.Attach(target); err != nil {
				return nil, fmt.Errorf("serialize: appearance binding %q: %w", b.Name, err)
			}
		}
		if err := restoreLeaves(ab.Inputs(), ab.Inputs().Root(), b.Values); err != nil {
			return nil, fmt.Errorf("serialize: appearance binding %q: %w", b.Name, err)
		}
	}

	for _, b := range env.CameraBindings {
		cb := e.RestoreCameraBinding(logiclang.NodeID(b.ID), b.Name)
		if b.HasTarget {
			target, ok := resolver.CameraTarget(renderer.ObjectID(b.TargetID))
			if !ok {
				return nil, fmt.Errorf("%w: camera binding %q target %d", ErrTargetNotFound, b.Name, b.TargetID)
			}
			cb.Attach(target)
		}
		if err := restoreLeaves(cb.Inputs(), cb.Inputs().Root(), b.Values); err != nil {
			return nil, fmt.Errorf("serialize: camera binding %q: %w", b.Name, err)
		}
	}

	for _, t := range env.TimerNodes {
		tn := e.RestoreTimerNode(logiclang.NodeID(t.ID), t.Name)
		if err := restoreLeaves(tn.Inputs(), tn.Inputs().Root(), t.InValues); err != nil {
			return nil, fmt.Errorf("serialize: timer %q inputs: %w", t.Name, err)
		}
		if err := restoreLeaves(tn.Outputs(), tn.Outputs().Root(), t.OutValues); err != nil {
			return nil, fmt.Errorf("serialize: timer %q outputs: %w", t.Name, err)
		}
	}

	for _, a := range env.AnimationNodes {
		chans := make([]animvalue.Channel, 0, len(a.Channels))
		for _, c := range a.Channels {
			chans = append(chans, c.toChannel())
		}
		an, err := e.RestoreAnimationNode(logiclang.NodeID(a.ID), a.Name, chans)
		if err != nil {
			return nil, fmt.Errorf("serialize: animation %q: %w", a.Name, err)
		}
		if err := restoreLeaves(an.Inputs(), an.Inputs().Root(), a.InValues); err != nil {
			return nil, fmt.Errorf("serialize: animation %q inputs: %w", a.Name, err)
		}
		if err := restoreLeaves(an.Outputs(), an.Outputs().Root(), a.OutValues); err != nil {
			return nil, fmt.Errorf("serialize: animation %q outputs: %w", a.Name, err)
		}
	}

	for _, lr := range env.Links {
		srcTree := e.OutputsOf(logiclang.NodeID(lr.SrcNode))
		dstTree := e.InputsOf(logiclang.NodeID(lr.DstNode))
		if srcTree == nil {
			return nil, fmt.Errorf("%w: link source node %d", ErrUnknownLinkEndpoint, lr.SrcNode)
		}
		if dstTree == nil {
			return nil, fmt.Errorf("%w: link target node %d", ErrUnknownLinkEndpoint, lr.DstNode)
		}
		srcID, ok := resolvePath(srcTree, lr.SrcPath)
		if !ok {
			return nil, fmt.Errorf("%w: link source %d.%s", ErrUnknownLinkEndpoint, lr.SrcNode, lr.SrcPath)
		}
		dstID, ok := resolvePath(dstTree, lr.DstPath)
		if !ok {
			return nil, fmt.Errorf("%w: link target %d.%s", ErrUnknownLinkEndpoint, lr.DstNode, lr.DstPath)
		}
		src := link.Ref{Node: logiclang.NodeID(lr.SrcNode), Tree: srcTree, ID: srcID}
		dst := link.Ref{Node: logiclang.NodeID(lr.DstNode), Tree: dstTree, ID: dstID}
		if err := e.RestoreLink(src, dst); err != nil {
			return nil, fmt.Errorf("serialize: relinking %d.%s -> %d.%s: %w", lr.SrcNode, lr.SrcPath, lr.DstNode, lr.DstPath, err)
		}
	}

	e.BumpNodeIDCounter(logiclang.NodeID(env.NextNodeID))
	return e, nil
}
