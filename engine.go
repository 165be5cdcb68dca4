// Package logiclang is the engine façade (C6): the single entry point that
// owns every node, the link table, the dependency graph, and the error
// buffer, and drives one update pass per call to Update.
package logiclang

import (
	"errors"
	"fmt"
	"time"

	"github.com/phanxgames/logiclang/animvalue"
	"github.com/phanxgames/logiclang/binding"
	"github.com/phanxgames/logiclang/graph"
	"github.com/phanxgames/logiclang/link"
	"github.com/phanxgames/logiclang/property"
	"github.com/phanxgames/logiclang/script"
	"github.com/phanxgames/logiclang/timer"
)

// EngineVersion identifies this build's node/record semantics to package
// serialize, encoded as major*1000+minor: a saved file's major component
// must match on load, its minor may differ freely.
const EngineVersion uint32 = 1000

// Engine owns every node created through it. Destroy, Link and Unlink fail
// with ForeignObject when a node id is not live in this Engine (spec.md
// §4.6's cross-engine object rejection). The check compares node ids only:
// a node of another Engine whose id is also live in this one is accepted.
//
// nodeIDCounter is a plain counter — no atomic, matching the teacher's own
// single-threaded assumption for its id counters (node.go's nodeIDCounter):
// an Engine is never accessed from more than one goroutine (spec.md §5).
type Engine struct {
	nodeIDCounter uint32

	scripts            map[NodeID]*ScriptHandle
	nodeBindings       map[NodeID]*binding.NodeBinding
	appearanceBindings map[NodeID]*binding.AppearanceBinding
	cameraBindings     map[NodeID]*binding.CameraBinding
	timerNodes         map[NodeID]*timer.TimerNode
	animationNodes     map[NodeID]*animvalue.AnimationNode

	modules *script.ModuleResolver

	graph *graph.Graph
	links *link.Table

	errors []EngineError

	onPrint script.PrintFunc
}

// New returns an empty Engine. onPrint receives every script's print() call
// (script name, arguments); pass nil to discard print output.
func New(onPrint script.PrintFunc) *Engine {
	return &Engine{
		scripts:            make(map[NodeID]*ScriptHandle),
		nodeBindings:       make(map[NodeID]*binding.NodeBinding),
		appearanceBindings: make(map[NodeID]*binding.AppearanceBinding),
		cameraBindings:     make(map[NodeID]*binding.CameraBinding),
		timerNodes:         make(map[NodeID]*timer.TimerNode),
		animationNodes:     make(map[NodeID]*animvalue.AnimationNode),
		modules:            script.NewModuleResolver(),
		graph:              graph.New(),
		links:              link.New(),
		onPrint:            onPrint,
	}
}

func (e *Engine) nextID() NodeID {
	e.nodeIDCounter++
	return NodeID(e.nodeIDCounter)
}

func (e *Engine) clearErrors() { e.errors = nil }

// NodeIDCounter returns the engine's current id high-water mark, used by
// package serialize to persist it so ids never get reused after a load.
func (e *Engine) NodeIDCounter() uint32 { return e.nodeIDCounter }

// BumpNodeIDCounter raises the engine's id counter to at least id, used by
// package serialize after a load to guarantee newly created nodes never
// collide with a restored one.
func (e *Engine) BumpNodeIDCounter(id NodeID) { e.bumpIDCounter(id) }

// Errors returns the error buffer accumulated by the most recent top-level
// call (create/destroy/link/unlink/update), per spec.md §4.6. Package
// serialize's Save leaves the buffer unchanged; Load returns a new Engine
// whose buffer starts empty.
func (e *Engine) Errors() []EngineError { return e.errors }

func (e *Engine) record(kind ErrorKind, node NodeID, err error) {
	e.errors = append(e.errors, EngineError{Kind: kind, Node: node, Message: err.Error()})
}

// --- node/dependency-graph bookkeeping shared by every node() kind ---

// collectGraphNodes adapts any of the engine's node collections to graph.Node for
// RunPass; a plain map-union since Go has no heterogeneous map value type
// without an interface, and every concrete node type already satisfies
// graph.Node on its own (no wrapping needed).
func (e *Engine) collectGraphNodes() map[property.NodeID]graph.Node {
	nodes := make(map[property.NodeID]graph.Node)
	for id, h := range e.scripts {
		nodes[id] = h
	}
	for id, b := range e.nodeBindings {
		nodes[id] = b
	}
	for id, b := range e.appearanceBindings {
		nodes[id] = b
	}
	for id, b := range e.cameraBindings {
		nodes[id] = b
	}
	for id, t := range e.timerNodes {
		nodes[id] = t
	}
	for id, a := range e.animationNodes {
		nodes[id] = a
	}
	return nodes
}

// owns reports whether id is currently live in this engine — the check
// behind every ForeignObject rejection. It compares ids only, not which
// Engine allocated the node.
func (e *Engine) owns(id NodeID) bool {
	if _, ok := e.scripts[id]; ok {
		return true
	}
	if _, ok := e.nodeBindings[id]; ok {
		return true
	}
	if _, ok := e.appearanceBindings[id]; ok {
		return true
	}
	if _, ok := e.cameraBindings[id]; ok {
		return true
	}
	if _, ok := e.timerNodes[id]; ok {
		return true
	}
	if _, ok := e.animationNodes[id]; ok {
		return true
	}
	return false
}

// --- create_script / modules ---

// CreateScript compiles source, extracts its declared interface, and runs
// its optional init(), registering the resulting node under name.
func (e *Engine) CreateScript(name, source string) (*ScriptHandle, error) {
	e.clearErrors()
	id := e.nextID()
	s, err := script.New(name, source, e.onPrint, e.modules)
	if err != nil {
		e.record(KindParseError, id, err)
		return nil, err
	}
	if err := s.ExtractInterface(id); err != nil {
		e.record(KindInterfaceError, id, err)
		return nil, err
	}
	if err := s.Init(); err != nil {
		e.record(KindRuntimeError, id, err)
		return nil, err
	}
	h := &ScriptHandle{id: id, name: name, s: s, forceDirty: true}
	e.scripts[id] = h
	e.graph.AddNode(id)
	return h, nil
}

// CreateModule compiles a reusable require()-able fragment, not itself a
// node (spec.md §3: "LuaModule... has no inputs/outputs").
func (e *Engine) CreateModule(name, source string) (*script.Module, error) {
	e.clearErrors()
	m, err := script.NewModule(name, source)
	if err != nil {
		e.record(KindParseError, 0, err)
		return nil, err
	}
	e.modules.Add(m)
	return m, nil
}

// --- create_*binding / timer / animation ---

// CreateNodeBinding registers a new NodeBinding under name.
func (e *Engine) CreateNodeBinding(name string) *binding.NodeBinding {
	e.clearErrors()
	id := e.nextID()
	b := binding.NewNodeBinding(id, name)
	e.nodeBindings[id] = b
	e.graph.AddNode(id)
	return b
}

// CreateAppearanceBinding registers a new AppearanceBinding under name.
func (e *Engine) CreateAppearanceBinding(name string) *binding.AppearanceBinding {
	e.clearErrors()
	id := e.nextID()
	b := binding.NewAppearanceBinding(id, name)
	e.appearanceBindings[id] = b
	e.graph.AddNode(id)
	return b
}

// CreateCameraBinding registers a new CameraBinding under name.
func (e *Engine) CreateCameraBinding(name string) *binding.CameraBinding {
	e.clearErrors()
	id := e.nextID()
	b := binding.NewCameraBinding(id, name)
	e.cameraBindings[id] = b
	e.graph.AddNode(id)
	return b
}

// CreateTimerNode registers a new TimerNode under name.
func (e *Engine) CreateTimerNode(name string) *timer.TimerNode {
	e.clearErrors()
	id := e.nextID()
	t := timer.New(id, name)
	e.timerNodes[id] = t
	e.graph.AddNode(id)
	return t
}

// CreateAnimationNode registers a new AnimationNode under name with the
// given channels.
func (e *Engine) CreateAnimationNode(name string, channels []animvalue.Channel) (*animvalue.AnimationNode, error) {
	e.clearErrors()
	id := e.nextID()
	a, err := animvalue.New(id, name, channels)
	if err != nil {
		e.record(KindInterfaceError, id, err)
		return nil, err
	}
	e.animationNodes[id] = a
	e.graph.AddNode(id)
	return a, nil
}

// --- destroy ---

// Destroy removes a node by id, failing with ForeignObject if it does not
// belong to this engine. Every link touching the node is also removed.
// Modules are not nodes; DestroyModule removes them.
func (e *Engine) Destroy(id NodeID) error {
	e.clearErrors()
	if !e.owns(id) {
		err := fmt.Errorf("%w: node %d", errForeignObject, id)
		e.record(KindForeignObject, id, err)
		return err
	}
	delete(e.scripts, id)
	delete(e.nodeBindings, id)
	delete(e.appearanceBindings, id)
	delete(e.cameraBindings, id)
	delete(e.timerNodes, id)
	delete(e.animationNodes, id)
	e.links.RemoveNode(id)
	e.graph.RemoveNode(id)
	e.graph.SetEdges(e.links.Edges())
	return nil
}

// DestroyModule removes a module by name, failing with DependencyInUse if a
// script still has it in its require chain (spec.md §4.6/§10).
func (e *Engine) DestroyModule(name string) error {
	e.clearErrors()
	if err := e.modules.Remove(name); err != nil {
		e.record(KindDependencyInUse, 0, err)
		return err
	}
	return nil
}

// --- find_by_name / typed collections ---

func (e *Engine) FindScript(name string) (*ScriptHandle, bool) {
	for _, h := range e.scripts {
		if h.name == name {
			return h, true
		}
	}
	return nil, false
}

func (e *Engine) FindNodeBinding(name string) (*binding.NodeBinding, bool) {
	for _, b := range e.nodeBindings {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

func (e *Engine) FindAppearanceBinding(name string) (*binding.AppearanceBinding, bool) {
	for _, b := range e.appearanceBindings {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

func (e *Engine) FindCameraBinding(name string) (*binding.CameraBinding, bool) {
	for _, b := range e.cameraBindings {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

func (e *Engine) FindTimerNode(name string) (*timer.TimerNode, bool) {
	for _, t := range e.timerNodes {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func (e *Engine) FindAnimationNode(name string) (*animvalue.AnimationNode, bool) {
	for _, a := range e.animationNodes {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

func (e *Engine) Scripts() []*ScriptHandle {
	out := make([]*ScriptHandle, 0, len(e.scripts))
	for _, h := range e.scripts {
		out = append(out, h)
	}
	return out
}

func (e *Engine) NodeBindings() []*binding.NodeBinding {
	out := make([]*binding.NodeBinding, 0, len(e.nodeBindings))
	for _, b := range e.nodeBindings {
		out = append(out, b)
	}
	return out
}

func (e *Engine) AppearanceBindings() []*binding.AppearanceBinding {
	out := make([]*binding.AppearanceBinding, 0, len(e.appearanceBindings))
	for _, b := range e.appearanceBindings {
		out = append(out, b)
	}
	return out
}

func (e *Engine) CameraBindings() []*binding.CameraBinding {
	out := make([]*binding.CameraBinding, 0, len(e.cameraBindings))
	for _, b := range e.cameraBindings {
		out = append(out, b)
	}
	return out
}

func (e *Engine) TimerNodes() []*timer.TimerNode {
	out := make([]*timer.TimerNode, 0, len(e.timerNodes))
	for _, t := range e.timerNodes {
		out = append(out, t)
	}
	return out
}

func (e *Engine) AnimationNodes() []*animvalue.AnimationNode {
	out := make([]*animvalue.AnimationNode, 0, len(e.animationNodes))
	for _, a := range e.animationNodes {
		out = append(out, a)
	}
	return out
}

// Modules returns every registered module, used by package serialize to
// persist the full module set.
func (e *Engine) Modules() []*script.Module { return e.modules.Modules() }

// InputsOf returns node's input tree, whatever kind of node it is. Used by
// package serialize to walk a node's property values and to resolve a link's
// target endpoint (a link target is always an input).
func (e *Engine) InputsOf(node NodeID) *property.Tree {
	if h, ok := e.scripts[node]; ok {
		return h.In()
	}
	if b, ok := e.nodeBindings[node]; ok {
		return b.Inputs()
	}
	if b, ok := e.appearanceBindings[node]; ok {
		return b.Inputs()
	}
	if b, ok := e.cameraBindings[node]; ok {
		return b.Inputs()
	}
	if t, ok := e.timerNodes[node]; ok {
		return t.Inputs()
	}
	if a, ok := e.animationNodes[node]; ok {
		return a.Inputs()
	}
	return nil
}

// OutputsOf returns node's output tree, or nil for node kinds with none
// (bindings own no outputs). Used by package serialize alongside InputsOf.
func (e *Engine) OutputsOf(node NodeID) *property.Tree {
	if h, ok := e.scripts[node]; ok {
		return h.Out()
	}
	if t, ok := e.timerNodes[node]; ok {
		return t.Outputs()
	}
	if a, ok := e.animationNodes[node]; ok {
		return a.Outputs()
	}
	return nil
}

// Links returns every current property-level link, used by package
// serialize to persist the link table.
func (e *Engine) Links() []link.Pair { return e.links.Pairs() }

func (e *Engine) bumpIDCounter(id NodeID) {
	if uint32(id) > e.nodeIDCounter {
		e.nodeIDCounter = uint32(id)
	}
}

// --- restore (package serialize only: registers a node under its original,
// already-allocated id, instead of minting a new one via nextID) ---

// RestoreModule recompiles and registers a module under its original name,
// used when loading a saved engine.
func (e *Engine) RestoreModule(name, source string) error {
	m, err := script.NewModule(name, source)
	if err != nil {
		return err
	}
	e.modules.Add(m)
	return nil
}

// RestoreScript recompiles source, extracts its interface and runs init()
// under the node's original id, used when loading a saved engine. The
// caller overwrites In()/Out() with the saved leaf values afterward.
func (e *Engine) RestoreScript(id NodeID, name, source string) (*ScriptHandle, error) {
	s, err := script.New(name, source, e.onPrint, e.modules)
	if err != nil {
		return nil, err
	}
	if err := s.ExtractInterface(id); err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	h := &ScriptHandle{id: id, name: name, s: s}
	e.scripts[id] = h
	e.graph.AddNode(id)
	e.bumpIDCounter(id)
	return h, nil
}

// RestoreNodeBinding registers a NodeBinding under its original id.
func (e *Engine) RestoreNodeBinding(id NodeID, name string) *binding.NodeBinding {
	b := binding.NewNodeBinding(id, name)
	e.nodeBindings[id] = b
	e.graph.AddNode(id)
	e.bumpIDCounter(id)
	return b
}

// RestoreAppearanceBinding registers an AppearanceBinding under its original id.
func (e *Engine) RestoreAppearanceBinding(id NodeID, name string) *binding.AppearanceBinding {
	b := binding.NewAppearanceBinding(id, name)
	e.appearanceBindings[id] = b
	e.graph.AddNode(id)
	e.bumpIDCounter(id)
	return b
}

// RestoreCameraBinding registers a CameraBinding under its original id.
func (e *Engine) RestoreCameraBinding(id NodeID, name string) *binding.CameraBinding {
	b := binding.NewCameraBinding(id, name)
	e.cameraBindings[id] = b
	e.graph.AddNode(id)
	e.bumpIDCounter(id)
	return b
}

// RestoreTimerNode registers a TimerNode under its original id.
func (e *Engine) RestoreTimerNode(id NodeID, name string) *timer.TimerNode {
	t := timer.New(id, name)
	e.timerNodes[id] = t
	e.graph.AddNode(id)
	e.bumpIDCounter(id)
	return t
}

// RestoreAnimationNode registers an AnimationNode under its original id with
// its original channel definitions.
func (e *Engine) RestoreAnimationNode(id NodeID, name string, channels []animvalue.Channel) (*animvalue.AnimationNode, error) {
	a, err := animvalue.New(id, name, channels)
	if err != nil {
		return nil, err
	}
	e.animationNodes[id] = a
	e.graph.AddNode(id)
	e.bumpIDCounter(id)
	return a, nil
}

// RestoreLink re-establishes a link between two already-restored nodes,
// used when loading a saved engine's link table.
func (e *Engine) RestoreLink(src, tgt link.Ref) error {
	return e.Link(src, tgt)
}

// --- link / unlink / is_linked ---

// Link wires src (a script's output property) to tgt (a script or binding
// input property). Both refs' Node must belong to this engine.
func (e *Engine) Link(src, tgt link.Ref) error {
	e.clearErrors()
	if !e.owns(src.Node) || !e.owns(tgt.Node) {
		err := fmt.Errorf("%w", errForeignObject)
		e.record(KindForeignObject, tgt.Node, err)
		return err
	}
	if err := e.links.Link(src, tgt, e.graph); err != nil {
		e.record(linkErrorKind(err), tgt.Node, err)
		return err
	}
	e.graph.SetEdges(e.links.Edges())
	return nil
}

// Unlink removes the link targeting tgt, restoring the pre-link state.
func (e *Engine) Unlink(src, tgt link.Ref) error {
	e.clearErrors()
	if !e.owns(src.Node) || !e.owns(tgt.Node) {
		err := fmt.Errorf("%w", errForeignObject)
		e.record(KindForeignObject, tgt.Node, err)
		return err
	}
	if err := e.links.Unlink(src, tgt); err != nil {
		e.record(KindNoSuchLink, tgt.Node, err)
		return err
	}
	e.graph.SetEdges(e.links.Edges())
	return nil
}

// IsLinked reports whether tgt currently has an incoming link.
func (e *Engine) IsLinked(tgt link.Ref) bool {
	_, ok := e.links.SourceOf(tgt)
	return ok
}

func linkErrorKind(err error) ErrorKind {
	switch {
	case errors.Is(err, link.ErrTypeMismatch):
		return KindTypeMismatch
	case errors.Is(err, link.ErrSemantics):
		return KindSemanticsViolation
	case errors.Is(err, link.ErrLinkExists):
		return KindLinkExists
	case errors.Is(err, link.ErrCycle):
		return KindCycle
	case errors.Is(err, link.ErrSameNode):
		return KindSemanticsViolation
	default:
		return KindLinkExists
	}
}

// --- update ---

// Update runs one scheduler pass (spec.md §4.5): ticks every TimerNode with
// elapsed, then walks nodes in topological order, running dirty nodes and
// propagating new outputs along links. It returns an error iff at least one
// node failed; inspect Errors() for the full per-node detail.
func (e *Engine) Update(elapsed time.Duration) error {
	e.clearErrors()
	for _, t := range e.timerNodes {
		if err := t.Tick(elapsed); err != nil {
			e.record(KindRuntimeError, t.ID(), err)
		}
	}
	nodes := e.collectGraphNodes()
	nodeErrs := graph.RunPass(e.graph, nodes, e.links)
	for _, ne := range nodeErrs {
		e.record(classifyNodeError(ne.Err), ne.Node, ne.Err)
	}
	if len(nodeErrs) > 0 {
		return fmt.Errorf("logiclang: update pass failed for %d node(s)", len(nodeErrs))
	}
	return nil
}

func classifyNodeError(err error) ErrorKind {
	if _, ok := err.(*script.RuntimeError); ok {
		return KindRuntimeError
	}
	if errors.Is(err, graph.ErrCycle) {
		return KindCycle
	}
	if errors.Is(err, binding.ErrRendererRejected) {
		return KindRendererRejected
	}
	return KindRuntimeError
}
