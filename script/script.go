// Package script embeds a Lua script host (C2) over github.com/yuin/gopher-lua,
// the pure-Go Lua 5.1 VM. Each Script owns one isolated *lua.LState with IN/OUT
// property trees bridged in for declaration (interface) and execution (init,
// run), matching original_source's LuaScript/ApiObject split between
// declaration time and runtime.
package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/phanxgames/logiclang/property"
)

// PrintFunc receives a script's print() output; the default discards it.
// The engine facade (package logiclang) wires this to its own logger, the
// idiom the teacher follows for its own log.Printf-based diagnostics.
type PrintFunc func(scriptName string, args []string)

// Script is one compiled and instantiated Lua logic unit: a fixed IN/OUT
// property interface declared once, then exercised every update pass via
// Run. Compiling and declaring are separate from running, mirroring
// original_source's two-phase create-then-link lifecycle (declare the
// interface at construction, bind links afterward, run every tick).
type Script struct {
	name     string
	source   string
	proto    *lua.FunctionProto
	l        *lua.LState
	in       *property.Tree
	out      *property.Tree
	declared bool
	onPrint  PrintFunc
	modules  *ModuleResolver
}

// New compiles source, runs its top-level chunk once (defining its functions
// and performing any top-level require() calls), and returns a Script whose
// interface has not yet been extracted. Compilation failure is reported
// immediately rather than
// deferred to first use, since a script with a syntax error can never be
// declared or run. modules may be nil, in which case the script's require()
// global is left undefined.
func New(name, source string, onPrint PrintFunc, modules *ModuleResolver) (*Script, error) {
	chunk, err := lua.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, &RuntimeError{Phase: "compile", Message: err.Error()}
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, &RuntimeError{Phase: "compile", Message: err.Error()}
	}
	s := &Script{name: name, source: source, proto: proto, onPrint: onPrint, modules: modules}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// openSandboxLibs opens the subset of gopher-lua's standard library a script
// unit may see (spec.md §4.2): base, string, math, table, debug. io, os,
// package (require outside the engine's own module resolver) and the
// coroutine/channel libraries are never opened — a script has no
// filesystem, process, or concurrency surface.
func openSandboxLibs(l *lua.LState) {
	lua.OpenBase(l)
	lua.OpenString(l)
	lua.OpenMath(l)
	lua.OpenTable(l)
	lua.OpenDebug(l)
}

// reset builds a fresh *lua.LState restricted to the libraries
// openSandboxLibs opens, registers the Type table, the GLOBAL escape-hatch
// table, require(), and a script-scoped print, and runs the script's proto
// once so its top-level definitions land in the global table.
func (s *Script) reset() error {
	l := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSandboxLibs(l)
	registerTypeTable(l)
	// GLOBAL is the one place a script may stash state that survives across
	// run() calls and is shared deliberately, bypassing the init()-only
	// undeclared-global restriction enforced by sandboxGlobals.
	l.SetGlobal("GLOBAL", l.NewTable())
	if s.modules != nil {
		s.modules.Attach(l)
	}
	l.SetGlobal("print", l.NewFunction(func(l *lua.LState) int {
		if s.onPrint == nil {
			return 0
		}
		n := l.GetTop()
		args := make([]string, n)
		for i := 1; i <= n; i++ {
			args[i-1] = lua.LVAsString(l.Get(i))
		}
		s.onPrint(s.name, args)
		return 0
	}))
	fn := l.NewFunctionFromProto(s.proto)
	l.Push(fn)
	if err := l.PCall(0, lua.MultRet, nil); err != nil {
		l.Close()
		return &RuntimeError{Phase: "load", Message: err.Error()}
	}
	s.l = l
	return nil
}

// ExtractInterface calls the script's interface(IN, OUT) function once,
// building s.in and s.out from the descriptors the call populates into its
// two table arguments. It is the only time interface() runs; calling it
// twice on the same Script is a caller error (the engine facade calls it
// exactly once, at create_lua_script).
func (s *Script) ExtractInterface(owner property.NodeID) error {
	if s.declared {
		return fmt.Errorf("script: %s: interface already extracted", s.name)
	}
	fn := s.l.GetGlobal("interface")
	if fn == lua.LNil {
		return fmt.Errorf("%w: %s", ErrNoInterfaceFunc, s.name)
	}
	inTbl := s.l.NewTable()
	outTbl := s.l.NewTable()
	if err := s.l.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, inTbl, outTbl); err != nil {
		return &RuntimeError{Phase: "interface", Message: err.Error()}
	}
	inDesc, err := extractInterface(inTbl)
	if err != nil {
		return err
	}
	outDesc, err := extractInterface(outTbl)
	if err != nil {
		return err
	}
	s.in = property.NewTree(owner)
	s.out = property.NewTree(owner)
	if err := s.in.BuildChildren(s.in.Root(), property.ScriptInput, inDesc); err != nil {
		return err
	}
	if err := s.out.BuildChildren(s.out.Root(), property.ScriptOutput, outDesc); err != nil {
		return err
	}
	s.declared = true
	return nil
}

// Name returns the script's identifying name, used as its compile chunk name
// and in RuntimeError/print attribution.
func (s *Script) Name() string { return s.name }

// Source returns the script's original Lua text, used by package serialize,
// which persists every script as source and recompiles it on load.
func (s *Script) Source() string { return s.source }

// In returns the script's declared input tree. Valid only after ExtractInterface.
func (s *Script) In() *property.Tree { return s.in }

// Out returns the script's declared output tree. Valid only after ExtractInterface.
func (s *Script) Out() *property.Tree { return s.out }

// Init calls the script's optional init(IN, OUT) function once, before the
// first Run, allowing one-time setup such as default OUT values. IN and OUT
// are bound exactly as in Run: IN writes fail with ErrWriteToInput and OUT
// writes go through the script-output write path. For the duration of the
// call, reading an undeclared global or writing a new one outside GLOBAL is
// an error, per spec.md §4.2.
func (s *Script) Init() error {
	fn := s.l.GetGlobal("init")
	if fn == lua.LNil {
		return nil
	}
	restore := s.sandboxGlobals()
	defer restore()
	inUD := newBridgeUserData(s.l, &bridge{tree: s.in, output: false}, s.in.Root())
	outUD := newBridgeUserData(s.l, &bridge{tree: s.out, output: true}, s.out.Root())
	if err := s.l.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, inUD, outUD); err != nil {
		return &RuntimeError{Phase: "init", Message: err.Error()}
	}
	return nil
}

// protectedGlobals are the script-defined entry points init() may not read
// around or redefine: interface/run/init are declared once, at script-load
// time, and are immutable afterward (spec.md §4.2, "redefinition of
// interface, run, init is an error").
var protectedGlobals = [...]string{"interface", "run", "init"}

// sandboxGlobals installs the init()-only global policy on the script's
// environment table: an __index/__newindex metatable pair that raises
// ErrGlobalNotDeclared for any read of a name that was never a global and
// any write that would create one, while still resolving interface/run/init
// transparently (they are pulled out of the raw table for the duration of
// the call so that writing to them goes through __newindex instead of
// silently overwriting an existing raw entry). It returns a function that
// lifts the restriction and restores the three entry points.
func (s *Script) sandboxGlobals() func() {
	env := s.l.Env
	stash := make(map[string]lua.LValue, len(protectedGlobals))
	for _, name := range protectedGlobals {
		stash[name] = env.RawGetString(name)
		env.RawSetString(name, lua.LNil)
	}
	mt := s.l.NewTable()
	mt.RawSetString("__index", s.l.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		if v, ok := stash[name]; ok {
			L.Push(v)
			return 1
		}
		L.RaiseError("%s: %s: read of undeclared global %q in init()", ErrGlobalNotDeclared.Error(), s.name, name)
		return 0
	}))
	mt.RawSetString("__newindex", s.l.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		if _, ok := stash[name]; ok {
			L.RaiseError("script: %s: cannot redefine %q in init()", s.name, name)
		} else {
			L.RaiseError("%s: %s: write to %q in init() (use GLOBAL.%s instead)", ErrGlobalNotDeclared.Error(), s.name, name, name)
		}
		return 0
	}))
	s.l.SetMetatable(env, mt)
	return func() {
		s.l.SetMetatable(env, lua.LNil)
		for name, v := range stash {
			env.RawSetString(name, v)
		}
	}
}

// Run calls the script's run(IN, OUT) function, the per-update-pass entry
// point invoked by the scheduler (package graph) whenever the owning node is
// dirty. IN is read-only from Lua; OUT writes apply immediately, via the
// script-output write path, and are left for the scheduler to propagate.
func (s *Script) Run() error {
	fn := s.l.GetGlobal("run")
	if fn == lua.LNil {
		return fmt.Errorf("%w: %s", ErrNoRunFunc, s.name)
	}
	inUD := newBridgeUserData(s.l, &bridge{tree: s.in, output: false}, s.in.Root())
	outUD := newBridgeUserData(s.l, &bridge{tree: s.out, output: true}, s.out.Root())
	if err := s.l.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, inUD, outUD); err != nil {
		return &RuntimeError{Phase: "run", Message: err.Error()}
	}
	return nil
}

// Close releases the script's Lua state. Safe to call more than once.
func (s *Script) Close() {
	if s.l != nil {
		s.l.Close()
		s.l = nil
	}
}
