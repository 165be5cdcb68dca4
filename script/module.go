package script

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Module is a reusable Lua source fragment loaded with require() from inside
// a Script, matching original_source's LuaModule: a module returns a table
// of values (functions, constants) that a requiring script can read but that
// carries no IN/OUT property interface of its own.
type Module struct {
	name   string
	source string
	proto  *lua.FunctionProto
	refs   int // scripts currently requiring this module, per destroy-while-referenced rejection
}

// NewModule compiles a module's source without running it.
func NewModule(name, source string) (*Module, error) {
	chunk, err := lua.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, &RuntimeError{Phase: "compile", Message: err.Error()}
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, &RuntimeError{Phase: "compile", Message: err.Error()}
	}
	return &Module{name: name, source: source, proto: proto}, nil
}

// Name returns the module's require() key.
func (m *Module) Name() string { return m.name }

// Source returns the module's original Lua text, used by package serialize
// to persist and later recompile the module.
func (m *Module) Source() string { return m.source }

// InUse reports whether any script currently has this module in its
// require chain; destroying an in-use module is rejected (ErrModuleInUse).
func (m *Module) InUse() bool { return m.refs > 0 }

// ModuleResolver supplies modules by name for require(), and tracks the
// require chain of the script currently loading to detect cycles
// (original_source rejects module dependency cycles at require() time
// rather than only at the eventual stack-overflow).
type ModuleResolver struct {
	modules map[string]*Module
	loading map[string]bool // modules currently mid-require, for cycle detection
	chain   []string
}

// NewModuleResolver returns an empty resolver.
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{modules: make(map[string]*Module), loading: make(map[string]bool)}
}

// Add registers a module under its name, replacing any existing module with
// the same name. Callers should check InUse before replacing a module a
// script already depends on.
func (r *ModuleResolver) Add(m *Module) {
	r.modules[m.name] = m
}

// Remove unregisters a module by name, rejecting removal while it is
// referenced by any script's require chain.
func (r *ModuleResolver) Remove(name string) error {
	m, ok := r.modules[name]
	if !ok {
		return fmt.Errorf("script: no such module %q", name)
	}
	if m.InUse() {
		return fmt.Errorf("%w: %s", ErrModuleInUse, name)
	}
	delete(r.modules, name)
	return nil
}

// Modules returns every registered module, used by package serialize to
// persist the full module set.
func (r *ModuleResolver) Modules() []*Module {
	out := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m)
	}
	return out
}

// Attach installs a require global on l that resolves through r, tracking
// the load chain so a module that (transitively) requires itself fails with
// ErrModuleCycle instead of recursing forever.
func (r *ModuleResolver) Attach(l *lua.LState) {
	l.SetGlobal("require", l.NewFunction(func(l *lua.LState) int {
		name := l.CheckString(1)
		mod, ok := r.modules[name]
		if !ok {
			l.RaiseError("script: no such module %q", name)
		}
		if r.loading[name] {
			l.RaiseError("%s: %s", ErrModuleCycle.Error(), strings.Join(append(r.chain, name), " -> "))
		}
		r.loading[name] = true
		r.chain = append(r.chain, name)
		mod.refs++
		defer func() {
			r.chain = r.chain[:len(r.chain)-1]
			delete(r.loading, name)
		}()

		fn := l.NewFunctionFromProto(mod.proto)
		l.Push(fn)
		if err := l.PCall(0, 1, nil); err != nil {
			l.RaiseError("script: module %q: %s", name, err.Error())
		}
		return 1
	}))
}
