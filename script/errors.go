package script

import "errors"

var (
	ErrNoInterfaceFunc = errors.New("script: missing interface(IN, OUT) function")
	ErrNoRunFunc       = errors.New("script: missing run(IN, OUT) function")
	ErrBadDeclaration  = errors.New("script: malformed interface declaration")
	ErrWriteToInput    = errors.New("script: cannot assign to an IN property")
	ErrGlobalNotDeclared = errors.New("script: write to undeclared global outside init()")
	ErrModuleCycle     = errors.New("script: module dependency cycle")
	ErrModuleInUse     = errors.New("script: module still referenced by a script")
)

// RuntimeError wraps a Lua runtime failure (a run()/init() call that raised
// an error) with the interpreter's traceback, the shape the engine facade
// surfaces as a ScriptRuntimeError (spec.md §7).
type RuntimeError struct {
	Phase   string // "compile", "load", "init", "interface", or "run"
	Message string
	Stack   string
}

func (e *RuntimeError) Error() string {
	if e.Stack == "" {
		return "script: " + e.Phase + ": " + e.Message
	}
	return "script: " + e.Phase + ": " + e.Message + "\n" + e.Stack
}
