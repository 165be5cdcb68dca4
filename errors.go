package logiclang

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories the façade reports,
// mirrored from spec.md §7.
type ErrorKind int

const (
	KindParseError ErrorKind = iota
	KindInterfaceError
	KindRuntimeError
	KindTypeMismatch
	KindShapeMismatch
	KindUnknownChild
	KindSemanticsViolation
	KindLinkExists
	KindNoSuchLink
	KindCycle
	KindForeignObject
	KindRendererRejected
	KindSerializationError
	KindDependencyInUse
)

func (k ErrorKind) String() string {
	switch k {
	case KindParseError:
		return "ParseError"
	case KindInterfaceError:
		return "InterfaceError"
	case KindRuntimeError:
		return "RuntimeError"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindShapeMismatch:
		return "ShapeMismatch"
	case KindUnknownChild:
		return "UnknownChild"
	case KindSemanticsViolation:
		return "SemanticsViolation"
	case KindLinkExists:
		return "LinkExists"
	case KindNoSuchLink:
		return "NoSuchLink"
	case KindCycle:
		return "Cycle"
	case KindForeignObject:
		return "ForeignObject"
	case KindRendererRejected:
		return "RendererRejected"
	case KindSerializationError:
		return "SerializationError"
	case KindDependencyInUse:
		return "DependencyInUse"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// EngineError is one entry in the façade's error buffer (spec.md §4.6/§7).
type EngineError struct {
	Kind    ErrorKind
	Node    NodeID
	Message string
	Stack   string
}

func (e *EngineError) Error() string {
	if e.Stack == "" {
		return fmt.Sprintf("%s: node %d: %s", e.Kind, e.Node, e.Message)
	}
	return fmt.Sprintf("%s: node %d: %s\n%s", e.Kind, e.Node, e.Message, e.Stack)
}

var errForeignObject = errors.New("logiclang: object does not belong to this engine")
