package property

import "errors"

// Sentinel errors identifying the property-level failure kinds from spec.md
// §7. The engine package (C6) maps these onto the closed ErrorKind set; here
// they are plain stdlib sentinels, wrapped with fmt.Errorf("...: %w", ...)
// at each call site — the same idiom the teacher uses for its own errors
// (willow's testrunner.go: fmt.Errorf("parse test script: %w", err)) rather
// than github.com/pkg/errors.
var (
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrUnknownChild       = errors.New("unknown child")
	ErrSemanticsViolation = errors.New("semantics violation")
	ErrInterfaceDuplicate = errors.New("duplicate field")
)
