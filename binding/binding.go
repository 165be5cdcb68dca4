// Package binding implements binding nodes (C3): logic nodes whose sole
// purpose is to mirror a subset of their input properties onto an external
// renderer object reachable through the `renderer` package's interfaces.
// Bindings never compute — they only forward has_new_value inputs, in
// declaration order, applying the update contract of spec.md §4.3.
package binding

import (
	"errors"
	"fmt"

	"github.com/phanxgames/logiclang/property"
)

// ErrRendererRejected wraps an error returned by a renderer setter, surfaced
// to the façade as the RendererRejected error kind (spec.md §7).
var ErrRendererRejected = errors.New("binding: renderer rejected value")

// applyDirtyLeaves walks id's subtree in declaration order, calling apply on
// every leaf (scalar or vector; Struct/Array are never leaves) whose
// has_new_value is set, clearing the flag after a successful apply. It stops
// at the first error, leaving any leaves after it untouched — the "partial
// application on rejection" rule spec.md §4.3 explicitly permits.
func applyDirtyLeaves(tree *property.Tree, id property.ID, apply func(id property.ID) error) error {
	switch tree.Kind(id) {
	case property.Struct, property.Array:
		for _, c := range tree.Children(id) {
			if err := applyDirtyLeaves(tree, c, apply); err != nil {
				return err
			}
		}
		return nil
	default:
		if !tree.HasNewValue(id) {
			return nil
		}
		if err := apply(id); err != nil {
			return err
		}
		tree.ClearNewValue(id)
		return nil
	}
}

func rendererErr(field string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrRendererRejected, field, err)
}
