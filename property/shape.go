package property

// ShapeEqual reports whether aID (in tree a) and bID (in tree b) have the
// same Kind, and — for Struct/Array — the same children shape recursively
// (field names and order must match for Struct; element kind must match for
// Array). Used by package link to validate a link's type-equality invariant
// (spec.md §3: "Source and target types are equal (including struct/array
// shape)").
func ShapeEqual(a *Tree, aID ID, b *Tree, bID ID) bool {
	ar, br := a.rec(aID), b.rec(bID)
	if ar == nil || br == nil {
		return false
	}
	if ar.kind != br.kind {
		return false
	}
	if ar.kind != Struct && ar.kind != Array {
		return true
	}
	if len(ar.children) != len(br.children) {
		return false
	}
	for i := range ar.children {
		ac, bc := ar.children[i], br.children[i]
		if ar.kind == Struct && a.records[ac].name != b.records[bc].name {
			return false
		}
		if !ShapeEqual(a, ac, b, bc) {
			return false
		}
	}
	return true
}
