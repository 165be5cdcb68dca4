package serialize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phanxgames/logiclang/property"
)

// collectLeaves walks every leaf under id and returns its value keyed by a
// dotted path built from struct field names and bracketed array indices
// ("translation", "viewport.offsetX", "channel[2].from"), the same recursive
// shape original_source's own tree code and this repo's link-propagation
// deep copy both walk.
func collectLeaves(t *property.Tree, id property.ID) map[string]LeafRecord {
	out := make(map[string]LeafRecord)
	collectLeavesInto(t, id, "", out)
	return out
}

func collectLeavesInto(t *property.Tree, id property.ID, prefix string, out map[string]LeafRecord) {
	switch t.Kind(id) {
	case property.Struct:
		for _, c := range t.Children(id) {
			collectLeavesInto(t, c, joinField(prefix, t.Name(c)), out)
		}
	case property.Array:
		for i, c := range t.Children(id) {
			collectLeavesInto(t, c, joinIndex(prefix, i), out)
		}
	default:
		raw := t.GetRawValue(id)
		out[prefix] = LeafRecord{
			Kind: uint8(raw.Kind), I64: raw.I64, F64: raw.F64, B: raw.B, Str: raw.Str, VI: raw.VI, VF: raw.VF,
			HasNewValue: t.HasNewValue(id),
		}
	}
}

// restoreLeaves walks the tree in the same order collectLeaves did and
// writes each leaf back from values, bypassing the normal write-path policy
// (the value being restored isn't a manual write, script output, or link
// propagation — it's the prior state). A path present in the tree but
// missing from values is ErrMissingValue: the saved file doesn't match the
// shape this node reconstructed to.
func restoreLeaves(t *property.Tree, id property.ID, values map[string]LeafRecord) error {
	return restoreLeavesFrom(t, id, "", values)
}

func restoreLeavesFrom(t *property.Tree, id property.ID, prefix string, values map[string]LeafRecord) error {
	switch t.Kind(id) {
	case property.Struct:
		for _, c := range t.Children(id) {
			if err := restoreLeavesFrom(t, c, joinField(prefix, t.Name(c)), values); err != nil {
				return err
			}
		}
		return nil
	case property.Array:
		for i, c := range t.Children(id) {
			if err := restoreLeavesFrom(t, c, joinIndex(prefix, i), values); err != nil {
				return err
			}
		}
		return nil
	default:
		rec, ok := values[prefix]
		if !ok {
			return fmt.Errorf("%w: %q", ErrMissingValue, prefix)
		}
		raw := property.RawValue{Kind: property.Kind(rec.Kind), I64: rec.I64, F64: rec.F64, B: rec.B, Str: rec.Str, VI: rec.VI, VF: rec.VF}
		return t.SetRawValue(id, raw, rec.HasNewValue)
	}
}

func joinField(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func joinIndex(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}

// pathOf computes id's dotted path from root, the inverse of resolvePath,
// used to record a link endpoint.
func pathOf(t *property.Tree, id property.ID) string {
	if id == t.Root() {
		return ""
	}
	parent := t.Parent(id)
	name := t.Name(id)
	var seg string
	if name != "" {
		seg = name
	} else {
		idx := 0
		for i, c := range t.Children(parent) {
			if c == id {
				idx = i
				break
			}
		}
		seg = fmt.Sprintf("[%d]", idx)
	}
	parentPath := pathOf(t, parent)
	if parentPath == "" {
		return seg
	}
	if strings.HasPrefix(seg, "[") {
		return parentPath + seg
	}
	return parentPath + "." + seg
}

// resolvePath walks path from t's root, used to resolve a saved link
// endpoint against the node's already-rebuilt input tree.
func resolvePath(t *property.Tree, path string) (property.ID, bool) {
	id := t.Root()
	if path == "" {
		return id, true
	}
	i := 0
	for i < len(path) {
		switch {
		case path[i] == '.':
			i++
		case path[i] == '[':
			j := strings.IndexByte(path[i:], ']')
			if j < 0 {
				return 0, false
			}
			idx, err := strconv.Atoi(path[i+1 : i+j])
			if err != nil {
				return 0, false
			}
			cid, ok := t.GetChildByIndex(id, idx)
			if !ok {
				return 0, false
			}
			id = cid
			i += j + 1
		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			cid, ok := t.GetChildByName(id, path[i:j])
			if !ok {
				return 0, false
			}
			id = cid
			i = j
		}
	}
	return id, true
}
