package resolver

import (
	"strconv"

	"github.com/quickdata/qexpr/pkg/types"
)

// Resolve walks the context along path and returns the value found, or def
// when any step misses. Reads never fail: a malformed path behaves exactly
// like an absent one and yields the default.
func Resolve(ctx types.Value, path string, def types.Value) types.Value {
	segments, err := ParsePath(path)
	if err != nil {
		return def
	}

	current := ctx
	for _, seg := range segments {
		next, ok := step(current, seg)
		if !ok {
			return def
		}
		current = next
	}
	return current
}

// Has reports whether the full path exists in the context. Malformed paths
// report false.
func Has(ctx types.Value, path string) bool {
	segments, err := ParsePath(path)
	if err != nil {
		return false
	}

	current := ctx
	for _, seg := range segments {
		next, ok := step(current, seg)
		if !ok {
			return false
		}
		current = next
	}
	return true
}

// step performs one path step. Negative list indices count from the end.
func step(v types.Value, seg Segment) (types.Value, bool) {
	if seg.IsIndex {
		if v.Type() != types.TypeList {
			return types.Null, false
		}
		items := v.AsList()
		i := seg.Index
		if i < 0 {
			i += len(items)
		}
		if i < 0 || i >= len(items) {
			return types.Null, false
		}
		return items[i], true
	}
	if v.Type() != types.TypeMap {
		return types.Null, false
	}
	return v.AsMap().Get(seg.Key)
}

// Set writes value at path and returns the updated context. The input
// context is never mutated. Intermediate maps are created as needed; a
// list index one past the end appends, further past is an IndexError.
func Set(ctx types.Value, path string, value types.Value) (types.Value, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return types.Null, err
	}
	if len(segments) == 0 {
		return value.Clone(), nil
	}

	root := ctx.Clone()
	if root.Type() != types.TypeMap && !segments[0].IsIndex {
		root = types.NewMap(types.NewOrderedMap())
	}
	return setRec(root, segments, value.Clone())
}

func setRec(current types.Value, segments []Segment, value types.Value) (types.Value, error) {
	seg := segments[0]
	last := len(segments) == 1

	if seg.IsIndex {
		if current.Type() != types.TypeList {
			return types.Null, types.NewTypeMismatchError(
				"cannot index into %s value", current.Type())
		}
		items := current.AsList()
		i := seg.Index
		if i < 0 {
			i += len(items)
		}
		if i == len(items) {
			items = append(items, types.Null)
		}
		if i < 0 || i >= len(items) {
			return types.Null, types.NewIndexError(
				"list index %d out of range (length %d)", seg.Index, len(items))
		}
		if last {
			items[i] = value
			return types.NewList(items), nil
		}
		child := items[i]
		if child.Type() != types.TypeMap && child.Type() != types.TypeList {
			child = containerFor(segments[1])
		}
		updated, err := setRec(child, segments[1:], value)
		if err != nil {
			return types.Null, err
		}
		items[i] = updated
		return types.NewList(items), nil
	}

	if current.Type() != types.TypeMap {
		return types.Null, types.NewTypeMismatchError(
			"cannot set key '%s' on %s value", seg.Key, current.Type())
	}
	m := current.AsMap()
	if last {
		m.Set(seg.Key, value)
		return current, nil
	}
	child, ok := m.Get(seg.Key)
	if !ok || (child.Type() != types.TypeMap && child.Type() != types.TypeList) {
		child = containerFor(segments[1])
	}
	updated, err := setRec(child, segments[1:], value)
	if err != nil {
		return types.Null, err
	}
	m.Set(seg.Key, updated)
	return current, nil
}

// containerFor returns the empty container matching the next segment: a
// list if it indexes, a map otherwise.
func containerFor(seg Segment) types.Value {
	if seg.IsIndex {
		return types.NewList(nil)
	}
	return types.NewMap(types.NewOrderedMap())
}

// Delete removes the value at path and returns the updated context. A
// missing path is a no-op that still returns a fresh copy.
func Delete(ctx types.Value, path string) (types.Value, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return types.Null, err
	}
	if len(segments) == 0 {
		return ctx.Clone(), nil
	}

	root := ctx.Clone()
	deleteRec(root, segments)
	return root, nil
}

func deleteRec(current types.Value, segments []Segment) {
	seg := segments[0]
	last := len(segments) == 1

	if seg.IsIndex {
		if current.Type() != types.TypeList {
			return
		}
		items := current.AsList()
		i := seg.Index
		if i < 0 {
			i += len(items)
		}
		if i < 0 || i >= len(items) {
			return
		}
		if last {
			// Deleting a list element leaves null in place to keep sibling
			// indices stable.
			items[i] = types.Null
			return
		}
		deleteRec(items[i], segments[1:])
		return
	}

	if current.Type() != types.TypeMap {
		return
	}
	m := current.AsMap()
	if last {
		m.Delete(seg.Key)
		return
	}
	child, ok := m.Get(seg.Key)
	if !ok {
		return
	}
	deleteRec(child, segments[1:])
}

// Merge deep-merges overlay into base and returns a new context. Map
// entries merge recursively; any other collision takes the overlay value.
func Merge(base, overlay types.Value) types.Value {
	if base.Type() != types.TypeMap || overlay.Type() != types.TypeMap {
		return overlay.Clone()
	}

	result := base.Clone()
	m := result.AsMap()
	for _, k := range overlay.AsMap().Keys() {
		ov, _ := overlay.AsMap().Get(k)
		if existing, ok := m.Get(k); ok &&
			existing.Type() == types.TypeMap && ov.Type() == types.TypeMap {
			m.Set(k, Merge(existing, ov))
			continue
		}
		m.Set(k, ov.Clone())
	}
	return result
}

// Flatten converts a nested context into a single-level ordered map keyed
// by path strings. List elements flatten under "[i]" keys. Empty maps and
// lists are kept as themselves so Unflatten reconstructs them exactly.
func Flatten(ctx types.Value) *types.OrderedMap {
	out := types.NewOrderedMap()
	flattenInto(out, "", ctx)
	return out
}

func flattenInto(out *types.OrderedMap, prefix string, v types.Value) {
	switch v.Type() {
	case types.TypeMap:
		m := v.AsMap()
		if m.Len() == 0 {
			if prefix != "" {
				out.Set(prefix, v.Clone())
			}
			return
		}
		for _, k := range m.Keys() {
			child, _ := m.Get(k)
			flattenInto(out, joinKey(prefix, k), child)
		}
	case types.TypeList:
		items := v.AsList()
		if len(items) == 0 {
			if prefix != "" {
				out.Set(prefix, v.Clone())
			}
			return
		}
		for i, item := range items {
			flattenInto(out, prefix+"["+strconv.Itoa(i)+"]", item)
		}
	default:
		out.Set(prefix, v)
	}
}

func joinKey(prefix, key string) string {
	seg := Segment{Key: key}
	rendered := BuildPath([]Segment{seg})
	if prefix == "" {
		return rendered
	}
	if len(rendered) > 0 && rendered[0] == '[' {
		return prefix + rendered
	}
	return prefix + "." + rendered
}

// Unflatten rebuilds a nested context from a flat path-keyed map. It is
// the inverse of Flatten for contexts produced by it.
func Unflatten(flat *types.OrderedMap) (types.Value, error) {
	result := types.NewMap(types.NewOrderedMap())
	for _, path := range flat.Keys() {
		val, _ := flat.Get(path)
		updated, err := Set(result, path, val)
		if err != nil {
			return types.Null, err
		}
		result = updated
	}
	return result, nil
}
