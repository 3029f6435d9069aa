package schema

// Parsed output values are JSON-shaped: map[string]any for objects, []any for
// lists, and scalars elsewhere. The helpers below address into such values by
// Path and write copies along the touched spine only, so untouched subtrees
// stay shared with the input.

// ValueAt returns the value addressed by path, and whether it exists.
func ValueAt(v any, path Path) (any, bool) {
	cur := v
	for _, e := range path {
		if e.IsIndex() {
			list, ok := cur.([]any)
			if !ok || e.Index < 0 || e.Index >= len(list) {
				return nil, false
			}
			cur = list[e.Index]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[e.Key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetAt returns a copy of v with the value at path replaced. Containers on
// the path are shallow-copied; everything else is shared. Setting the root
// path returns the new value itself. Missing intermediate containers are not
// created: the original value is returned unchanged.
func SetAt(v any, path Path, newValue any) any {
	if len(path) == 0 {
		return newValue
	}
	e := path[0]
	if e.IsIndex() {
		list, ok := v.([]any)
		if !ok || e.Index < 0 || e.Index >= len(list) {
			return v
		}
		out := make([]any, len(list))
		copy(out, list)
		out[e.Index] = SetAt(list[e.Index], path[1:], newValue)
		return out
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	child, ok := obj[e.Key]
	if !ok {
		return v
	}
	out := make(map[string]any, len(obj))
	for k, val := range obj {
		out[k] = val
	}
	out[e.Key] = SetAt(child, path[1:], newValue)
	return out
}

// DeleteAt returns a copy of v with the value at path removed: object fields
// are deleted, list elements are spliced out. Deleting the root or a missing
// path returns the original value unchanged.
func DeleteAt(v any, path Path) any {
	if len(path) == 0 {
		return v
	}
	e := path[0]
	if e.IsIndex() {
		list, ok := v.([]any)
		if !ok || e.Index < 0 || e.Index >= len(list) {
			return v
		}
		if len(path) == 1 {
			out := make([]any, 0, len(list)-1)
			out = append(out, list[:e.Index]...)
			return append(out, list[e.Index+1:]...)
		}
		out := make([]any, len(list))
		copy(out, list)
		out[e.Index] = DeleteAt(list[e.Index], path[1:])
		return out
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return v
	}
	child, ok := obj[e.Key]
	if !ok {
		return v
	}
	out := make(map[string]any, len(obj))
	for k, val := range obj {
		out[k] = val
	}
	if len(path) == 1 {
		delete(out, e.Key)
		return out
	}
	out[e.Key] = DeleteAt(child, path[1:])
	return out
}

// Graft copies the values at the given paths from overlay into base,
// returning the merged value. Paths absent from the overlay are left alone.
// Used to merge a reask response, which carries only the failing subtrees,
// onto the previous iteration's corrected output.
func Graft(base, overlay any, paths []Path) any {
	merged := base
	for _, p := range paths {
		if len(p) == 0 {
			return overlay
		}
		if v, ok := ValueAt(overlay, p); ok {
			merged = SetAt(merged, p, v)
		}
	}
	return merged
}
