// Package flatten converts nested JSON-style objects into flat mappings
// keyed by dot-joined paths. It is used as a narrow adapter between the raw
// report rows returned by the merchant endpoints and the typed records the
// reconciler consumes: a nested row like
//
//	{"priceCompetitivenessProductView": {"offerId": "O1", "price": {"amountMicros": "990000"}}}
//
// flattens to
//
//	{"priceCompetitivenessProductView.offerId": "O1",
//	 "priceCompetitivenessProductView.price.amountMicros": "990000"}
//
// Maps are descended recursively with no depth limit. Arrays and scalars are
// leaves and are carried over as-is at their computed path.
package flatten

import "strings"

// Flatten returns a flat dotted-path view of value. When value is a
// map[string]any the result is a new map[string]any; any other value,
// including arrays, is returned unchanged since there is no path to assign.
// The input is never mutated.
func Flatten(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	return Map(m)
}

// Map flattens a nested map into a flat map keyed by dot-joined paths.
// An empty map flattens to an empty map.
func Map(m map[string]any) map[string]any {
	flat := make(map[string]any, len(m))
	walk(flat, "", m)
	return flat
}

func walk(flat map[string]any, prefix string, m map[string]any) {
	for key, value := range m {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			walk(flat, path, child)
			continue
		}
		flat[path] = value
	}
}

// Nest is the inverse of Map for array-free inputs: dotted keys are split
// into path segments and rebuilt into a nested map. When a scalar and a
// nested object compete for the same segment the scalar is dropped in favor
// of the object.
func Nest(flat map[string]any) map[string]any {
	nested := make(map[string]any, len(flat))
	for path, value := range flat {
		segments := strings.Split(path, ".")
		node := nested
		for _, segment := range segments[:len(segments)-1] {
			child, ok := node[segment].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[segment] = child
			}
			node = child
		}
		leaf := segments[len(segments)-1]
		if _, taken := node[leaf].(map[string]any); !taken {
			node[leaf] = value
		}
	}
	return nested
}
