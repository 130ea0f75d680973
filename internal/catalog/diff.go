package catalog

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"atelier/internal/models"
)

// FieldDiff is one leaf path compared between a base and a proposed snapshot.
type FieldDiff struct {
	Path           string `json:"path"`
	CurrentValue   any    `json:"currentValue"`
	RequestedValue any    `json:"requestedValue"`
	Changed        bool   `json:"changed"`
}

// Diff flattens both objects into dotted/indexed leaf paths and reports every
// path from either side in lexicographic order. It is an audit aid only and
// never drives a merge.
func Diff(base, proposed map[string]any) []FieldDiff {
	left := map[string]any{}
	right := map[string]any{}
	if base != nil {
		flatten("", base, left)
	}
	if proposed != nil {
		flatten("", proposed, right)
	}

	paths := make([]string, 0, len(left)+len(right))
	for p := range left {
		paths = append(paths, p)
	}
	for p := range right {
		if _, ok := left[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	out := make([]FieldDiff, 0, len(paths))
	for _, p := range paths {
		cur, req := left[p], right[p]
		out = append(out, FieldDiff{
			Path:           p,
			CurrentValue:   cur,
			RequestedValue: req,
			Changed:        !canonicalEqual(cur, req),
		})
	}
	return out
}

// DiffProducts compares a base snapshot (nil for a create) with a proposal.
func DiffProducts(base *models.Product, proposed models.Product) []FieldDiff {
	var left map[string]any
	if base != nil {
		left = ProductToMap(*base)
	}
	return Diff(left, ProductToMap(proposed))
}

// ChangedOnly filters diffs down to entries whose values differ.
func ChangedOnly(diffs []FieldDiff) []FieldDiff {
	out := make([]FieldDiff, 0, len(diffs))
	for _, d := range diffs {
		if d.Changed {
			out = append(out, d)
		}
	}
	return out
}

func flatten(prefix string, v any, out map[string]any) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			if prefix != "" {
				out[prefix] = map[string]any{}
			}
			return
		}
		for k, child := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flatten(key, child, out)
		}
	case []any:
		if len(t) == 0 {
			if prefix != "" {
				out[prefix] = []any{}
			}
			return
		}
		for i, child := range t {
			flatten(prefix+"["+strconv.Itoa(i)+"]", child, out)
		}
	default:
		if prefix != "" {
			out[prefix] = t
		}
	}
}

// canonicalEqual compares two values by their JSON encoding; encoding/json
// sorts map keys, so equal structures always serialize identically.
func canonicalEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
