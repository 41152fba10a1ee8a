package panos

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pastats/pastats/internal/errors"
)

// Schema tells the normalizer which fields of a payload are repeatable
// and which are documented counters. The XML source encodes a field with
// one child identically to a scalar, so cardinality cannot be sniffed
// from the data; each collector declares it instead.
type Schema struct {
	// Repeatable lists dot-separated paths (relative to the payload
	// root) that must always materialize as sequences: an absent node
	// becomes an empty sequence, a lone node a one-element sequence,
	// and multiple nodes pass through in source order. A path segment
	// that lands on a sequence applies the remainder to every element.
	Repeatable []string

	// Counters lists dot-separated paths of documented numeric fields.
	// A counter that survives normalization as a non-numeric value is a
	// malformed response, never a silent zero.
	Counters []string
}

// Normalize converts a decoded payload into its canonical form: numeric
// strings coerced losslessly, repeatable fields forced to sequences,
// counters verified numeric. Pure function; the input map is not
// modified.
func Normalize(payload map[string]any, schema Schema) (map[string]any, error) {
	record, _ := coerceValue(payload).(map[string]any)
	if record == nil {
		record = make(map[string]any)
	}

	for _, path := range schema.Repeatable {
		forceSequence(record, strings.Split(path, "."))
	}

	for _, path := range schema.Counters {
		if err := checkCounter(record, strings.Split(path, "."), path); err != nil {
			return nil, err
		}
	}

	return record, nil
}

// coerceValue rebuilds the tree, converting string leaves to int64,
// float64, or bool when the conversion is lossless. Anything else keeps
// its original string.
func coerceValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = coerceValue(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = coerceValue(child)
		}
		return out
	case string:
		return coerceScalar(val)
	default:
		return v
	}
}

// coerceScalar applies the int → float → bool ladder to one string.
func coerceScalar(s string) any {
	if isIntegerString(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	if isNumericString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// isIntegerString matches an optional sign followed by digits only.
func isIntegerString(s string) bool {
	if s == "" {
		return false
	}
	body := strings.TrimPrefix(s, "-")
	if body == "" {
		return false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isNumericString guards ParseFloat against accepting "inf"/"NaN"/hex
// spellings that the API never legitimately emits.
func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	dot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '-' && i == 0:
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return dot
}

// forceSequence walks a repeatable path and materializes its leaf as a
// sequence at every matching location.
func forceSequence(node map[string]any, path []string) {
	key := path[0]

	if len(path) == 1 {
		switch v := node[key].(type) {
		case nil:
			node[key] = []any{}
		case []any:
			// Already a sequence; source order preserved.
		default:
			node[key] = []any{v}
		}
		return
	}

	switch child := node[key].(type) {
	case map[string]any:
		forceSequence(child, path[1:])
	case []any:
		for _, elem := range child {
			if m, ok := elem.(map[string]any); ok {
				forceSequence(m, path[1:])
			}
		}
	}
}

// checkCounter verifies that every value present at a counter path is
// numeric after coercion. Absent nodes are fine; a firewall without
// the feature simply omits the subtree.
func checkCounter(node map[string]any, path []string, full string) error {
	key := path[0]
	child, ok := node[key]
	if !ok {
		return nil
	}

	if len(path) == 1 {
		return verifyNumericLeaf(child, full)
	}

	switch c := child.(type) {
	case map[string]any:
		return checkCounter(c, path[1:], full)
	case []any:
		for _, elem := range c {
			if m, ok := elem.(map[string]any); ok {
				if err := checkCounter(m, path[1:], full); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// verifyNumericLeaf accepts ints, floats, and sequences thereof.
func verifyNumericLeaf(v any, path string) error {
	switch val := v.(type) {
	case int64, float64:
		return nil
	case []any:
		for _, elem := range val {
			if err := verifyNumericLeaf(elem, path); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.New(errors.ErrMalformed,
			fmt.Sprintf("Counter field %q is not numeric (got %T %v)", path, v, v),
			"The firewall returned an unexpected payload shape for a documented counter.")
	}
}
