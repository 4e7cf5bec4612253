// Package resolve turns a schema and a set of answers into the immutable
// RenderContext used for rendering, and sequences interactive prompts.
package resolve

import (
	"maps"
	"slices"
)

// RenderContext is the fully resolved variable mapping for one generation:
// primary answers followed by derived values. The zero value is empty.
// A RenderContext never exposes its internal storage.
type RenderContext struct {
	keys   []string
	values map[string]string
}

// NewContext builds a context from ordered keys and their values.
// Keys absent from values map to the empty string.
func NewContext(keys []string, values map[string]string) RenderContext {
	rc := RenderContext{
		keys:   slices.Clone(keys),
		values: make(map[string]string, len(keys)),
	}
	for _, k := range keys {
		rc.values[k] = values[k]
	}
	return rc
}

// Get returns the value for key.
func (rc RenderContext) Get(key string) (string, bool) {
	v, ok := rc.values[key]
	return v, ok
}

// Value returns the value for key or the empty string.
func (rc RenderContext) Value(key string) string {
	return rc.values[key]
}

// Len returns the number of keys.
func (rc RenderContext) Len() int {
	return len(rc.keys)
}

// Keys returns the keys in resolution order.
func (rc RenderContext) Keys() []string {
	return slices.Clone(rc.keys)
}

// Values returns a copy of the mapping, suitable as template data.
func (rc RenderContext) Values() map[string]string {
	return maps.Clone(rc.values)
}

// With returns a new context extended with extra values appended in sorted
// key order. Existing keys are not overridden.
func (rc RenderContext) With(extra map[string]string) RenderContext {
	keys := rc.Keys()
	values := rc.Values()
	if values == nil {
		values = make(map[string]string, len(extra))
	}
	for _, k := range slices.Sorted(maps.Keys(extra)) {
		if _, exists := values[k]; exists {
			continue
		}
		keys = append(keys, k)
		values[k] = extra[k]
	}
	return NewContext(keys, values)
}

// Equal reports whether both contexts hold the same keys in the same order
// with the same values.
func (rc RenderContext) Equal(other RenderContext) bool {
	return slices.Equal(rc.keys, other.keys) && maps.Equal(rc.values, other.values)
}
