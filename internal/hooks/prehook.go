package hooks

import (
	"fmt"
	"regexp"
	"strings"

	oerrors "github.com/opmodel/stamp/internal/errors"
	"github.com/opmodel/stamp/internal/resolve"
)

// identifierRegex is the shape of a Python-style package identifier.
var identifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PreHook validates a resolved context before anything is written.
type PreHook struct {
	validation Validation
}

// NewPreHook returns the gate configured by m.
func NewPreHook(m *Manifest) *PreHook {
	return &PreHook{validation: m.Validation}
}

// Run accepts or rejects rc. It reads the context only and never touches disk.
// Rejections are InvalidContext errors naming the key and the reason.
func (h *PreHook) Run(rc resolve.RenderContext) error {
	v := h.validation

	for _, key := range v.Identifiers {
		val := rc.Value(key)
		if !identifierRegex.MatchString(val) {
			return oerrors.NewInvalidContextError(key, val,
				"is not a valid identifier (lowercase letters, digits and underscores, not starting with a digit)")
		}
	}

	for _, key := range v.ReservedKeys() {
		val := rc.Value(key)
		for _, name := range v.Reserved[key] {
			if strings.EqualFold(val, name) {
				return oerrors.NewInvalidContextError(key, val, fmt.Sprintf("is reserved (%q)", name))
			}
		}
	}

	for _, key := range v.PatternKeys() {
		val := rc.Value(key)
		re := v.Patterns[key]
		if !re.MatchString(val) {
			return oerrors.NewInvalidContextError(key, val, fmt.Sprintf("does not match %s", re.String()))
		}
	}

	return nil
}
