// Package output provides terminal output utilities for the stamp CLI.
package output

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"sigs.k8s.io/yaml"
)

// Format specifies the output format.
type Format string

const (
	// FormatTable outputs a human-readable table.
	FormatTable Format = "table"

	// FormatJSON outputs in JSON format.
	FormatJSON Format = "json"

	// FormatYAML outputs in YAML format.
	FormatYAML Format = "yaml"
)

// String returns the string representation of the output format.
func (f Format) String() string {
	return string(f)
}

// IsValid checks if the output format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// ParseFormat parses a string into a Format. Empty means table; yml is
// accepted for yaml.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	switch f {
	case "":
		return FormatTable, nil
	case "yml":
		return FormatYAML, nil
	}
	if !f.IsValid() {
		return "", fmt.Errorf("unknown output format %q; valid formats: %s", s, strings.Join(ValidFormats(), ", "))
	}
	return f, nil
}

// ValidFormats returns a slice of valid output format strings.
func ValidFormats() []string {
	return []string{"table", "json", "yaml"}
}

// WriteStructured encodes v as JSON or YAML. Field names come from json tags in both cases.
func WriteStructured(w io.Writer, v any, format Format) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("format %s not supported for structured output", format)
	}
}
