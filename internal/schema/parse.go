package schema

import (
	"fmt"
	"path"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	oerrors "github.com/opmodel/stamp/internal/errors"
)

// Schema file names looked up in a template directory.
const (
	FileYAML = "schema.yaml"
	FileJSON = "schema.json"
)

// Private top-level keys of a schema document.
const (
	keyDerived           = "_derived"
	keyCopyWithoutRender = "_copy_without_render"
)

// Parse decodes a schema document. JSON documents (by .json suffix) are
// decoded token by token into the same node tree a YAML document produces.
func Parse(data []byte, source string) (*Schema, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "schema could not be parsed",
			Location: source,
			Cause:    oerrors.ErrValidation,
			Err:      err,
		}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, oerrors.NewValidationError("schema document is empty", source, "", "")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, oerrors.NewValidationError("schema must be a mapping of variable names", source, "", "")
	}

	var (
		entries []Entry
		derived []Derived
		globs   []string
	)

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		key := keyNode.Value

		switch key {
		case keyDerived:
			d, err := parseDerived(valNode, source)
			if err != nil {
				return nil, err
			}
			derived = d
			continue
		case keyCopyWithoutRender:
			g, err := scalarList(valNode)
			if err != nil {
				return nil, oerrors.NewValidationError(err.Error(), source, key, "")
			}
			globs = g
			continue
		}

		if strings.HasPrefix(key, "_") {
			return nil, oerrors.NewValidationError(fmt.Sprintf("unknown private key %q", key), source, key,
				fmt.Sprintf("Only %s and %s may start with an underscore.", keyDerived, keyCopyWithoutRender))
		}

		e, err := parseEntry(key, valNode)
		if err != nil {
			return nil, oerrors.NewValidationError(err.Error(), source, key, "")
		}
		entries = append(entries, e)
	}

	return New(source, entries, derived, globs)
}

func parseDocument(data []byte, source string) (*yaml.Node, error) {
	if strings.HasSuffix(source, ".json") {
		if !json.Valid(data) {
			return nil, fmt.Errorf("not valid JSON")
		}
		return decodeJSON(data)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// parseEntry decodes one variable. A scalar is free text with that default,
// a sequence is a choice list defaulting to its first element, and a mapping
// carries choices, default and help explicitly.
func parseEntry(key string, n *yaml.Node) (Entry, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		e := Entry{Key: key, Kind: FreeText}
		if n.Tag != "!!null" {
			e.Default = n.Value
		}
		return e, nil

	case yaml.SequenceNode:
		choices, err := scalarList(n)
		if err != nil {
			return Entry{}, err
		}
		e := Entry{Key: key, Kind: SingleChoice, Choices: choices}
		if len(choices) > 0 {
			e.Default = choices[0]
		}
		return e, nil

	case yaml.MappingNode:
		e := Entry{Key: key, Kind: FreeText}
		hasDefault := false
		for i := 0; i+1 < len(n.Content); i += 2 {
			field, val := n.Content[i].Value, n.Content[i+1]
			switch field {
			case "choices":
				choices, err := scalarList(val)
				if err != nil {
					return Entry{}, err
				}
				e.Kind = SingleChoice
				e.Choices = choices
			case "default":
				if val.Kind != yaml.ScalarNode {
					return Entry{}, fmt.Errorf("default must be a scalar")
				}
				if val.Tag != "!!null" {
					e.Default = val.Value
				}
				hasDefault = true
			case "help":
				e.Help = val.Value
			default:
				return Entry{}, fmt.Errorf("unknown field %q", field)
			}
		}
		if e.Kind == SingleChoice && !hasDefault && len(e.Choices) > 0 {
			e.Default = e.Choices[0]
		}
		return e, nil

	default:
		return Entry{}, fmt.Errorf("unsupported value")
	}
}

func parseDerived(n *yaml.Node, source string) ([]Derived, error) {
	if n.Kind != yaml.MappingNode {
		return nil, oerrors.NewValidationError("_derived must be a mapping of name to expression", source, keyDerived, "")
	}
	var out []Derived
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, oerrors.NewValidationError("derived expression must be a string", source, k.Value, "")
		}
		out = append(out, Derived{Key: k.Value, Expr: v.Value})
	}
	return out, nil
}

func scalarList(n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list")
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("list items must be scalars")
		}
		out = append(out, item.Value)
	}
	return out, nil
}

// validGlob reports whether pattern is well formed for path.Match.
func validGlob(pattern string) bool {
	if pattern == "" {
		return false
	}
	_, err := path.Match(pattern, "")
	return err == nil
}

// MatchesCopyWithoutRender reports whether a slash-separated relative path
// matches one of the verbatim-copy patterns, either in full or by base name.
func (s *Schema) MatchesCopyWithoutRender(rel string) bool {
	base := path.Base(rel)
	for _, pattern := range s.copyWithoutRender {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
		// "dir/*" style patterns also cover everything below dir.
		if prefix, found := strings.CutSuffix(pattern, "/*"); found && strings.HasPrefix(rel, prefix+"/") {
			return true
		}
	}
	return false
}
