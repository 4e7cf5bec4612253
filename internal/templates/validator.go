package templates

import (
	"path"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/opmodel/stamp/internal/engine"
	"github.com/opmodel/stamp/internal/resolve"
)

// Lint checks every path segment and text file of the template statically:
// templates must parse and may only reference schema variables. All problems
// are returned as one aggregate error.
//
// Copy-without-render patterns are matched against paths rendered with the
// schema defaults, as they are during generation.
func (t *Template) Lint() error {
	eng := engine.New()
	keys := t.Schema.AllKeys()

	var defaults map[string]string
	if rc, err := resolve.Resolve(t.Schema, nil); err == nil {
		defaults = rc.Values()
	}

	var errs []error
	var visit func(n *TemplateNode, rel string)
	visit = func(n *TemplateNode, rel string) {
		location := n.Path
		if location == "" {
			location = n.Name
		}
		if err := eng.Check(location, n.Name, keys); err != nil {
			errs = append(errs, err)
		}
		if !n.Dir && !n.Binary && !t.Schema.MatchesCopyWithoutRender(rel) {
			if err := eng.Check(location, string(n.Content), keys); err != nil {
				errs = append(errs, err)
			}
		}
		for _, child := range n.Children {
			visit(child, path.Join(rel, renderedName(eng, child, defaults)))
		}
	}
	visit(t.Root, "")
	return utilerrors.NewAggregate(errs)
}

// renderedName renders a node name, falling back to the raw name.
func renderedName(eng *engine.Engine, n *TemplateNode, data map[string]string) string {
	if data == nil {
		return n.Name
	}
	name, err := eng.Render(n.Path, n.Name, data)
	if err != nil || name == "" {
		return n.Name
	}
	return name
}
