package engine

import (
	"strings"
	"text/template"
	"unicode"
)

// Funcs returns the functions available to templates. Functions taking a
// subject put it last so they read naturally in pipelines:
//
//	{{ .project_name | replace " " "-" | lower }}
func Funcs() template.FuncMap {
	return template.FuncMap{
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"title":     Title,
		"trim":      strings.TrimSpace,
		"replace":   func(old, new, s string) string { return strings.ReplaceAll(s, old, new) },
		"slugify":   Slugify,
		"snake":     Snake,
		"kebab":     Kebab,
		"pascal":    Pascal,
		"contains":  func(substr, s string) bool { return strings.Contains(s, substr) },
		"hasPrefix": func(prefix, s string) bool { return strings.HasPrefix(s, prefix) },
		"hasSuffix": func(suffix, s string) bool { return strings.HasSuffix(s, suffix) },
	}
}

// words splits s at any non-alphanumeric rune and at lower-to-upper case changes.
// Examples: "my-app" -> [my app], "MyService v2" -> [My Service v2]
func words(s string) []string {
	var (
		out  []string
		cur  []rune
		prev rune
	)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return out
}

func joinLower(s, sep string) string {
	w := words(s)
	for i := range w {
		w[i] = strings.ToLower(w[i])
	}
	return strings.Join(w, sep)
}

// Snake converts s to snake_case: "My Project" -> "my_project".
func Snake(s string) string {
	return joinLower(s, "_")
}

// Kebab converts s to kebab-case: "My Project" -> "my-project".
func Kebab(s string) string {
	return joinLower(s, "-")
}

// Slugify converts s to a URL and directory friendly slug.
func Slugify(s string) string {
	return Kebab(s)
}

// Pascal converts s to PascalCase.
// Examples: "my-app" -> "MyApp", "my_service" -> "MyService"
func Pascal(s string) string {
	var result strings.Builder
	for _, w := range words(s) {
		runes := []rune(w)
		result.WriteRune(unicode.ToUpper(runes[0]))
		result.WriteString(string(runes[1:]))
	}
	return result.String()
}

// Title upper-cases the first letter of every space separated word.
func Title(s string) string {
	var result strings.Builder
	capitalizeNext := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			capitalizeNext = true
			result.WriteRune(r)
			continue
		}
		if capitalizeNext {
			result.WriteRune(unicode.ToUpper(r))
			capitalizeNext = false
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
