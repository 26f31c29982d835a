package dashboard

import "strings"

// Style is a presentation hint for a subject: a color tag and an icon tag.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// StyleRule applies Style to subjects containing Contains (case-insensitive).
type StyleRule struct {
	Contains string
	Style    Style
}

// StyleMap resolves a subject to a Style. Rules are tried in order and the
// first match wins; Fallback is used when nothing matches.
type StyleMap struct {
	rules    []StyleRule
	fallback Style
}

var defaultFallback = Style{Color: "primary", Icon: "book-open"}

// NewStyleMap copies rules, dropping ones with an empty substring.
func NewStyleMap(rules []StyleRule, fallback Style) StyleMap {
	m := StyleMap{fallback: fallback}
	if m.fallback == (Style{}) {
		m.fallback = defaultFallback
	}
	for _, r := range rules {
		needle := strings.ToLower(strings.TrimSpace(r.Contains))
		if needle == "" {
			continue
		}
		m.rules = append(m.rules, StyleRule{Contains: needle, Style: r.Style})
	}
	return m
}

// DefaultStyleMap groups the department's core subjects by color.
func DefaultStyleMap() StyleMap {
	return NewStyleMap([]StyleRule{
		{Contains: "cloud computing", Style: Style{Color: "primary", Icon: "book-open"}},
		{Contains: "data structures", Style: Style{Color: "primary", Icon: "book-open"}},
		{Contains: "computer networks", Style: Style{Color: "blue", Icon: "beaker"}},
		{Contains: "database", Style: Style{Color: "blue", Icon: "beaker"}},
		{Contains: "programming", Style: Style{Color: "green", Icon: "calculator"}},
		{Contains: "oops", Style: Style{Color: "green", Icon: "calculator"}},
	}, defaultFallback)
}

func (m StyleMap) For(subject string) Style {
	s := strings.ToLower(subject)
	for _, r := range m.rules {
		if strings.Contains(s, r.Contains) {
			return r.Style
		}
	}
	return m.fallback
}
