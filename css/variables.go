package css

import (
	"strings"

	"regraph/common"
)

// rootSelectors declare document level custom properties.
var rootSelectors = []string{":root", "html"}

// maxVarDepth limits var() reference chains.
const maxVarDepth = 8

// Variables resolves custom properties of document root as they apply in the
// given theme mode. It satisfies theme.ColorProvider.
type Variables struct {
	vars map[string]string
}

// NewVariables collects root custom properties. In dark mode properties of
// darkSelector and of @media blocks preferring dark color scheme override
// light ones.
func NewVariables(sheet *Stylesheet, mode common.ThemeMode, darkSelector string) *Variables {
	dark := mode == common.ThemeModeDark
	accept := func(media string) bool {
		media = strings.ToLower(strings.Join(strings.Fields(media), ""))
		switch {
		case strings.Contains(media, "prefers-color-scheme:dark"):
			return dark
		case strings.Contains(media, "prefers-color-scheme:light"):
			return !dark
		}
		return false
	}

	vars := make(map[string]string)
	if sheet != nil {
		for _, sel := range rootSelectors {
			for k, v := range sheet.CustomProperties(sel, accept) {
				vars[k] = v
			}
		}
		if dark && darkSelector != "" {
			for k, v := range sheet.CustomProperties(darkSelector, accept) {
				vars[k] = v
			}
		}
	}
	return &Variables{vars: vars}
}

// Resolve returns value of custom property, name may be given with or
// without leading dashes. References to other properties are substituted.
func (v *Variables) Resolve(name string) (string, bool) {
	return v.resolve(propertyName(name), 0)
}

func (v *Variables) resolve(name string, depth int) (string, bool) {
	value, ok := v.vars[name]
	if !ok || depth > maxVarDepth {
		return "", false
	}
	for {
		start := strings.Index(value, "var(")
		if start < 0 {
			return value, true
		}
		end := matchingParen(value, start+len("var"))
		if end < 0 {
			return "", false
		}
		ref, fallback, hasFallback := strings.Cut(value[start+len("var("):end], ",")
		sub, found := v.resolve(strings.TrimSpace(ref), depth+1)
		if !found {
			if !hasFallback {
				return "", false
			}
			sub = strings.TrimSpace(fallback)
		}
		value = value[:start] + sub + value[end+1:]
	}
}

func propertyName(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}

// matchingParen returns index of parenthesis closing the one at open.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
