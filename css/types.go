package css

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// Rule is single ruleset. Declarations keep their raw text values, custom
// properties are kept separately with names including leading dashes.
type Rule struct {
	Selectors  []string
	Properties map[string]string
	Custom     map[string]string
	// Media is prelude of enclosing @media block, empty for top level rules.
	Media string
}

// HasSelector reports whether rule applies to exactly this selector.
func (r Rule) HasSelector(selector string) bool {
	return slices.Contains(r.Selectors, selector)
}

// Stylesheet is parsed stylesheet in source order.
type Stylesheet struct {
	Rules    []Rule
	Imports  []string
	Warnings []string
}

// RulesBySelector returns rules for selector in source order.
func (s *Stylesheet) RulesBySelector(selector string) []Rule {
	var out []Rule
	for _, r := range s.Rules {
		if r.HasSelector(selector) {
			out = append(out, r)
		}
	}
	return out
}

// CustomProperties collects custom properties declared for selector. Rules
// inside @media blocks are used only when accept returns true for their
// prelude, nil accept skips all of them. Later declarations override earlier
// ones.
func (s *Stylesheet) CustomProperties(selector string, accept func(media string) bool) map[string]string {
	out := make(map[string]string)
	for _, r := range s.Rules {
		if !r.HasSelector(selector) {
			continue
		}
		if r.Media != "" && (accept == nil || !accept(r.Media)) {
			continue
		}
		for k, v := range r.Custom {
			out[k] = v
		}
	}
	return out
}

// WriteTo writes custom properties of the stylesheet back as CSS, mostly
// for debug report.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, r := range s.Rules {
		if len(r.Custom) == 0 {
			continue
		}
		var sb strings.Builder
		indent := ""
		if r.Media != "" {
			fmt.Fprintf(&sb, "@media %s {\n", r.Media)
			indent = "  "
		}
		fmt.Fprintf(&sb, "%s%s {\n", indent, strings.Join(r.Selectors, ", "))
		names := make([]string, 0, len(r.Custom))
		for k := range r.Custom {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			fmt.Fprintf(&sb, "%s  %s: %s;\n", indent, k, r.Custom[k])
		}
		fmt.Fprintf(&sb, "%s}\n", indent)
		if r.Media != "" {
			sb.WriteString("}\n")
		}
		n, err := io.WriteString(w, sb.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Stylesheet) String() string {
	var sb strings.Builder
	_, _ = s.WriteTo(&sb)
	return sb.String()
}
