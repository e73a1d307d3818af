package icons

import (
	"strings"

	"github.com/beevik/etree"
)

// Classifier recognizes icon widgets using signature table.
type Classifier struct {
	table *Table
}

func NewClassifier(table *Table) *Classifier {
	return &Classifier{table: table}
}

// Table returns signature table used by classifier.
func (c *Classifier) Table() *Table {
	return c.table
}

// IsIconWidget reports whether element looks like embedded icon: svg element
// with at least one path inside. Caller is responsible for not asking about
// diagram root.
func IsIconWidget(el *etree.Element) bool {
	return el != nil && el.Tag == "svg" && el.FindElement(".//path") != nil
}

// Classify assigns semantic meaning to the icon widget. Entries are checked in
// table order, so the first matching signature wins. Icon matches an entry
// when its whole shape has entry's canonical fingerprint or when any of its
// paths satisfies any of entry's rules. Unrecognized icons get accessible
// label or title as fallback text.
func (c *Classifier) Classify(el *etree.Element) Result {
	if el == nil {
		return Result{}
	}
	paths := pathData(el)
	fp, haveFP := ShapeFingerprint(paths)

	for _, e := range c.table.entries {
		if haveFP {
			for _, want := range e.fingerprints {
				if fp == want {
					return Result{Glyph: e.Glyph}
				}
			}
		}
		for _, d := range paths {
			for _, r := range e.Rules {
				if r.match(d) {
					return Result{Glyph: e.Glyph}
				}
			}
		}
	}
	return Result{Glyph: Unknown, Fallback: fallbackText(el)}
}

func fallbackText(el *etree.Element) string {
	if label := strings.TrimSpace(el.SelectAttrValue("aria-label", "")); label != "" {
		return label
	}
	if title := el.FindElement(".//title"); title != nil {
		return strings.TrimSpace(title.Text())
	}
	return ""
}
