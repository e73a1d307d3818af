package icons

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
)

//go:embed glyphs/*.svg
var glyphFiles embed.FS

func mustReadGlyph(name string) []byte {
	data, err := glyphFiles.ReadFile(name)
	if err != nil {
		panic("embedded glyph missing: " + name + ": " + err.Error())
	}
	return data
}

// Rule matches single path data when all substrings are present and data is
// longer than MinLen.
type Rule struct {
	All    []string
	MinLen int
}

func (r Rule) match(d string) bool {
	if len(d) <= r.MinLen {
		return false
	}
	for _, s := range r.All {
		if !strings.Contains(d, s) {
			return false
		}
	}
	return true
}

// Definition describes single signature table entry.
type Definition struct {
	Glyph Glyph
	// Token is placeholder used for the glyph in flattened text, must be
	// unique and must not require escaping in XML text.
	Token string
	Rules []Rule
	// Markup is canonical standalone SVG of the glyph, it is used as
	// reference geometry and as replacement of placeholder token.
	Markup []byte
}

type entry struct {
	Definition
	root         *etree.Element
	fingerprints []uint64
}

// Table is immutable signature table. Entries are kept in priority order:
// when icon satisfies several signatures the earlier entry wins.
type Table struct {
	entries []entry
}

// NewTable validates definitions and builds table.
func NewTable(defs ...Definition) (*Table, error) {
	t := &Table{entries: make([]entry, 0, len(defs))}
	seen := make(map[Glyph]bool, len(defs))

	for _, def := range defs {
		if def.Glyph == Unknown {
			return nil, errors.New("signature for unknown glyph")
		}
		if seen[def.Glyph] {
			return nil, fmt.Errorf("duplicate signature for %s", def.Glyph)
		}
		seen[def.Glyph] = true
		if def.Token == "" || strings.ContainsAny(def.Token, "<>&\"'") {
			return nil, fmt.Errorf("bad placeholder token %q for %s", def.Token, def.Glyph)
		}
		for _, other := range t.entries {
			if strings.Contains(other.Token, def.Token) || strings.Contains(def.Token, other.Token) {
				return nil, fmt.Errorf("placeholder tokens %q and %q overlap", other.Token, def.Token)
			}
		}

		icon, err := oksvg.ReadIconStream(bytes.NewReader(def.Markup))
		if err != nil {
			return nil, fmt.Errorf("unable to read canonical markup for %s: %w", def.Glyph, err)
		}
		if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
			return nil, fmt.Errorf("canonical markup for %s has no view box", def.Glyph)
		}

		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(def.Markup); err != nil {
			return nil, fmt.Errorf("unable to parse canonical markup for %s: %w", def.Glyph, err)
		}
		root := doc.Root()
		if root == nil || root.Tag != "svg" {
			return nil, fmt.Errorf("canonical markup for %s is not svg", def.Glyph)
		}

		e := entry{Definition: def, root: root}
		if fp, ok := ShapeFingerprint(pathData(root)); ok {
			e.fingerprints = append(e.fingerprints, fp)
		}
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// DefaultDefinitions returns signatures of icons rendered by the diagram
// view.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			Glyph: Infinity,
			Token: "{{regraph:infinity}}",
			Rules: []Rule{
				{All: []string{"M248,128", "95.6,39.6"}},
				{All: []string{"C", "a56,56"}, MinLen: 100},
				{All: []string{"a40,40", "56.9"}, MinLen: 50},
			},
			Markup: mustReadGlyph("glyphs/infinity.svg"),
		},
		{
			Glyph: LoopRepeat,
			Token: "{{regraph:loop-repeat}}",
			Rules: []Rule{
				{All: []string{"M17 1l4 4-4 4"}},
				{All: []string{"M7 23l-4-4 4-4"}},
				{All: []string{"M3 11V9a4 4", "M21 13v2a4 4"}},
				{All: []string{"l4 4-4 4", "l-4-4 4-4"}},
			},
			Markup: mustReadGlyph("glyphs/loop-repeat.svg"),
		},
	}
}

var defaultTable = sync.OnceValue(func() *Table {
	t, err := NewTable(DefaultDefinitions()...)
	if err != nil {
		panic("default icon signatures are broken: " + err.Error())
	}
	return t
})

// DefaultTable returns table built from DefaultDefinitions. It is built once
// and shared, Table is never modified after construction.
func DefaultTable() *Table {
	return defaultTable()
}

// Glyphs returns recognized glyphs in priority order.
func (t *Table) Glyphs() []Glyph {
	out := make([]Glyph, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.Glyph)
	}
	return out
}

func (t *Table) lookup(g Glyph) (*entry, bool) {
	for i := range t.entries {
		if t.entries[i].Glyph == g {
			return &t.entries[i], true
		}
	}
	return nil, false
}

// Token returns placeholder token for the glyph or empty string.
func (t *Table) Token(g Glyph) string {
	if e, ok := t.lookup(g); ok {
		return e.Token
	}
	return ""
}

// Markup returns canonical markup of the glyph sized to the requested
// width and height. Result declares its own namespace, so it could be
// inserted anywhere into serialized document text.
func (t *Table) Markup(g Glyph, size float64) (string, error) {
	e, ok := t.lookup(g)
	if !ok {
		return "", fmt.Errorf("no canonical markup for %s", g)
	}
	root := e.root.Copy()
	sz := strconv.FormatFloat(size, 'f', -1, 64)
	root.CreateAttr("width", sz)
	root.CreateAttr("height", sz)

	doc := etree.NewDocument()
	doc.SetRoot(root)
	return doc.WriteToString()
}

// pathData returns data of all path descendants in document order.
func pathData(el *etree.Element) []string {
	paths := el.FindElements(".//path")
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, p.SelectAttrValue("d", ""))
	}
	return out
}
