package flatten

import (
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"regraph/icons"
)

// Kind of content node.
type Kind int

const (
	Text Kind = iota
	Icon
)

func (k Kind) String() string {
	if k == Icon {
		return "icon"
	}
	return "text"
}

// Node is single piece of flattened region content. For Icon nodes Text holds
// glyph placeholder token and NativeMarkup holds serialized icon widget as it
// was found in the region.
type Node struct {
	Kind         Kind
	Text         string
	Glyph        icons.Glyph
	NativeMarkup string
}

// Content is flattened region: nodes in document order and their text with
// recognized icons replaced by placeholder tokens.
type Content struct {
	Nodes []Node
	Text  string
}

// HasIcons reports whether any recognized icon is present.
func (c Content) HasIcons() bool {
	for _, n := range c.Nodes {
		if n.Kind == Icon {
			return true
		}
	}
	return false
}

// Glyphs returns recognized glyphs in document order.
func (c Content) Glyphs() []icons.Glyph {
	var out []icons.Glyph
	for _, n := range c.Nodes {
		if n.Kind == Icon {
			out = append(out, n.Glyph)
		}
	}
	return out
}

// Flattener turns rich content regions into portable text.
type Flattener struct {
	cls             *icons.Classifier
	defaultFontSize float64
	log             *zap.Logger
}

// New creates flattener. Classifier is required, its table provides
// placeholder tokens.
func New(cls *icons.Classifier, defaultFontSize float64, log *zap.Logger) *Flattener {
	if log == nil {
		log = zap.NewNop()
	}
	if defaultFontSize <= 0 {
		defaultFontSize = 16
	}
	return &Flattener{cls: cls, defaultFontSize: defaultFontSize, log: log.Named("flatten")}
}

// Flatten walks region depth first. Region itself is never modified.
func (f *Flattener) Flatten(region *etree.Element) Content {
	var nodes []Node
	if region != nil {
		nodes = f.walk(region, nodes)
	}

	for i := range nodes {
		if nodes[i].Kind == Text {
			nodes[i].Text = collapseSpace(norm.NFC.String(nodes[i].Text))
		}
	}
	nodes = trimEdges(nodes)

	var sb strings.Builder
	for i := range nodes {
		sb.WriteString(nodes[i].Text)
	}
	return Content{Nodes: nodes, Text: sb.String()}
}

// collapseSpace replaces every run of document white space with single
// space the way HTML renders it. Non-breaking spaces are kept.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	inSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !inSpace {
				sb.WriteByte(' ')
			}
			inSpace = true
		default:
			sb.WriteRune(r)
			inSpace = false
		}
	}
	return sb.String()
}

// trimEdges removes white space at the region boundaries and drops text
// nodes left empty.
func trimEdges(nodes []Node) []Node {
	if n := len(nodes); n > 0 {
		if nodes[0].Kind == Text {
			nodes[0].Text = strings.TrimLeft(nodes[0].Text, " ")
		}
		if nodes[n-1].Kind == Text {
			nodes[n-1].Text = strings.TrimRight(nodes[n-1].Text, " ")
		}
	}
	out := nodes[:0]
	for _, n := range nodes {
		if n.Kind == Text && n.Text == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func (f *Flattener) walk(el *etree.Element, nodes []Node) []Node {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			nodes = appendText(nodes, t.Data)
		case *etree.Element:
			switch {
			case icons.IsIconWidget(t):
				nodes = f.icon(t, nodes)
			case isInert(t):
				// not rendered as text
			default:
				nodes = f.walk(t, nodes)
			}
		}
	}
	return nodes
}

func (f *Flattener) icon(el *etree.Element, nodes []Node) []Node {
	res := f.cls.Classify(el)
	if !res.Recognized() {
		f.log.Debug("Unrecognized icon", zap.String("fallback", res.Fallback))
		return appendText(nodes, res.Fallback)
	}

	markup, err := nativeMarkup(el)
	if err != nil {
		// etree writes into memory, this is not expected to ever happen
		f.log.Warn("Unable to serialize icon, using fallback", zap.Stringer("glyph", res.Glyph), zap.Error(err))
		return appendText(nodes, res.Glyph.String())
	}
	f.log.Debug("Icon recognized", zap.Stringer("glyph", res.Glyph))
	return append(nodes, Node{
		Kind:         Icon,
		Text:         f.cls.Table().Token(res.Glyph),
		Glyph:        res.Glyph,
		NativeMarkup: markup,
	})
}

// appendText merges adjacent text.
func appendText(nodes []Node, s string) []Node {
	if s == "" {
		return nodes
	}
	if n := len(nodes); n > 0 && nodes[n-1].Kind == Text {
		nodes[n-1].Text += s
		return nodes
	}
	return append(nodes, Node{Kind: Text, Text: s})
}

func isInert(el *etree.Element) bool {
	switch strings.ToLower(el.Tag) {
	case "script", "style", "title", "desc", "metadata":
		return true
	}
	return false
}

func nativeMarkup(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	return doc.WriteToString()
}
