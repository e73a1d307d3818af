package serialize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"regraph/flatten"
	"regraph/icons"
)

// Namespaces declared on the root of exported document.
const (
	SVGNamespace   = "http://www.w3.org/2000/svg"
	XLinkNamespace = "http://www.w3.org/1999/xlink"
)

// Options control exported document shape.
type Options struct {
	// IconSize is canonical width and height of every icon.
	IconSize float64
	// XMLDeclaration adds <?xml ...?> prologue.
	XMLDeclaration bool
	// TextFill is fill color of text replacing rich content.
	TextFill string
	// FontFamily of text replacing rich content.
	FontFamily string
}

// DefaultOptions returns options matching the diagram view.
func DefaultOptions() Options {
	return Options{
		IconSize:   16,
		TextFill:   "#111827",
		FontFamily: "ui-monospace, monospace",
	}
}

// Document is self-contained exported markup.
type Document struct {
	Markup string
	// Namespaces declared on root, prefix to URI, empty prefix is default
	// namespace.
	Namespaces map[string]string
	Style      string
}

// Serializer assembles exported document from prepared tree.
type Serializer struct {
	table *icons.Table
	opts  Options
	m     *measurer
	log   *zap.Logger
}

func New(table *icons.Table, opts Options, log *zap.Logger) (*Serializer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if table == nil {
		return nil, errors.New("icon signature table is required")
	}
	def := DefaultOptions()
	if opts.IconSize <= 0 {
		opts.IconSize = def.IconSize
	}
	if opts.TextFill == "" {
		opts.TextFill = def.TextFill
	}
	if opts.FontFamily == "" {
		opts.FontFamily = def.FontFamily
	}
	m, err := newMeasurer()
	if err != nil {
		return nil, err
	}
	return &Serializer{table: table, opts: opts, m: m, log: log.Named("serialize")}, nil
}

// Serialize turns tree into document. Tree is modified in place, it must be
// a copy owned by the caller and regions must be found in this very tree.
// No document is returned on error.
func (s *Serializer) Serialize(tree *etree.Element, style string, regions []flatten.Region) (doc *Document, err error) {
	if tree == nil {
		return nil, errors.New("nothing to serialize")
	}
	if strings.Contains(style, "]]>") {
		return nil, errors.New("style fragment cannot be embedded as character data")
	}

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("tree cannot be serialized: %v", r)
		}
	}()

	tree.CreateAttr("xmlns", SVGNamespace)
	tree.CreateAttr("xmlns:xlink", XLinkNamespace)

	removed := removeExternal(tree)

	ph, err := newPlaceholders(tree)
	if err != nil {
		return nil, err
	}
	for _, r := range regions {
		if err := s.replaceRegion(r, ph); err != nil {
			return nil, fmt.Errorf("region %q: %w", r.ID, err)
		}
	}

	normalized := s.normalizeIcons(tree)

	styleEl := etree.NewElement("style")
	styleEl.CreateAttr("type", "text/css")
	styleEl.SetCData(style)
	tree.InsertChildAt(0, styleEl)

	out := etree.NewDocument()
	if s.opts.XMLDeclaration {
		out.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	}
	out.SetRoot(tree)
	text, err := out.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("unable to write tree: %w", err)
	}

	if text, err = s.expandTokens(text, ph); err != nil {
		return nil, err
	}
	if err := etree.NewDocument().ReadFromString(text); err != nil {
		return nil, fmt.Errorf("exported markup is not well formed: %w", err)
	}

	s.log.Debug("Document serialized",
		zap.Int("regions", len(regions)),
		zap.Int("external", removed),
		zap.Int("icons", normalized),
		zap.Int("bytes", len(text)))

	return &Document{
		Markup:     text,
		Namespaces: map[string]string{"": SVGNamespace, "xlink": XLinkNamespace},
		Style:      style,
	}, nil
}

// expandTokens replaces placeholder tokens of this export with canonical
// icon markup. Every occurrence expands independently and carries its own
// namespace.
func (s *Serializer) expandTokens(text string, ph placeholders) (string, error) {
	glyphs := s.table.Glyphs()
	pairs := make([]string, 0, 2*len(glyphs))
	for _, g := range glyphs {
		markup, err := s.table.Markup(g, s.opts.IconSize)
		if err != nil {
			return "", err
		}
		pairs = append(pairs, ph.token(g), markup)
	}
	text = strings.NewReplacer(pairs...).Replace(text)

	if strings.Contains(text, ph.marker) {
		return "", errors.New("unexpanded icon placeholder")
	}
	return text, nil
}

var cssImport = regexp.MustCompile(`(?i)@import[^;]*;?`)

// removeExternal drops everything referring outside of the document. Returns
// number of removed items.
func removeExternal(el *etree.Element) int {
	removed := 0
	for i := 0; i < len(el.Child); {
		switch t := el.Child[i].(type) {
		case *etree.ProcInst:
			if t.Target == "xml-stylesheet" {
				el.RemoveChildAt(i)
				removed++
				continue
			}
		case *etree.Element:
			switch strings.ToLower(t.Tag) {
			case "script", "link":
				el.RemoveChildAt(i)
				removed++
				continue
			case "style":
				if css := t.Text(); cssImport.MatchString(css) {
					t.SetText(cssImport.ReplaceAllString(css, ""))
					removed++
				}
			default:
				removed += removeExternal(t)
			}
		}
		i++
	}
	return removed
}

// normalizeIcons sets canonical size on every icon widget below el.
func (s *Serializer) normalizeIcons(el *etree.Element) int {
	n := 0
	for _, child := range el.ChildElements() {
		if icons.IsIconWidget(child) {
			size := formatNumber(s.opts.IconSize)
			child.CreateAttr("width", size)
			child.CreateAttr("height", size)
			n++
		}
		n += s.normalizeIcons(child)
	}
	return n
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
