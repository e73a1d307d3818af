package flatten

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Box is region geometry in the diagram coordinate space.
type Box struct {
	X, Y, Width, Height float64
}

// Center returns middle point of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Region is rich content region of the diagram tree with its flattened
// content. Element belongs to the tree Regions was called on.
type Region struct {
	ID       string
	Element  *etree.Element
	Box      Box
	FontSize float64
	Content
}

// IsRegion reports whether element hosts rich content.
func IsRegion(el *etree.Element) bool {
	return el != nil && strings.EqualFold(el.Tag, "foreignObject")
}

// Regions finds outermost rich content regions of the tree in document order
// and flattens each of them. Regions nested into other regions are flattened
// as part of the outer one.
func (f *Flattener) Regions(tree *etree.Element) []Region {
	var found []*etree.Element
	collectRegions(tree, &found)

	regions := make([]Region, 0, len(found))
	for i, el := range found {
		r := Region{
			ID:       el.SelectAttrValue("id", ""),
			Element:  el,
			FontSize: fontSize(el, f.defaultFontSize),
			Box: Box{
				X:      attrLength(el, "x"),
				Y:      attrLength(el, "y"),
				Width:  attrLength(el, "width"),
				Height: attrLength(el, "height"),
			},
			Content: f.Flatten(el),
		}
		if r.ID == "" {
			r.ID = "region-" + strconv.Itoa(i+1)
		}
		regions = append(regions, r)
	}
	f.log.Debug("Regions flattened", zap.Int("count", len(regions)))
	return regions
}

func collectRegions(el *etree.Element, found *[]*etree.Element) {
	if el == nil {
		return
	}
	if IsRegion(el) {
		*found = append(*found, el)
		return
	}
	for _, child := range el.ChildElements() {
		collectRegions(child, found)
	}
}

func attrLength(el *etree.Element, name string) float64 {
	v, _ := parseLength(el.SelectAttrValue(name, ""))
	return v
}

// fontSize takes font-size attribute, then font-size from inline style.
func fontSize(el *etree.Element, def float64) float64 {
	if v, ok := parseLength(el.SelectAttrValue("font-size", "")); ok && v > 0 {
		return v
	}
	for decl := range strings.SplitSeq(el.SelectAttrValue("style", ""), ";") {
		name, value, found := strings.Cut(decl, ":")
		if !found || !strings.EqualFold(strings.TrimSpace(name), "font-size") {
			continue
		}
		if v, ok := parseLength(value); ok && v > 0 {
			return v
		}
	}
	return def
}

// parseLength accepts plain numbers and pixel lengths.
func parseLength(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
