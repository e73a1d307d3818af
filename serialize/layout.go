package serialize

import (
	"errors"

	"github.com/beevik/etree"

	"regraph/flatten"
)

// baselineShift moves text baseline below region center so that text looks
// vertically centered.
const baselineShift = 6

// replaceRegion puts native group in place of rich content region.
func (s *Serializer) replaceRegion(r flatten.Region, ph placeholders) error {
	el := r.Element
	parent := el.Parent()
	if parent == nil {
		return errors.New("region is detached from the tree")
	}

	g := etree.NewElement("g")
	if id := el.SelectAttrValue("id", ""); id != "" {
		g.CreateAttr("id", id)
	}
	if class := el.SelectAttrValue("class", ""); class != "" {
		g.CreateAttr("class", class)
	}
	if t := el.SelectAttrValue("transform", ""); t != "" {
		g.CreateAttr("transform", t)
	}

	cx, cy := r.Box.Center()
	if !r.HasIcons() {
		text := s.textElement(r.FontSize)
		text.CreateAttr("x", formatNumber(cx))
		text.CreateAttr("y", formatNumber(cy+baselineShift))
		text.CreateAttr("text-anchor", "middle")
		text.SetText(r.Text)
		g.AddChild(text)
	} else if err := s.layoutRuns(g, r, cx, cy, ph); err != nil {
		return err
	}

	idx := el.Index()
	parent.RemoveChildAt(idx)
	parent.InsertChildAt(idx, g)
	return nil
}

type run struct {
	node  flatten.Node
	width float64
}

// layoutRuns places text runs and icons left to right, the whole line is
// centered in the region.
func (s *Serializer) layoutRuns(g *etree.Element, r flatten.Region, cx, cy float64, ph placeholders) error {
	runs := make([]run, 0, len(r.Nodes))
	total := 0.0
	for _, n := range r.Nodes {
		w := s.opts.IconSize
		if n.Kind == flatten.Text {
			var err error
			if w, err = s.m.width(n.Text, r.FontSize); err != nil {
				return err
			}
		}
		runs = append(runs, run{node: n, width: w})
		total += w
	}

	x := cx - total/2
	for _, rn := range runs {
		switch rn.node.Kind {
		case flatten.Text:
			text := s.textElement(r.FontSize)
			text.CreateAttr("x", formatNumber(x))
			text.CreateAttr("y", formatNumber(cy+baselineShift))
			text.CreateAttr("text-anchor", "start")
			text.SetText(rn.node.Text)
			g.AddChild(text)
		case flatten.Icon:
			icon := g.CreateElement("g")
			icon.CreateAttr("class", "regraph-icon")
			icon.CreateAttr("data-glyph", rn.node.Glyph.String())
			icon.CreateAttr("transform", "translate("+formatNumber(x)+","+formatNumber(cy-s.opts.IconSize/2)+")")
			icon.SetText(ph.token(rn.node.Glyph))
		}
		x += rn.width
	}
	return nil
}

func (s *Serializer) textElement(fontSize float64) *etree.Element {
	text := etree.NewElement("text")
	text.CreateAttr("dominant-baseline", "middle")
	text.CreateAttr("font-family", s.opts.FontFamily)
	text.CreateAttr("font-size", formatNumber(fontSize))
	text.CreateAttr("fill", s.opts.TextFill)
	text.CreateAttr("unicode-bidi", "embed")
	text.CreateAttr("direction", "ltr")
	text.CreateAttr("xml:space", "preserve")
	return text
}
