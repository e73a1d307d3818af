package serialize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"regraph/flatten"
	"regraph/icons"
)

const (
	style = "\n    text { fill: #000000 !important; }\n  "

	loopSVG     = `<svg width="18" height="18" viewBox="0 0 24 24"><path d="M17 1l4 4-4 4"/><path d="M3 11V9a4 4 0 0 1 4-4h14"/></svg>`
	infinitySVG = `<svg width="14" height="14" viewBox="0 0 256 256"><path d="M248,128a56,56,0,0,1-95.6,39.6"/></svg>`
)

type fixture struct {
	ser *Serializer
	fl  *flatten.Flattener
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	table := icons.DefaultTable()
	ser, err := New(table, opts, log)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return fixture{ser: ser, fl: flatten.New(icons.NewClassifier(table), 16, log)}
}

func parse(t *testing.T, markup string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc.Root()
}

func (f fixture) export(t *testing.T, markup string) *Document {
	t.Helper()
	tree := parse(t, markup).Copy()
	doc, err := f.ser.Serialize(tree, style, f.fl.Regions(tree))
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	return doc
}

func assertNoTokens(t *testing.T, markup string) {
	t.Helper()
	table := icons.DefaultTable()
	for _, g := range table.Glyphs() {
		if strings.Contains(markup, table.Token(g)) {
			t.Errorf("placeholder for %s left in output", g)
		}
	}
}

func TestSerialize_NoRegionsRoundTrip(t *testing.T) {
	const markup = `<svg width="100" height="50" viewBox="0 0 100 50"><g class="stroke-graph"><rect x="1" y="1" width="10" height="10" rx="2"/><path d="M0 0L10 10"/><text x="5" y="5">a&amp;b</text></g></svg>`
	f := newFixture(t, DefaultOptions())

	got := f.export(t, markup)

	want := parse(t, markup).Copy()
	want.CreateAttr("xmlns", SVGNamespace)
	want.CreateAttr("xmlns:xlink", XLinkNamespace)
	st := etree.NewElement("style")
	st.CreateAttr("type", "text/css")
	st.SetCData(style)
	want.InsertChildAt(0, st)
	doc := etree.NewDocument()
	doc.SetRoot(want)
	wantText, err := doc.WriteToString()
	if err != nil {
		t.Fatal(err)
	}

	if got.Markup != wantText {
		t.Errorf("Markup =\n%s\nwant\n%s", got.Markup, wantText)
	}
	assertNoTokens(t, got.Markup)
	if got.Style != style || got.Namespaces[""] != SVGNamespace || got.Namespaces["xlink"] != XLinkNamespace {
		t.Errorf("Document = %+v", got)
	}
}

func TestSerialize_StyleFirstAndNamespaces(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	got := f.export(t, `<svg xmlns="http://example.com/wrong"><rect/></svg>`)

	root := parse(t, got.Markup)
	if root.SelectAttrValue("xmlns", "") != SVGNamespace {
		t.Errorf("xmlns = %q", root.SelectAttrValue("xmlns", ""))
	}
	if root.SelectAttrValue("xmlns:xlink", "") != XLinkNamespace {
		t.Errorf("xmlns:xlink = %q", root.SelectAttrValue("xmlns:xlink", ""))
	}
	first := root.ChildElements()[0]
	if first.Tag != "style" || first.SelectAttrValue("type", "") != "text/css" || first.Text() != style {
		t.Errorf("first child = <%s> %q", first.Tag, first.Text())
	}
	if !strings.Contains(got.Markup, "<![CDATA[") {
		t.Error("style is not embedded as CDATA")
	}
}

func TestSerialize_SingleLoopRepeat(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	got := f.export(t, `<svg><foreignObject x="0" y="0" width="80" height="20"><div>a`+loopSVG+`b</div></foreignObject></svg>`)

	canonical, err := icons.DefaultTable().Markup(icons.LoopRepeat, 16)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(got.Markup, canonical) != 1 {
		t.Errorf("canonical loop markup expected once in\n%s", got.Markup)
	}
	assertNoTokens(t, got.Markup)
	for _, bad := range []string{"foreignObject", "↻", `width="18"`} {
		if strings.Contains(got.Markup, bad) {
			t.Errorf("output contains %q", bad)
		}
	}
	if !strings.Contains(got.Markup, `data-glyph="loop-repeat"`) {
		t.Error("icon group is missing")
	}
}

func TestSerialize_TwoIconKindsInOrder(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	got := f.export(t, `<svg>`+
		`<foreignObject x="0" y="0" width="200" height="20"><div>`+infinitySVG+` then `+loopSVG+`</div></foreignObject>`+
		`<foreignObject x="0" y="40" width="200" height="20"><div>`+loopSVG+infinitySVG+`</div></foreignObject>`+
		`</svg>`)

	table := icons.DefaultTable()
	inf, _ := table.Markup(icons.Infinity, 16)
	loop, _ := table.Markup(icons.LoopRepeat, 16)

	if strings.Count(got.Markup, inf) != 2 || strings.Count(got.Markup, loop) != 2 {
		t.Fatalf("expected two of each icon in\n%s", got.Markup)
	}
	firstInf, firstLoop := strings.Index(got.Markup, inf), strings.Index(got.Markup, loop)
	if firstInf > firstLoop {
		t.Error("icons of the first region are out of order")
	}
	assertNoTokens(t, got.Markup)
}

func TestSerialize_RemovesExternalReferences(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	got := f.export(t, `<svg>`+
		`<?xml-stylesheet href="app.css"?>`+
		`<script>alert(1)</script>`+
		`<g><link href="x.css" rel="stylesheet"/><script src="a.js"/></g>`+
		`<style>@import url("x.css"); .a { fill: red; }</style>`+
		`</svg>`)

	for _, bad := range []string{"<script", "<link", "xml-stylesheet", "@import"} {
		if strings.Contains(got.Markup, bad) {
			t.Errorf("output contains %q:\n%s", bad, got.Markup)
		}
	}
	if !strings.Contains(got.Markup, ".a { fill: red; }") {
		t.Error("own styles must be kept")
	}
}

func TestSerialize_TextRegion(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	got := f.export(t, `<svg><g><foreignObject id="n1" x="10" y="20" width="100" height="30" font-size="14"><div>a+b</div></foreignObject></g></svg>`)

	root := parse(t, got.Markup)
	text := root.FindElement("./g/g[@id='n1']/text")
	if text == nil {
		t.Fatalf("text element not found in\n%s", got.Markup)
	}
	checks := map[string]string{
		"x":           "60",
		"y":           "41",
		"text-anchor": "middle",
		"font-size":   "14",
		"fill":        "#111827",
	}
	for k, want := range checks {
		if v := text.SelectAttrValue(k, ""); v != want {
			t.Errorf("%s = %q, want %q", k, v, want)
		}
	}
	if text.Text() != "a+b" {
		t.Errorf("text = %q", text.Text())
	}
}

func TestSerialize_IconLayout(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	got := f.export(t, `<svg><foreignObject x="0" y="0" width="100" height="20"><div>ab`+loopSVG+`</div></foreignObject></svg>`)

	root := parse(t, got.Markup)
	text := root.FindElement(".//text")
	if text == nil || text.SelectAttrValue("text-anchor", "") != "start" {
		t.Fatalf("text run not found in\n%s", got.Markup)
	}
	textX, err := strconv.ParseFloat(text.SelectAttrValue("x", ""), 64)
	if err != nil {
		t.Fatal(err)
	}

	icon := root.FindElement(".//g[@data-glyph='loop-repeat']")
	if icon == nil {
		t.Fatal("icon group not found")
	}
	var iconX, iconY float64
	if _, err := fmt.Sscanf(icon.SelectAttrValue("transform", ""), "translate(%g,%g)", &iconX, &iconY); err != nil {
		t.Fatalf("transform: %v", err)
	}

	if textX <= 0 || iconX <= textX {
		t.Errorf("runs are not left to right: text %g icon %g", textX, iconX)
	}
	// line is centered around region center
	if left, right := 50-textX, iconX+16-50; math.Abs(left-right) > 0.01 {
		t.Errorf("line is not centered: %g vs %g", left, right)
	}
	if iconY != 2 {
		t.Errorf("icon y = %g, want 2", iconY)
	}
}

func TestSerialize_NormalizesStandaloneIcons(t *testing.T) {
	f := newFixture(t, Options{IconSize: 20})
	got := f.export(t, `<svg width="300" height="100"><g><svg width="48" height="48" viewBox="0 0 24 24"><path d="M0 0h1"/></svg></g><svg width="5"><rect/></svg></svg>`)

	root := parse(t, got.Markup)
	if root.SelectAttrValue("width", "") != "300" {
		t.Error("root size must be kept")
	}
	icon := root.FindElement("./g/svg")
	if icon.SelectAttrValue("width", "") != "20" || icon.SelectAttrValue("height", "") != "20" {
		t.Errorf("icon size = %sx%s", icon.SelectAttrValue("width", ""), icon.SelectAttrValue("height", ""))
	}
	if plain := root.FindElement("./svg"); plain.SelectAttrValue("width", "") != "5" {
		t.Error("svg without paths is not an icon")
	}
}

func TestSerialize_LiteralTokensKept(t *testing.T) {
	table := icons.DefaultTable()
	inf, loop := table.Token(icons.Infinity), table.Token(icons.LoopRepeat)
	canonical, err := table.Markup(icons.LoopRepeat, 16)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		markup   string
		expanded int
		check    func(t *testing.T, root *etree.Element)
	}{
		{
			"text",
			`<svg><text x="1" y="1">` + inf + `</text></svg>`,
			0,
			func(t *testing.T, root *etree.Element) {
				text := root.FindElement("./text")
				if text == nil || text.Text() != inf || len(text.ChildElements()) != 0 {
					t.Errorf("text element changed: %+v", text)
				}
			},
		},
		{
			"attribute",
			`<svg><g aria-label="` + loop + `"><path d="M0 0h10"/></g></svg>`,
			0,
			func(t *testing.T, root *etree.Element) {
				if g := root.FindElement("./g"); g == nil || g.SelectAttrValue("aria-label", "") != loop {
					t.Error("attribute changed")
				}
			},
		},
		{
			"region with icon",
			`<svg><foreignObject x="0" y="0" width="200" height="20"><div>` + loop + ` ` + loopSVG + `</div></foreignObject></svg>`,
			1,
			func(t *testing.T, root *etree.Element) {
				groups := root.FindElements(".//g[@data-glyph='loop-repeat']")
				if len(groups) != 1 {
					t.Fatalf("icon groups = %d, want 1", len(groups))
				}
				found := false
				for _, text := range root.FindElements(".//text") {
					if strings.Contains(text.Text(), loop) {
						found = true
					}
				}
				if !found {
					t.Error("literal token text lost")
				}
			},
		},
	}

	f := newFixture(t, DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.export(t, tt.markup)
			if n := strings.Count(got.Markup, canonical); n != tt.expanded {
				t.Errorf("canonical icon markup found %d times, want %d:\n%s", n, tt.expanded, got.Markup)
			}
			tt.check(t, parse(t, got.Markup))
		})
	}
}

func TestSerialize_IndentedRegion(t *testing.T) {
	f := newFixture(t, DefaultOptions())
	got := f.export(t, "<svg><foreignObject x=\"0\" y=\"0\" width=\"100\" height=\"20\">\n    <div>\n      abc\n    </div>\n  </foreignObject></svg>")

	text := parse(t, got.Markup).FindElement(".//text")
	if text == nil || text.Text() != "abc" {
		t.Errorf("region text = %+v in\n%s", text, got.Markup)
	}
}

func TestSerialize_Idempotent(t *testing.T) {
	const markup = `<svg><foreignObject x="0" y="0" width="90" height="20"><div>x` + infinitySVG + `y` + loopSVG + `</div></foreignObject><foreignObject width="10" height="10"><div>z</div></foreignObject></svg>`
	f := newFixture(t, DefaultOptions())
	first := f.export(t, markup)
	second := f.export(t, markup)
	if first.Markup != second.Markup {
		t.Error("two exports of the same diagram differ")
	}
}

func TestSerialize_XMLDeclaration(t *testing.T) {
	f := newFixture(t, Options{XMLDeclaration: true})
	got := f.export(t, `<svg/>`)
	if !strings.HasPrefix(got.Markup, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("Markup = %s", got.Markup)
	}
}

func TestSerialize_Failures(t *testing.T) {
	f := newFixture(t, DefaultOptions())

	if _, err := f.ser.Serialize(nil, style, nil); err == nil {
		t.Error("expected error for nil tree")
	}
	if _, err := f.ser.Serialize(parse(t, `<svg/>`), "a ]]> b", nil); err == nil {
		t.Error("expected error for style which cannot be CDATA")
	}

	tree := parse(t, `<svg><foreignObject><div>a</div></foreignObject></svg>`).Copy()
	regions := f.fl.Regions(tree)
	regions[0].Element = etree.NewElement("foreignObject")
	if _, err := f.ser.Serialize(tree, style, regions); err == nil {
		t.Error("expected error for detached region")
	}
}

func TestNew_RequiresTable(t *testing.T) {
	if _, err := New(nil, DefaultOptions(), nil); err == nil {
		t.Error("expected error")
	}
}
