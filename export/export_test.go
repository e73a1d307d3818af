package export

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"regraph/common"
	"regraph/config"
	"regraph/icons"
	"regraph/packager"
	"regraph/theme"
)

const (
	loopSVG     = `<svg width="18" height="18" viewBox="0 0 24 24"><path d="M17 1l4 4-4 4"/><path d="M3 11V9a4 4 0 0 1 4-4h14"/></svg>`
	infinitySVG = `<svg width="14" height="14" viewBox="0 0 256 256"><path d="M248,128a56,56,0,0,1-95.6,39.6"/></svg>`

	plainDiagram = `<svg xmlns="http://www.w3.org/2000/svg" width="120" height="40"><g class="railroad"><path d="M0 20h120"/><text x="10" y="20">abc</text></g></svg>`
)

func newExporter(t *testing.T, tmp string) *Exporter {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	s := SettingsFromConfig(nil, nil)
	s.Package.TempDir = tmp
	e, err := New(s, log)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func parse(t *testing.T, markup string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc.Root()
}

func markupOf(t *testing.T, el *etree.Element) string {
	t.Helper()
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	return s
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected %s to be empty, found %d entries", dir, len(entries))
	}
}

// capture collects every saved artifact.
type capture struct {
	calls int
	names []string
	data  [][]byte
}

func (c *capture) saver() packager.Saver {
	return packager.SaverFunc(func(h *packager.Handle, filename string) error {
		c.calls++
		r, err := h.Reader()
		if err != nil {
			return err
		}
		defer r.Close()
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		c.names = append(c.names, filename)
		c.data = append(c.data, data)
		return nil
	})
}

func TestExport_UnsupportedFormat(t *testing.T) {
	tmp := t.TempDir()
	e := newExporter(t, tmp)

	for _, format := range []string{"png", "", "pdf", "svgz"} {
		t.Run(format, func(t *testing.T) {
			var c capture
			err := e.Export(format, parse(t, plainDiagram), "x", Options{Saver: c.saver()})
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Fatalf("Export(%q) error = %v, want ErrUnsupportedFormat", format, err)
			}
			if c.calls != 0 {
				t.Errorf("save triggered %d times", c.calls)
			}
			assertEmptyDir(t, tmp)
		})
	}
}

func TestExport_FormatCaseInsensitive(t *testing.T) {
	e := newExporter(t, t.TempDir())
	var c capture
	if err := e.Export(" SVG ", parse(t, plainDiagram), "", Options{Saver: c.saver()}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if c.calls != 1 {
		t.Errorf("save triggered %d times, want 1", c.calls)
	}
}

func TestExport_DiagramNotFound(t *testing.T) {
	tmp := t.TempDir()
	e := newExporter(t, tmp)

	tests := []struct {
		name string
		el   *etree.Element
	}{
		{"nil element", nil},
		{"empty container", parse(t, `<div/>`)},
		{"container with text", parse(t, `<div><p>no diagram here</p></div>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c capture
			err := e.Export("svg", tt.el, "", Options{Saver: c.saver()})
			if !errors.Is(err, ErrDiagramNotFound) {
				t.Fatalf("Export() error = %v, want ErrDiagramNotFound", err)
			}
			if c.calls != 0 {
				t.Errorf("save triggered %d times", c.calls)
			}
			assertEmptyDir(t, tmp)
		})
	}
}

func TestExport_NoSaver(t *testing.T) {
	e := newExporter(t, t.TempDir())
	err := e.Export("svg", parse(t, plainDiagram), "", Options{})
	if !errors.Is(err, ErrDownloadTrigger) {
		t.Fatalf("Export() error = %v, want ErrDownloadTrigger", err)
	}
}

func TestExport_SaveFailure(t *testing.T) {
	tmp := t.TempDir()
	e := newExporter(t, tmp)

	boom := errors.New("boom")
	err := e.Export("svg", parse(t, plainDiagram), "", Options{Saver: packager.SaverFunc(func(*packager.Handle, string) error {
		return boom
	})})
	if !errors.Is(err, ErrDownloadTrigger) || !errors.Is(err, boom) {
		t.Fatalf("Export() error = %v, want ErrDownloadTrigger wrapping cause", err)
	}
	assertEmptyDir(t, tmp)
}

func TestExport_ContainerAndSourceUntouched(t *testing.T) {
	tmp := t.TempDir()
	e := newExporter(t, tmp)

	container := parse(t, `<div class="view"><span>title</span><div>`+
		`<svg width="100" height="30"><foreignObject x="0" y="0" width="100" height="30"><div>a`+loopSVG+`</div></foreignObject></svg>`+
		`</div></div>`)
	before := markupOf(t, container)

	var c capture
	if err := e.Export("svg", container, "diagram", Options{Saver: c.saver()}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if after := markupOf(t, container); after != before {
		t.Errorf("source tree modified:\nbefore %s\nafter  %s", before, after)
	}
	if len(c.names) != 1 || c.names[0] != "diagram.svg" {
		t.Errorf("saved names = %v, want [diagram.svg]", c.names)
	}
	if strings.Contains(string(c.data[0]), "<span>") {
		t.Error("container content leaked into export")
	}
	assertEmptyDir(t, tmp)
}

func TestExportDocument_NoRegionsIdentity(t *testing.T) {
	e := newExporter(t, t.TempDir())
	el := parse(t, plainDiagram)

	doc, err := e.ExportDocument(el, Options{})
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}

	// expected: the very same tree with the style prologue
	want := el.Copy()
	want.CreateAttr("xmlns:xlink", "http://www.w3.org/1999/xlink")
	style := etree.NewElement("style")
	style.CreateAttr("type", "text/css")
	style.SetCData(doc.Style)
	want.InsertChildAt(0, style)
	if got, exp := doc.Markup, markupOf(t, want); got != exp {
		t.Errorf("identity broken:\ngot  %s\nwant %s", got, exp)
	}
	for _, g := range icons.DefaultTable().Glyphs() {
		if strings.Contains(doc.Markup, icons.DefaultTable().Token(g)) {
			t.Errorf("placeholder for %s left in output", g)
		}
	}
}

func TestExportDocument_LoopRepeat(t *testing.T) {
	e := newExporter(t, t.TempDir())
	el := parse(t, `<svg width="100" height="30"><foreignObject x="0" y="0" width="100" height="30"><div>x`+loopSVG+`</div></foreignObject></svg>`)

	doc, err := e.ExportDocument(el, Options{})
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}
	table := icons.DefaultTable()
	canonical, err := table.Markup(icons.LoopRepeat, 16)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.Markup, canonical) {
		t.Errorf("canonical loop markup missing in\n%s", doc.Markup)
	}
	if strings.Contains(doc.Markup, "↻") || strings.Contains(doc.Markup, table.Token(icons.LoopRepeat)) {
		t.Errorf("loop degraded or left unexpanded in\n%s", doc.Markup)
	}
}

func TestExportDocument_TwoIconKinds(t *testing.T) {
	e := newExporter(t, t.TempDir())
	el := parse(t, `<svg width="200" height="30"><foreignObject x="0" y="0" width="200" height="30"><div>`+
		infinitySVG+` or `+loopSVG+`</div></foreignObject></svg>`)

	doc, err := e.ExportDocument(el, Options{})
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}
	table := icons.DefaultTable()
	inf, _ := table.Markup(icons.Infinity, 16)
	loop, _ := table.Markup(icons.LoopRepeat, 16)
	i, l := strings.Index(doc.Markup, inf), strings.Index(doc.Markup, loop)
	if i < 0 || l < 0 || i > l {
		t.Errorf("icons missing or out of order (infinity at %d, loop at %d)", i, l)
	}
	for _, g := range table.Glyphs() {
		if strings.Contains(doc.Markup, table.Token(g)) {
			t.Errorf("placeholder for %s left in output", g)
		}
	}
}

func TestExportDocument_DiagramTextLooksLikeToken(t *testing.T) {
	e := newExporter(t, t.TempDir())
	table := icons.DefaultTable()
	inf, loop := table.Token(icons.Infinity), table.Token(icons.LoopRepeat)
	el := parse(t, `<svg><g aria-label="`+loop+`"><text>`+inf+`</text></g></svg>`)

	doc, err := e.ExportDocument(el, Options{})
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}
	root := parse(t, doc.Markup)
	if g := root.FindElement("./g"); g == nil || g.SelectAttrValue("aria-label", "") != loop {
		t.Errorf("attribute changed in\n%s", doc.Markup)
	}
	if text := root.FindElement("./g/text"); text == nil || text.Text() != inf || len(text.ChildElements()) != 0 {
		t.Errorf("text changed in\n%s", doc.Markup)
	}
}

func TestExport_Idempotent(t *testing.T) {
	e := newExporter(t, t.TempDir())
	markup := `<svg width="200" height="30"><foreignObject x="0" y="0" width="200" height="30"><div>a ` +
		loopSVG + ` b</div></foreignObject><text>c</text></svg>`
	colors := theme.MapProvider{theme.VarForeground: "222.2 84% 4.9%", theme.VarGraph: "hsl(0 100% 50%)"}

	var outputs [2]bytes.Buffer
	for i := range outputs {
		opts := Options{Theme: colors, Saver: packager.WriterSaver{W: &outputs[i]}}
		if err := e.Export("svg", parse(t, markup), "", opts); err != nil {
			t.Fatalf("Export() #%d error = %v", i, err)
		}
	}
	if outputs[0].Len() == 0 || !bytes.Equal(outputs[0].Bytes(), outputs[1].Bytes()) {
		t.Error("repeated exports differ")
	}
}

func TestExport_DirSaver(t *testing.T) {
	dst := t.TempDir()
	e := newExporter(t, t.TempDir())

	saver := packager.DirSaver{Dir: dst}
	if err := e.Export("svg", parse(t, plainDiagram), "", Options{Saver: saver}); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dst, packager.DefaultName+".svg"))
	if err != nil {
		t.Fatalf("exported file: %v", err)
	}
	if !strings.HasPrefix(string(data), "<svg") {
		t.Errorf("unexpected content %q", data)
	}

	err = e.Export("svg", parse(t, plainDiagram), "", Options{Saver: saver})
	if !errors.Is(err, ErrDownloadTrigger) {
		t.Errorf("second Export() error = %v, want ErrDownloadTrigger", err)
	}
}

func TestFindDiagram(t *testing.T) {
	root := parse(t, `<div><p/><section><svg id="first"/></section><svg id="second"/></div>`)
	if got := FindDiagram(root); got == nil || got.SelectAttrValue("id", "") != "first" {
		t.Errorf("FindDiagram() = %v, want first descendant svg", got)
	}
	svg := parse(t, `<svg id="self"><svg id="nested"/></svg>`)
	if got := FindDiagram(svg); got != svg {
		t.Error("FindDiagram() must return element itself when it is diagram root")
	}
	if FindDiagram(parse(t, `<div/>`)) != nil {
		t.Error("FindDiagram() found diagram in empty container")
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		requested string
		src       string
		want      string
	}{
		{"default", "", "", "", "regex-graph"},
		{"requested", "", " my graph ", "", "my graph"},
		{"template", "{{ .Name }}-{{ .Source }}", "", "/tmp/view.html", "regex-graph-view"},
		{"template functions", "{{ .Source | upper }}.{{ .Format }}", "x", "a/b/page.svg", "PAGE.svg"},
		{"broken template", "{{ .Name ", "fallback", "", "fallback"},
		{"empty expansion", "{{ if false }}x{{ end }}", "kept", "", "kept"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.ExportConfig{DefaultName: "regex-graph", OutputNameTemplate: tt.template}
			if got := OutputName(cfg, tt.requested, tt.src, common.ExportFormatSvg, zap.NewNop()); got != tt.want {
				t.Errorf("OutputName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSettingsFromConfig(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Export.IconSize = 24
	cfg.Export.XMLDeclaration = true

	s := SettingsFromConfig(&cfg.Export, nil)
	if s.Serialize.IconSize != 24 || !s.Serialize.XMLDeclaration {
		t.Errorf("serialize options not mapped: %+v", s.Serialize)
	}
	if s.Package.DefaultName != "regex-graph" || s.FontSize != 16 || s.Serialize.TextFill != "#111827" {
		t.Errorf("unexpected settings: %+v", s)
	}
}
