// Package export turns rendered diagram into self-contained SVG artifact.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"regraph/common"
	"regraph/config"
	"regraph/css"
	"regraph/flatten"
	"regraph/icons"
	"regraph/packager"
	"regraph/serialize"
	"regraph/theme"
)

// Settings are fixed for the lifetime of Exporter.
type Settings struct {
	// Table is icon signature table, default table when nil.
	Table     *icons.Table
	FontSize  float64
	Serialize serialize.Options
	Package   packager.Options
}

// SettingsFromConfig maps export configuration section onto Settings.
func SettingsFromConfig(cfg *config.ExportConfig, table *icons.Table) Settings {
	s := Settings{Table: table, Serialize: serialize.DefaultOptions()}
	if cfg == nil {
		return s
	}
	s.FontSize = cfg.Text.FontSize
	s.Serialize.IconSize = cfg.IconSize
	s.Serialize.XMLDeclaration = cfg.XMLDeclaration
	if cfg.Text.Fill != "" {
		s.Serialize.TextFill = cfg.Text.Fill
	}
	s.Package = packager.Options{DefaultName: cfg.DefaultName, Transliterate: cfg.FileNameTransliterate}
	return s
}

// Options of a single export call.
type Options struct {
	// Theme supplies presentation color variables, defaults are used when nil.
	Theme theme.ColorProvider
	// Saver delivers the artifact, required by Export.
	Saver packager.Saver
	// Report receives intermediate results when not nil.
	Report *config.Report
}

// Exporter runs export pipeline. It holds no per-call state and could be
// reused.
type Exporter struct {
	table      *icons.Table
	flattener  *flatten.Flattener
	serializer *serialize.Serializer
	packager   *packager.Packager
	log        *zap.Logger
}

func New(s Settings, log *zap.Logger) (*Exporter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("export")

	if s.Table == nil {
		s.Table = icons.DefaultTable()
	}
	ser, err := serialize.New(s.Table, s.Serialize, log)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare serializer: %w", err)
	}
	return &Exporter{
		table:      s.Table,
		flattener:  flatten.New(icons.NewClassifier(s.Table), s.FontSize, log),
		serializer: ser,
		packager:   packager.New(s.Package, log),
		log:        log,
	}, nil
}

// Export builds document for diagram found at element and hands it to saver
// under file name derived from filename. Element is never modified. Nothing
// is created when format is not supported or diagram cannot be found.
func (e *Exporter) Export(format string, element *etree.Element, filename string, opts Options) error {
	f, err := common.ParseExportFormat(strings.ToLower(strings.TrimSpace(format)))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if opts.Saver == nil {
		return fmt.Errorf("%w: no saver", ErrDownloadTrigger)
	}

	defer func(start time.Time) {
		e.log.Debug("Export finished", zap.Stringer("format", f), zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	doc, err := e.ExportDocument(element, opts)
	if err != nil {
		return err
	}
	if err := e.packager.Package(doc, filename, opts.Saver); err != nil {
		return fmt.Errorf("%w: %w", ErrDownloadTrigger, err)
	}
	return nil
}

// ExportDocument builds exported document without delivering it.
func (e *Exporter) ExportDocument(element *etree.Element, opts Options) (*serialize.Document, error) {
	root := FindDiagram(element)
	if root == nil {
		return nil, ErrDiagramNotFound
	}

	colors := theme.NewResolver(opts.Theme, e.log).Resolve()
	style := css.Inline(colors)

	tree := root.Copy()
	regions := e.flattener.Regions(tree)
	e.log.Debug("Diagram prepared", zap.Int("regions", len(regions)))
	if opts.Report != nil {
		opts.Report.StoreData("regions.txt", []byte(flatten.DumpRegions(regions)))
	}

	doc, err := e.serializer.Serialize(tree, style, regions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if opts.Report != nil {
		opts.Report.StoreData("exported.svg", []byte(doc.Markup))
	}
	return doc, nil
}

// FindDiagram returns element itself when it is diagram root, otherwise its
// first descendant diagram root in document order, or nil.
func FindDiagram(el *etree.Element) *etree.Element {
	if el == nil {
		return nil
	}
	if isDiagramRoot(el) {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := FindDiagram(child); found != nil {
			return found
		}
	}
	return nil
}

func isDiagramRoot(el *etree.Element) bool {
	return strings.EqualFold(el.Tag, "svg")
}
