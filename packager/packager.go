package packager

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gosimple/slug"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"regraph/common"
	"regraph/config"
	"regraph/serialize"
)

// DefaultName is base file name used when none is given.
const DefaultName = "regex-graph"

// Options of packager.
type Options struct {
	DefaultName   string
	Transliterate bool
	// TempDir keeps transient artifacts, system default when empty.
	TempDir string
}

// Packager wraps exported document into artifact and saves it.
type Packager struct {
	opts Options
	log  *zap.Logger
}

func New(opts Options, log *zap.Logger) *Packager {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultName == "" {
		opts.DefaultName = DefaultName
	}
	return &Packager{opts: opts, log: log.Named("packager")}
}

// FileName returns file name for base name: cleaned, optionally
// transliterated and always with svg extension.
func (p *Packager) FileName(basename string) string {
	ext := common.ExportFormatSvg.Ext()

	name := strings.TrimSpace(basename)
	if strings.HasSuffix(strings.ToLower(name), ext) {
		name = name[:len(name)-len(ext)]
	}
	if name != "" && p.opts.Transliterate {
		name = slug.Make(name)
	}
	if strings.TrimSpace(name) == "" {
		name = p.opts.DefaultName
	}
	return config.CleanFileName(name) + ext
}

// Package saves document under base name using saver. Transient handle is
// released on every path, release failure is reported together with save
// failure.
func (p *Packager) Package(doc *serialize.Document, basename string, saver Saver) (err error) {
	if doc == nil {
		return fmt.Errorf("nothing to package")
	}

	a := Artifact{Data: []byte(doc.Markup), MediaType: common.ExportFormatSvg.MediaType()}
	if mt := mimetype.Detect(a.Data); !mt.Is("image/svg+xml") {
		p.log.Warn("Artifact content does not look like declared media type",
			zap.String("declared", a.MediaType), zap.String("detected", mt.String()))
	}

	h, err := Open(a, p.opts.TempDir)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, h.Release())
		p.log.Debug("Handle released", zap.String("id", h.ID))
	}()

	filename := p.FileName(basename)
	p.log.Debug("Saving artifact", zap.String("id", h.ID), zap.String("file", filename), zap.Int64("size", h.Size))
	if err := saver.Save(h, filename); err != nil {
		return fmt.Errorf("unable to save '%s': %w", filename, err)
	}
	return nil
}
