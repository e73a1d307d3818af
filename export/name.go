package export

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"go.uber.org/zap"

	"regraph/common"
	"regraph/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	Name    string
	Format  string
	Source  string
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values.Context = string(name)

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// OutputName returns base name of exported file. Requested name wins over
// configured default; when output name template is configured it is expanded
// on top of that. Template failures fall back to the plain name.
func OutputName(cfg *config.ExportConfig, requested, src string, format common.ExportFormat, log *zap.Logger) string {
	name := strings.TrimSpace(requested)
	if name == "" {
		name = cfg.DefaultName
	}
	if cfg.OutputNameTemplate == "" {
		return name
	}

	var source string
	if src != "" {
		source = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	expanded, err := expandTemplate(config.OutputNameTemplateFieldName, cfg.OutputNameTemplate, Values{
		Name:   name,
		Format: format.String(),
		Source: source,
	})
	if err != nil {
		if log != nil {
			log.Warn("Unable to prepare output filename", zap.Error(err))
		}
		return name
	}
	if expanded = strings.TrimSpace(expanded); expanded == "" {
		return name
	}
	return expanded
}
