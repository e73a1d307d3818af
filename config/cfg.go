package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"regraph/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	TextConfig struct {
		FontSize float64 `yaml:"font_size" validate:"gt=0"`
		Fill     string  `yaml:"fill" validate:"required"`
	}

	ExportConfig struct {
		DefaultName           string     `yaml:"default_name" validate:"required"`
		OutputNameTemplate    string     `yaml:"output_name_template"`
		FileNameTransliterate bool       `yaml:"file_name_transliterate"`
		IconSize              float64    `yaml:"icon_size" validate:"gt=0,lte=512"`
		XMLDeclaration        bool       `yaml:"xml_declaration"`
		Text                  TextConfig `yaml:"text"`
	}

	ThemeConfig struct {
		StylesheetPath string            `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		Mode           common.ThemeMode  `yaml:"mode" validate:"gte=0"`
		DarkSelector   string            `yaml:"dark_selector" validate:"required"`
		Variables      map[string]string `yaml:"variables"`
	}

	BrowserConfig struct {
		RemoteURL string        `yaml:"remote_url" validate:"omitempty,url"`
		Selector  string        `yaml:"selector" validate:"required"`
		Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Export    ExportConfig   `yaml:"export"`
		Theme     ThemeConfig    `yaml:"theme"`
		Browser   BrowserConfig  `yaml:"browser"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// Only fields we defined are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template which
// provides defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
