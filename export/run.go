package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"regraph/common"
	"regraph/config"
	"regraph/css"
	"regraph/packager"
	"regraph/source"
	"regraph/state"
	"regraph/theme"
)

// StdoutDestination as destination writes exported document to standard output.
const StdoutDestination = "-"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("export")

	args := cmd.Args().Slice()
	pageURL := cmd.String("url")

	var src string
	if pageURL == "" {
		if len(args) == 0 {
			return errors.New("no input source has been specified")
		}
		if src, err = filepath.Abs(args[0]); err != nil {
			return err
		}
		args = args[1:]
	}

	var dst string
	if len(args) > 0 {
		dst = args[0]
		if len(args) > 1 {
			log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", args[1:]))
		}
	}
	env.Overwrite = cmd.Bool("overwrite")
	saver, dst, err := prepareSaver(dst, env.Overwrite)
	if err != nil {
		return err
	}

	if mode := cmd.String("theme"); mode != "" {
		if m, err := common.ParseThemeMode(mode); err != nil {
			log.Warn("Unknown theme mode requested, using configured one", zap.String("theme", mode), zap.Error(err))
		} else {
			env.Cfg.Theme.Mode = m
		}
	}

	providers := theme.Chain{configVariables(env.Cfg.Theme.Variables)}

	var root *etree.Element
	if pageURL != "" {
		var live *source.Live
		live, err = source.OpenLive(ctx, pageURL, liveOptions(&env.Cfg.Browser, cmd.String("selector")), log)
		if err != nil {
			return err
		}
		defer func() {
			err = multierr.Append(err, live.Close())
		}()

		if root, err = live.Diagram(ctx); err != nil {
			return err
		}
		if env.Rpt != nil {
			doc := etree.NewDocument()
			doc.SetRoot(root.Copy())
			if markup, err := doc.WriteToString(); err == nil {
				env.Rpt.StoreData("source.html", []byte(markup))
			}
		}
		if text, err := live.Stylesheets(ctx); err != nil {
			log.Warn("Unable to read page stylesheets", zap.Error(err))
		} else {
			env.Rpt.StoreData("page.css", []byte(text))
			providers = append(providers, stylesheetVariables([]byte(text), pageURL, env, log))
		}
		providers = append(providers, live)
	} else {
		if root, err = source.LoadFile(src); err != nil {
			return fmt.Errorf("unable to load diagram: %w", err)
		}
		env.Rpt.Store("source"+filepath.Ext(src), src)
	}

	if path := env.Cfg.Theme.StylesheetPath; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to read stylesheet from %q: %w", path, err)
		}
		env.Rpt.Store("stylesheet.css", path)
		// explicit stylesheet is consulted before the page
		providers = append(theme.Chain{providers[0], stylesheetVariables(data, path, env, log)}, providers[1:]...)
	}

	format := cmd.String("to")
	f, _ := common.ParseExportFormat(format)
	name := OutputName(&env.Cfg.Export, cmd.String("name"), src, f, log)

	e, err := New(SettingsFromConfig(&env.Cfg.Export, env.Icons), log)
	if err != nil {
		return err
	}

	from := src
	if from == "" {
		from = pageURL
	}
	log.Info("Processing starting", zap.String("source", from), zap.String("destination", dst), zap.String("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return e.Export(format, root, name, Options{Theme: providers, Saver: saver, Report: env.Rpt})
}

func prepareSaver(dst string, overwrite bool) (packager.Saver, string, error) {
	if dst == StdoutDestination {
		return packager.WriterSaver{W: os.Stdout}, "STDOUT", nil
	}
	var err error
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return nil, "", fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return nil, "", err
	}
	return packager.DirSaver{Dir: dst, Overwrite: overwrite}, dst, nil
}

func liveOptions(cfg *config.BrowserConfig, selector string) source.LiveOptions {
	opts := source.LiveOptions{RemoteURL: cfg.RemoteURL, Selector: cfg.Selector, Timeout: cfg.Timeout}
	if selector != "" {
		opts.Selector = selector
	}
	return opts
}

// configVariables accepts names with or without leading dashes.
func configVariables(vars map[string]string) theme.MapProvider {
	m := make(theme.MapProvider, len(vars))
	for name, value := range vars {
		m["--"+strings.TrimLeft(name, "-")] = value
	}
	return m
}

func stylesheetVariables(data []byte, from string, env *state.LocalEnv, log *zap.Logger) *css.Variables {
	sheet := css.NewParser(log).Parse(data, from)
	for _, w := range sheet.Warnings {
		log.Debug("Stylesheet warning", zap.String("source", from), zap.String("warning", w))
	}
	env.Rpt.StoreData("parsed.css", []byte(sheet.String()))
	return css.NewVariables(sheet, env.Cfg.Theme.Mode, env.Cfg.Theme.DarkSelector)
}
