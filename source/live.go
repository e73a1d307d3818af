package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LiveOptions describe how to reach live diagram view.
type LiveOptions struct {
	// RemoteURL is DevTools websocket of already running browser, local
	// headless browser is launched when empty.
	RemoteURL string
	// Selector of element containing diagram.
	Selector string
	Timeout  time.Duration
}

// Live is diagram view open in a browser page. It also provides presentation
// colors of the page (computed custom properties of document root).
type Live struct {
	opts     LiveOptions
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	log      *zap.Logger
}

// OpenLive navigates browser to page URL and waits for page to load.
func OpenLive(ctx context.Context, pageURL string, opts LiveOptions, log *zap.Logger) (_ *Live, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	l := &Live{opts: opts, log: log.Named("live")}

	defer func() {
		if err != nil {
			err = multierr.Append(err, l.Close())
		}
	}()

	wsURL := opts.RemoteURL
	if wsURL == "" {
		l.launcher = launcher.New().Headless(true).Context(ctx)
		if wsURL, err = l.launcher.Launch(); err != nil {
			return nil, fmt.Errorf("unable to launch browser: %w", err)
		}
		l.log.Debug("Local browser launched", zap.String("url", wsURL))
	} else {
		l.log.Debug("Connecting to remote browser", zap.String("url", wsURL))
	}

	l.browser = rod.New().ControlURL(wsURL).Context(ctx)
	if err := l.browser.Connect(); err != nil {
		return nil, fmt.Errorf("unable to connect to browser: %w", err)
	}

	if l.page, err = l.browser.Page(proto.TargetCreateTarget{URL: ""}); err != nil {
		return nil, fmt.Errorf("unable to open page: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	if err := l.page.Context(navCtx).Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("unable to navigate to %s: %w", pageURL, err)
	}
	if err := l.page.Context(navCtx).WaitLoad(); err != nil {
		l.log.Warn("Page did not finish loading", zap.String("url", pageURL), zap.Error(err))
	}
	return l, nil
}

// Diagram captures current diagram of the page. It returns container element
// holding diagram, see ParseHTML.
func (l *Live) Diagram(ctx context.Context) (*etree.Element, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	res, err := l.page.Context(ctx).Eval(`(sel) => {
		const el = document.querySelector(sel);
		return el ? el.outerHTML : "";
	}`, l.opts.Selector)
	if err != nil {
		return nil, fmt.Errorf("unable to capture diagram: %w", err)
	}
	markup := res.Value.Str()
	if markup == "" {
		l.log.Debug("Diagram container not found", zap.String("selector", l.opts.Selector))
	}
	return ParseHTML(strings.NewReader(markup))
}

// Stylesheets returns text of page stylesheets accessible to scripts.
func (l *Live) Stylesheets(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	defer cancel()

	res, err := l.page.Context(ctx).Eval(`() => Array.from(document.styleSheets).map((s) => {
		try { return Array.from(s.cssRules).map((r) => r.cssText).join("\n"); } catch (e) { return ""; }
	}).join("\n")`)
	if err != nil {
		return "", fmt.Errorf("unable to read stylesheets: %w", err)
	}
	return res.Value.Str(), nil
}

// Resolve returns computed value of custom property on document root.
func (l *Live) Resolve(name string) (string, bool) {
	if l.page == nil {
		return "", false
	}
	if !strings.HasPrefix(name, "--") {
		name = "--" + name
	}
	res, err := l.page.Timeout(l.opts.Timeout).Eval(`(name) => getComputedStyle(document.documentElement).getPropertyValue(name)`, name)
	if err != nil {
		l.log.Debug("Unable to read color variable", zap.String("name", name), zap.Error(err))
		return "", false
	}
	v := strings.TrimSpace(res.Value.Str())
	return v, v != ""
}

// Close releases page and browser.
func (l *Live) Close() (err error) {
	if l.page != nil {
		err = multierr.Append(err, l.page.Close())
		l.page = nil
	}
	if l.browser != nil {
		if l.launcher != nil {
			// local browser goes away with launcher
			err = multierr.Append(err, l.browser.Close())
		}
		l.browser = nil
	}
	if l.launcher != nil {
		l.launcher.Kill()
		l.launcher = nil
	}
	if err != nil {
		return fmt.Errorf("unable to close browser cleanly: %w", err)
	}
	return nil
}
