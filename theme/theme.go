package theme

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// Names of presentation color variables.
const (
	VarGraph      = "--graph"
	VarForeground = "--foreground"
	VarBackground = "--background"
)

// Default colors used when variable is missing or malformed.
const (
	DefaultForeground = "#000000"
	DefaultBackground = "#ffffff"
)

// Colors are theme colors resolved to hex form.
type Colors struct {
	Graph      string
	Foreground string
	Background string
}

// ColorProvider gives access to presentation color variables.
type ColorProvider interface {
	Resolve(name string) (string, bool)
}

// MapProvider serves variables from fixed table. Names are expected with
// leading dashes.
type MapProvider map[string]string

func (m MapProvider) Resolve(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Chain asks providers in order, first one having non empty value wins.
type Chain []ColorProvider

func (c Chain) Resolve(name string) (string, bool) {
	for _, p := range c {
		if p == nil {
			continue
		}
		if v, ok := p.Resolve(name); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// Resolver turns presentation variables into fixed colors.
type Resolver struct {
	provider ColorProvider
	log      *zap.Logger
}

func NewResolver(provider ColorProvider, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{provider: provider, log: log.Named("theme")}
}

// Resolve reads graph, foreground and background variables. It never fails,
// anything unusable is replaced by defaults. Graph color given in any form
// other than hex follows foreground.
func (r *Resolver) Resolve() Colors {
	graph := r.lookup(VarGraph)
	fg := r.lookup(VarForeground)
	bg := r.lookup(VarBackground)

	var c Colors
	c.Foreground = r.convert(VarForeground, fg, DefaultForeground)
	c.Background = r.convert(VarBackground, bg, DefaultBackground)
	switch {
	case graph == "":
		c.Graph = DefaultForeground
	case strings.HasPrefix(graph, "#"):
		c.Graph = r.convert(VarGraph, graph, DefaultForeground)
	default:
		c.Graph = c.Foreground
	}

	r.log.Debug("Theme colors resolved",
		zap.String("graph", c.Graph), zap.String("foreground", c.Foreground), zap.String("background", c.Background))
	return c
}

func (r *Resolver) lookup(name string) string {
	if r.provider == nil {
		return ""
	}
	v, _ := r.provider.Resolve(name)
	return strings.TrimSpace(v)
}

func (r *Resolver) convert(name, value, def string) string {
	if value == "" {
		return def
	}
	hex, ok := ToHex(value)
	if !ok {
		r.log.Debug("Malformed color, using default", zap.String("variable", name), zap.String("value", value), zap.String("default", def))
		return def
	}
	return hex
}

var (
	hslTriplet  = regexp.MustCompile(`^([+-]?[\d.]+)(?:deg)?[\s,]+([\d.]+)%[\s,]+([\d.]+)%$`)
	hslFunction = regexp.MustCompile(`(?i)^hsla?\((.*)\)$`)
)

// ToHex converts color to #rrggbb form. Hex colors are returned unchanged,
// HSL triplets ("210 40% 98%") and hsl() functions are converted.
func ToHex(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "#") {
		if !isHex(value) {
			return "", false
		}
		return value, true
	}

	if m := hslFunction.FindStringSubmatch(value); m != nil {
		value = m[1]
		// alpha is not representable in #rrggbb
		if i := strings.IndexByte(value, '/'); i >= 0 {
			value = value[:i]
		} else if parts := strings.Split(value, ","); len(parts) == 4 {
			value = strings.Join(parts[:3], ",")
		}
		value = strings.TrimSpace(value)
	}

	m := hslTriplet.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	h, errH := strconv.ParseFloat(m[1], 64)
	s, errS := strconv.ParseFloat(m[2], 64)
	l, errL := strconv.ParseFloat(m[3], 64)
	if errH != nil || errS != nil || errL != nil || s > 100 || l > 100 {
		return "", false
	}
	h = normalizeHue(h)
	return colorful.Hsl(h, s/100, l/100).Clamped().Hex(), true
}

func normalizeHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// isHex accepts 3, 4, 6 and 8 digit hex colors.
func isHex(value string) bool {
	switch len(value) {
	case 4, 7:
		_, err := colorful.Hex(value)
		return err == nil
	case 5, 9:
		_, err := strconv.ParseUint(value[1:], 16, 32)
		return err == nil
	}
	return false
}
