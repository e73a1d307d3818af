package icons

// Glyph is semantic meaning of recognized icon widget.
type Glyph int

const (
	Unknown Glyph = iota
	Infinity
	LoopRepeat
)

func (g Glyph) String() string {
	switch g {
	case Infinity:
		return "infinity"
	case LoopRepeat:
		return "loop-repeat"
	default:
		return "unknown"
	}
}

// Result of icon classification. Fallback is only set for Unknown glyphs and
// holds accessible label or title of the icon, possibly empty.
type Result struct {
	Glyph    Glyph
	Fallback string
}

// Recognized reports whether icon matched one of the signatures.
func (r Result) Recognized() bool {
	return r.Glyph != Unknown
}
