package flatten

import (
	"sort"

	"github.com/maruel/natural"

	"regraph/utils/debug"
)

// DumpRegions returns readable tree of flattened regions ordered by their
// ids. It exists solely for debug report.
func DumpRegions(regions []Region) string {
	tw := debug.NewTreeWriter()
	tw.Line(0, "Regions: %d", len(regions))

	order := make([]int, len(regions))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return natural.Less(regions[order[a]].ID, regions[order[b]].ID)
	})

	for _, i := range order {
		r := &regions[i]
		tw.Line(1, "Region[%q] box[%g,%g %gx%g] font[%g]", r.ID, r.Box.X, r.Box.Y, r.Box.Width, r.Box.Height, r.FontSize)
		tw.TextBlock(2, "Text", r.Text)
		for i, n := range r.Nodes {
			if n.Kind == Icon {
				tw.Line(2, "Node[%d] %s glyph[%s] markup[%d bytes]", i, n.Kind, n.Glyph, len(n.NativeMarkup))
				tw.Section(3, n.NativeMarkup)
				continue
			}
			tw.TextBlock(2, "Node["+n.Kind.String()+"]", n.Text)
		}
	}
	return tw.String()
}

// String returns readable tree of single region.
func (r Region) String() string {
	return DumpRegions([]Region{r})
}
