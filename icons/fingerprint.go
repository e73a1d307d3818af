package icons

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Shape fingerprints compare icons by geometry rather than by text of path
// data: relative and absolute commands, different number formatting and arc
// vs. bezier encodings of the same outline end up in the same compiled path.
// Compiled outline is moved to origin and scaled to unit box, so icons
// rendered at a different position or size still match.

// fingerprintGrid is quantization of unit box used before hashing.
const fingerprintGrid = 256

type compiledPath struct {
	cmds []rasterx.PathCommand
	pts  []float64 // x, y pairs
}

// compilePath turns path data into absolute outline. Malformed data reports
// false, oksvg parser is not trusted to never panic on garbage.
func compilePath(d string) (cp compiledPath, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	var cursor oksvg.PathCursor
	if err := cursor.CompilePath(d); err != nil {
		return cp, false
	}
	p := cursor.Path
	for i := 0; i < len(p); {
		cmd := rasterx.PathCommand(p[i])
		var n int
		switch cmd {
		case rasterx.PathMoveTo, rasterx.PathLineTo:
			n = 2
		case rasterx.PathQuadTo:
			n = 4
		case rasterx.PathCubicTo:
			n = 6
		case rasterx.PathClose:
			n = 0
		default:
			return cp, false
		}
		if i+1+n > len(p) {
			return cp, false
		}
		cp.cmds = append(cp.cmds, cmd)
		for _, v := range p[i+1 : i+1+n] {
			cp.pts = append(cp.pts, float64(v)/64)
		}
		i += 1 + n
	}
	return cp, len(cp.cmds) > 0
}

// ShapeFingerprint returns canonical descriptor of the outline formed by all
// paths together. Any malformed path makes whole shape unrecognizable.
func ShapeFingerprint(paths []string) (uint64, bool) {
	if len(paths) == 0 {
		return 0, false
	}

	compiled := make([]compiledPath, 0, len(paths))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, d := range paths {
		cp, ok := compilePath(d)
		if !ok {
			return 0, false
		}
		for i := 0; i+1 < len(cp.pts); i += 2 {
			minX, maxX = min(minX, cp.pts[i]), max(maxX, cp.pts[i])
			minY, maxY = min(minY, cp.pts[i+1]), max(maxY, cp.pts[i+1])
		}
		compiled = append(compiled, cp)
	}
	if math.IsInf(minX, 0) {
		return 0, false
	}

	scale := max(maxX-minX, maxY-minY)
	if scale == 0 {
		scale = 1
	}

	// paths may come in any order, sort per path hashes before combining
	sums := make([]uint64, 0, len(compiled))
	var buf []byte
	for _, cp := range compiled {
		buf = buf[:0]
		for _, cmd := range cp.cmds {
			buf = append(buf, byte(cmd))
		}
		for i := 0; i+1 < len(cp.pts); i += 2 {
			buf = binary.AppendVarint(buf, int64(math.Round((cp.pts[i]-minX)/scale*fingerprintGrid)))
			buf = binary.AppendVarint(buf, int64(math.Round((cp.pts[i+1]-minY)/scale*fingerprintGrid)))
		}
		sums = append(sums, xxhash.Sum64(buf))
	}
	slices.Sort(sums)

	d := xxhash.New()
	for _, s := range sums {
		_, _ = d.Write(binary.LittleEndian.AppendUint64(nil, s))
	}
	return d.Sum64(), true
}
