package css

import (
	"regraph/theme"
)

// exportRules force black strokes and text on transparent background
// regardless of theme palette.
const exportRules = `
    .stroke-graph { stroke: #000000 !important; stroke-width: 1; }
    .fill-transparent { fill: transparent !important; }
    .text-foreground { fill: #000000 !important; }
    .rounded-lg { rx: 8; ry: 8; }
    .border { stroke: #000000 !important; stroke-width: 1; }
    .font-mono { font-family: ui-monospace, SFMono-Regular, "SF Mono", Consolas, "Liberation Mono", Menlo, monospace; }
    .text-center { text-anchor: middle; }
    .whitespace-nowrap { white-space: nowrap; }
    .leading-normal { line-height: 1.5; }
    .pointer-events-none { pointer-events: none; }
    text { fill: #000000 !important; }
    path { stroke: #000000 !important; }
    rect { stroke: #000000 !important; }
    circle { stroke: #000000 !important; }
    line { stroke: #000000 !important; }
  `

// Inline returns style fragment embedded into exported document. Resolved
// colors are ignored, the fragment is always the same.
func Inline(_ theme.Colors) string {
	return exportRules
}
