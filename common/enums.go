// Package common keeps enums shared between configuration, command line and
// export pipeline.
package common

// Specification of requested export format.
// ENUM(svg)
type ExportFormat int

// Ext returns file name extension (with dot) for the format.
func (f ExportFormat) Ext() string {
	switch f {
	case ExportFormatSvg:
		return ".svg"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// MediaType returns declared media type of exported artifact.
func (f ExportFormat) MediaType() string {
	switch f {
	case ExportFormatSvg:
		return "image/svg+xml;charset=utf-8"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}

// Presentation theme of the live view.
// ENUM(light, dark)
type ThemeMode int
