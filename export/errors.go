package export

import "errors"

// Failures of export pipeline, always wrapped, check with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrDiagramNotFound   = errors.New("diagram not found")
	ErrSerialization     = errors.New("unable to serialize diagram")
	ErrDownloadTrigger   = errors.New("unable to deliver exported file")
)
