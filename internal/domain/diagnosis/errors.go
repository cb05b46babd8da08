package diagnosis

import "errors"

var (
	// ErrEmptyFilename rejects uploads with a blank client filename.
	ErrEmptyFilename = errors.New("empty filename")

	// ErrUnsupportedType rejects extensions outside the allowed set.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrInvalidFilename rejects names that sanitize to nothing usable.
	ErrInvalidFilename = errors.New("invalid filename")

	// ErrAnalysis wraps analyzer failures surfaced in strict mode.
	ErrAnalysis = errors.New("image analysis failed")
)
