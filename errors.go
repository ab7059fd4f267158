package drawinganalyzer

import "github.com/menta2k/drawing-analyzer/internal/errs"

var (
	// ErrEmptyResponse is returned when a vision backend answers with no text.
	ErrEmptyResponse = errs.ErrEmptyResponse

	// ErrBackendUnavailable is returned when a vision backend cannot be reached.
	ErrBackendUnavailable = errs.ErrBackendUnavailable

	// ErrInvalidImage is returned when an input image cannot be decoded or is too small.
	ErrInvalidImage = errs.ErrInvalidImage

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errs.ErrInvalidConfig

	// ErrUnknownBackend is returned for a backend name that is not supported.
	ErrUnknownBackend = errs.ErrUnknownBackend
)
