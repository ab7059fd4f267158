// Package errs holds the sentinel errors shared by the backends, the
// detection service and the root package.
package errs

import "errors"

var (
	ErrEmptyResponse      = errors.New("drawinganalyzer: empty response from vision backend")
	ErrBackendUnavailable = errors.New("drawinganalyzer: vision backend unavailable")
	ErrInvalidImage       = errors.New("drawinganalyzer: invalid image")
	ErrInvalidConfig      = errors.New("drawinganalyzer: invalid configuration")
	ErrUnknownBackend     = errors.New("drawinganalyzer: unknown backend")
)
