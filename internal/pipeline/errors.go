package pipeline

import "errors"

// Failure kinds. Result.Err wraps exactly one of them.
var (
	// ErrInvalidInput is returned when the input is missing, unreadable or
	// has no audio track.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfig is returned when a parameter is out of range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrNoSurvivingSegments is returned when nothing is left after
	// detection and padding.
	ErrNoSurvivingSegments = errors.New("no surviving segments")
	// ErrSegmentExtraction is returned when no segment could be extracted.
	ErrSegmentExtraction = errors.New("segment extraction failed")
	// ErrEncoding is returned when concatenating or writing the output fails.
	ErrEncoding = errors.New("encoding failed")
	// ErrCancelled is returned when the context ends before the run finishes.
	ErrCancelled = errors.New("processing cancelled")
	// ErrInternal is returned when a collaborator panics.
	ErrInternal = errors.New("internal error")
)

// ErrorMessagePrefix starts the final progress message of a failed run.
const ErrorMessagePrefix = "Error: "
