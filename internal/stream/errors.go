package stream

import (
	"errors"
	"fmt"
)

// StreamError reports a caller contract violation.
type StreamError struct {
	Code    StreamErrorCode
	Message string
	TrackID int
}

// StreamErrorCode categorizes stream errors.
type StreamErrorCode string

const (
	// ErrCodeUnknownTrack means a step arrived for a track the side table
	// does not know.
	ErrCodeUnknownTrack StreamErrorCode = "UNKNOWN_TRACK"

	// ErrCodeDuplicateTrack means StartPrimary was called for a live track.
	ErrCodeDuplicateTrack StreamErrorCode = "DUPLICATE_TRACK"

	// ErrCodeBadPrimary means a primary index outside the declared
	// initial particles.
	ErrCodeBadPrimary StreamErrorCode = "BAD_PRIMARY"
)

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s: %s (track=%d)", e.Code, e.Message, e.TrackID)
}

// IsUnknownTrack reports whether err is an unknown-track error.
func IsUnknownTrack(err error) bool {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnknownTrack
	}
	return false
}

// StepsExceededError describes a track that tripped the runaway guard.
// It is never returned from Step; Outcome.Err carries it for diagnostics.
type StepsExceededError struct {
	TrackID int
	Steps   int
	Limit   int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("track %d exceeded max steps: %d steps > %d limit",
		e.TrackID, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
