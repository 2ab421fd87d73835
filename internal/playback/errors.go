package playback

import "errors"

var (
	// Engine errors
	ErrDecode       = errors.New("audio payload could not be decoded")
	ErrContext      = errors.New("rendering context could not be resumed")
	ErrEngineClosed = errors.New("playback engine is closed")

	// Queue errors
	ErrInvalidIndex = errors.New("invalid queue index")
	ErrNotPlaying   = errors.New("queue is not playing")
	ErrNotPaused    = errors.New("queue is not paused")

	// Service errors
	ErrServiceClosed = errors.New("playback service is closed")
	ErrSuperseded    = errors.New("request superseded by a newer playback")
	ErrNoGenerator   = errors.New("no speech generator configured")
)

// Error records which component and action failed.
type Error struct {
	Err       error  // The underlying error
	Component string // Component that generated the error
	Action    string // Action being performed when error occurred
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Component + ": " + e.Action + ": unknown playback error"
	}
	return e.Component + ": " + e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(err error, component, action string) *Error {
	return &Error{Err: err, Component: component, Action: action}
}
