package pkg

import "errors"

var (
	// ErrMalformedFrame marks an inbound frame that does not parse to a
	// known shape. The frame is dropped without touching room state.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrStaleStroke marks a drawing frame referencing a stroke that has
	// already ended, never existed (for draw_end), or belongs to another
	// client.
	ErrStaleStroke = errors.New("stale stroke")

	// ErrCapacityExceeded is returned when the registry is full.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrSendBufferFull is returned when a session's outbound buffer is
	// full. The frame for that session is dropped; delivery is
	// best-effort per connection.
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrSessionClosed is returned by Send once the session's read pump
	// has exited. The frame is dropped silently; the session is on its
	// way out of the registry.
	ErrSessionClosed = errors.New("session closed")
)
