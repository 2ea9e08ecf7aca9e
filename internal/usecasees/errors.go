package usecasees

import (
	"fmt"

	"github.com/pkg/errors"
)

// Remote-call failures are normalized into these types at the gateway
// boundary. Nothing above the gateway handles venue-specific errors.
var (
	ErrTransientNetwork = errors.New("transient network error")
	ErrRateLimited      = errors.New("rate limited by venue")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrVenueUnavailable = errors.New("venue unavailable")
	ErrCompletionWait   = errors.New("completion wait timed out")

	ErrDuplicateOrder  = errors.New("order id already active")
	ErrUnknownStrategy = errors.New("unknown strategy tag")
	ErrNoRoute         = errors.New("no routable price")
)

// VenueError carries the venue's own error code alongside the normalized
// class so logs keep the raw detail.
type VenueError struct {
	Venue string
	Code  int
	Msg   string
	Class error
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("%s: code=%d msg=%q", e.Venue, e.Code, e.Msg)
}

func (e *VenueError) Unwrap() error {
	return e.Class
}

// Retryable reports whether err is worth another attempt. Malformed
// requests are not: a retry would only mask the logic bug that built them.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientNetwork) || errors.Is(err, ErrRateLimited)
}

// IsInvalidRequest reports whether the venue definitively refused the
// request, as opposed to failing to answer it.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
