package quota

import (
	"context"
	"errors"
	"time"
)

// Events the guard accounts for.
const (
	EventCreate  = "create"
	EventResolve = "resolve"
)

// ErrUnavailable reports that the guard could not be reached. It is distinct
// from a denial: callers must not treat it as an answer either way.
var ErrUnavailable = errors.New("usage guard is unavailable")

// Verdict is the guard's answer to "may this caller create a link now?".
type Verdict struct {
	Allowed    bool
	Reason     string
	RetryAfter time.Duration
}

// Guard decides whether a caller is within quota and records usage events.
// Record is invoked fire-and-forget; its failures never block a request.
type Guard interface {
	Check(ctx context.Context, callerID string) (Verdict, error)
	Record(ctx context.Context, callerID, event string) error

	Close(ctx context.Context) error
}
