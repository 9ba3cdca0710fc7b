package entity

import (
	"context"
	"encoding/hex"
)

// Caller identifies the client issuing a request; the usage guard keys
// quota counters on it.
type Caller struct {
	UID []byte
}

func (c *Caller) String() string {
	return hex.EncodeToString(c.UID)
}

type callerCtxKey struct{}

var CallerCtxKey = callerCtxKey{}

func CallerFromContext(ctx context.Context) *Caller {
	if c, ok := ctx.Value(CallerCtxKey).(*Caller); ok {
		return c
	}
	return nil
}
