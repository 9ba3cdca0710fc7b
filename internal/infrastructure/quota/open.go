package quota

import "context"

// OpenGuard permits everything and records nothing. It stands in when no
// quota backend is reachable at boot, so link creation keeps working.
type OpenGuard struct{}

func NewOpenGuard() *OpenGuard {
	return &OpenGuard{}
}

func (g *OpenGuard) Check(ctx context.Context, callerID string) (Verdict, error) {
	return Verdict{Allowed: true}, nil
}

func (g *OpenGuard) Record(ctx context.Context, callerID, event string) error {
	return nil
}

func (g *OpenGuard) Close(ctx context.Context) error {
	return nil
}
