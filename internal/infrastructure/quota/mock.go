package quota

import (
	"context"
	"sync"
	"time"
)

// StubGuard is a scriptable guard for tests. By default it permits everything.
type StubGuard struct {
	mutex    sync.Mutex
	verdict  Verdict
	checkErr error
	checks   []string
	records  []string
}

func NewStubGuard() *StubGuard {
	return &StubGuard{
		verdict: Verdict{Allowed: true},
	}
}

// Deny makes subsequent checks come back denied.
func (g *StubGuard) Deny(reason string, retryAfter time.Duration) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.verdict = Verdict{Allowed: false, Reason: reason, RetryAfter: retryAfter}
}

// FailChecks makes subsequent checks fail with err.
func (g *StubGuard) FailChecks(err error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.checkErr = err
}

func (g *StubGuard) Checks() []string {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return append([]string(nil), g.checks...)
}

func (g *StubGuard) Records() []string {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	return append([]string(nil), g.records...)
}

func (g *StubGuard) Check(ctx context.Context, callerID string) (Verdict, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.checks = append(g.checks, callerID)
	if g.checkErr != nil {
		return Verdict{}, g.checkErr
	}
	return g.verdict, nil
}

func (g *StubGuard) Record(ctx context.Context, callerID, event string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.records = append(g.records, event+":"+callerID)
	return nil
}

func (g *StubGuard) Close(ctx context.Context) error {
	return nil
}
