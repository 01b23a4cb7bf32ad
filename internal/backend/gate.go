package backend

import (
	"context"
	"sync"
)

// Gate collapses concurrent token refreshes for a session into a single
// upstream call and replays the callers' requests with the fresh token. The
// first caller for a session becomes the leader and runs the refresh; every
// caller arriving while it is in flight is queued. After a successful
// refresh the leader runs its own replay first, then each queued replay
// strictly in the order the callers arrived. A failed refresh is delivered
// to every queued caller and no replay runs.
//
// Sessions are independent: a refresh in flight for one session never
// queues callers of another.
type Gate struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	queue []*waiter
}

type waiter struct {
	ctx    context.Context
	replay func(token string) error
	done   chan error
}

// NewGate creates an empty refresh gate.
func NewGate() *Gate {
	return &Gate{calls: make(map[string]*call)}
}

// Do coalesces the refresh for sessionID and runs replay with the resulting
// access token. The returned error is the refresh error when the refresh
// fails, the caller's replay error otherwise. A queued caller whose context
// ends before its turn gets the context error and its replay is skipped.
func (g *Gate) Do(ctx context.Context, sessionID string, refresh func() (string, error), replay func(token string) error) error {
	g.mu.Lock()
	if c, ok := g.calls[sessionID]; ok {
		// Buffered so the leader never blocks on a waiter that gave up.
		w := &waiter{ctx: ctx, replay: replay, done: make(chan error, 1)}
		c.queue = append(c.queue, w)
		g.mu.Unlock()

		select {
		case err := <-w.done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c := &call{}
	g.calls[sessionID] = c
	g.mu.Unlock()

	token, err := refresh()

	// Late arrivals for this session start a fresh call from here on; the
	// snapshot below is the complete queue for this one.
	g.mu.Lock()
	delete(g.calls, sessionID)
	queue := c.queue
	g.mu.Unlock()

	if err != nil {
		for _, w := range queue {
			w.done <- err
		}
		return err
	}

	// The leader's request failed first, so its replay goes first.
	leadErr := replay(token)
	for _, w := range queue {
		if w.ctx.Err() != nil {
			w.done <- w.ctx.Err()
			continue
		}
		w.done <- w.replay(token)
	}
	return leadErr
}
