package chrome

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// networkTracker counts in-flight requests of a tab so a render can wait until
// the page stops loading resources.
type networkTracker struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
}

func newNetworkTracker() *networkTracker {
	return &networkTracker{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
	}
}

// handle is registered with chromedp.ListenTarget and must not block.
func (t *networkTracker) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.started(e.RequestID)
	case *network.EventLoadingFinished:
		t.finished(e.RequestID)
	case *network.EventLoadingFailed:
		t.finished(e.RequestID)
	}
}

func (t *networkTracker) started(id network.RequestID) {
	t.mu.Lock()
	t.inflight[id] = struct{}{}
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

func (t *networkTracker) finished(id network.RequestID) {
	t.mu.Lock()
	delete(t.inflight, id)
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

// reset restarts the quiet window from now. Called once the document is in
// place so time spent navigating does not count as idle.
func (t *networkTracker) reset() {
	t.mu.Lock()
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

// idleFor returns how long the tab has had no request in flight.
func (t *networkTracker) idleFor() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > 0 {
		return 0
	}
	return time.Since(t.lastActivity)
}

// wait blocks until no request has been in flight for quiet, or ctx ends.
func (t *networkTracker) wait(ctx context.Context, quiet time.Duration) error {
	if quiet <= 0 {
		return ctx.Err()
	}
	tick := quiet / 10
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		if t.idleFor() >= quiet {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
