package transport

import (
	"context"
	"sync"
)

// Inflight tracks the single request a transport instance has outstanding.
// Starting a new request cancels the previous one.
type Inflight struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Begin derives a cancellable context for a new request, cancelling any request that is
// still outstanding. The returned release func must be called when the request finishes;
// it only clears the slot if no newer request replaced it.
func (f *Inflight) Begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	seq := f.seq
	f.cancel = cancel
	f.mu.Unlock()

	return ctx, func() {
		f.mu.Lock()
		if f.seq == seq {
			f.cancel = nil
		}
		f.mu.Unlock()
		cancel()
	}
}

// Cancel aborts the outstanding request. It is a no-op when there is none.
func (f *Inflight) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Active reports whether a request is outstanding.
func (f *Inflight) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancel != nil
}
