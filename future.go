package connpool

import (
	"context"
	"sync"
)

// futureResult is the payload delivered through a Future's channel.
type futureResult struct {
	conn *PooledConnection
	err  error
}

// Future is returned by Pool.GetConnectionAsync. A worker goroutine runs
// the same acquisition algorithm as the synchronous path and fulfills the
// Future exactly once (spec.md §4.4, §5 "Asynchronous handout").
//
// Abandonment (spec.md §5 "Cancellation", §9 "Async cancellation") is
// handled explicitly via Cancel: a connection that arrives after Cancel
// has been called is routed straight through the reuse path instead of
// being left to rot as an orphaned inuse count. If the caller simply lets
// the Future go out of scope without ever calling Await or Cancel, the
// PooledConnection's own GC finalizer (pooledconnection.go) is the
// fallback safety net described in spec.md §9: the pool will still
// observe the loss, just later and as a destroyed-without-dispose count
// rather than a clean reuse.
type Future struct {
	mu        sync.Mutex
	ch        chan futureResult
	delivered bool
	abandoned bool
}

func newFuture() *Future {
	return &Future{ch: make(chan futureResult, 1)}
}

// deliver is called exactly once by the worker goroutine running the
// synchronous acquisition algorithm.
func (f *Future) deliver(conn *PooledConnection, err error) {
	f.mu.Lock()
	if f.abandoned {
		f.mu.Unlock()
		if conn != nil {
			conn.Dispose()
		}
		// Still signal the channel so a caller blocked in Await (rather
		// than the one that called Cancel) does not hang forever.
		f.ch <- futureResult{conn: nil, err: ErrFutureAbandoned}
		return
	}
	f.delivered = true
	f.mu.Unlock()
	f.ch <- futureResult{conn: conn, err: err}
}

// Await blocks until the future resolves.
func (f *Future) Await() (*PooledConnection, error) {
	r := <-f.ch
	return r.conn, r.err
}

// AwaitContext blocks until the future resolves or ctx is done, whichever
// comes first. It does not itself abandon the future on ctx expiry —
// callers that want the captured connection reused rather than leaked
// should call Cancel afterward (spec.md §5 "Timeouts": callers race the
// future against their own timer).
func (f *Future) AwaitContext(ctx context.Context) (*PooledConnection, error) {
	select {
	case r := <-f.ch:
		return r.conn, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel abandons the future. If it has already resolved with a live
// connection that nobody has consumed yet, that connection is disposed
// (routed through the reuse path) immediately. If it has not yet
// resolved, the eventually-arriving connection will be disposed by
// deliver instead of buffered indefinitely.
func (f *Future) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delivered {
		select {
		case r := <-f.ch:
			if r.conn != nil {
				r.conn.Dispose()
			}
		default:
			// Already drained by a concurrent Await; nothing to do.
		}
		return
	}
	f.abandoned = true
}
