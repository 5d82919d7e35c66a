package connpool

// IdleQueue is a multi-producer, multi-consumer FIFO handoff of
// ready-to-use *PooledConnection values (spec.md §4.3). Its own capacity
// is unbounded from its own perspective; bounding is enforced upstream by
// max-connections. Ordering is FIFO to the degree a buffered channel
// provides it, which is best-effort fairness per spec.md §4.3.
//
// Termination is modeled with a separate close-only channel rather than
// closing the data channel itself, since offer() may still be called by
// in-flight background scrub workers after Pool.Dispose sets terminate;
// closing the data channel would panic on that send.
type IdleQueue struct {
	items chan *PooledConnection
	done  chan struct{}
}

// newIdleQueue creates an IdleQueue with the given buffer hint. The hint
// only avoids reallocation; offer never blocks regardless of how full the
// channel already is thanks to the fallback in offer.
func newIdleQueue(capacityHint int) *IdleQueue {
	if capacityHint < 1 {
		capacityHint = 1
	}
	return &IdleQueue{
		items: make(chan *PooledConnection, capacityHint),
		done:  make(chan struct{}),
	}
}

// offer enqueues conn. It never blocks and never fails: if the buffered
// channel is momentarily full (more connections than the capacity hint,
// which can happen transiently), it grows the handoff by spawning a
// one-shot goroutine that blocks on the send instead of blocking the
// caller — the caller is typically a scrub worker or the injector and
// must not stall on a slow consumer.
func (q *IdleQueue) offer(conn *PooledConnection) {
	select {
	case q.items <- conn:
	default:
		go func() {
			select {
			case q.items <- conn:
			case <-q.done:
			}
		}()
	}
}

// poll returns a connection without blocking, or (nil, false) if none is
// immediately available.
func (q *IdleQueue) poll() (*PooledConnection, bool) {
	select {
	case c := <-q.items:
		return c, true
	default:
		return nil, false
	}
}

// receive blocks until a connection is available or the queue is closed,
// in which case it returns (nil, false) and the caller must be prepared
// to exit (spec.md §4.3).
func (q *IdleQueue) receive() (*PooledConnection, bool) {
	select {
	case c := <-q.items:
		return c, true
	case <-q.done:
		// Drain any connection that raced the close.
		select {
		case c := <-q.items:
			return c, true
		default:
			return nil, false
		}
	}
}

// close wakes every blocked receive. Safe to call once; subsequent calls
// panic, matching close() semantics on the underlying channel.
func (q *IdleQueue) close() {
	close(q.done)
}

// len reports the number of immediately available connections. Used only
// for diagnostics; not part of the counted idle state (Counters.idle is
// authoritative per spec.md §3).
func (q *IdleQueue) len() int {
	return len(q.items)
}
