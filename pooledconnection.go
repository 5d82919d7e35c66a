package connpool

import (
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
)

// PooledConnection wraps a driver Connection with a back-reference to its
// owning Pool and overridden dispose semantics (spec.md §4.2, §9 "Mixin-
// style dispose override"). It embeds Connection so Ping, SupportsReuse
// and ScrubForReuse are promoted transparently; Dispose is the one method
// PooledConnection reimplements rather than forwards.
//
// The Pool -> PooledConnection edge is ownership (transitively, through
// IdleQueue or the inuse count); the PooledConnection -> Pool edge is a
// non-owning back-reference (spec.md §9 "Cyclic reference").
type PooledConnection struct {
	Connection

	id   uuid.UUID
	pool *Pool

	// disposed guards against double-dispose and marks the finalizer as
	// unnecessary once the client has disposed properly.
	disposed int32
}

func newPooledConnection(conn Connection, pool *Pool) *PooledConnection {
	pc := &PooledConnection{
		Connection: conn,
		id:         uuid.New(),
		pool:       pool,
	}
	runtime.SetFinalizer(pc, finalizePooledConnection)
	return pc
}

// ID identifies this connection for diagnostics and stress tests. It has
// no meaning to the driver.
func (pc *PooledConnection) ID() uuid.UUID {
	return pc.id
}

// setPool updates the back-reference. Called by Pool.GetConnection after a
// connection is handed out, per spec.md §4.4 step 5 — the same
// PooledConnection value can, in principle, be reissued by a pool that
// outlives a rebind (e.g. in tests that swap pools), so the back-reference
// is not fixed at construction alone.
func (pc *PooledConnection) setPool(p *Pool) {
	pc.pool = p
}

// Dispose routes the connection back through the owning Pool's reuse path
// instead of disconnecting directly (spec.md §4.2, §4.6). It is safe to
// call more than once per handout; only the first call has an effect
// until the pool hands the connection out again.
func (pc *PooledConnection) Dispose() {
	if !atomic.CompareAndSwapInt32(&pc.disposed, 0, 1) {
		return
	}
	runtime.SetFinalizer(pc, nil)
	pc.pool.reuse(pc)
}

// finalizePooledConnection is the GC finalizer installed on every
// PooledConnection. If the client let the wrapper be collected without
// calling Dispose, the pool must still observe it: inuse is decremented,
// a destroyed-without-dispose counter is incremented, and — if the
// connection supported reuse — a flag is set so pool teardown can warn
// (spec.md §4.2, §7).
func finalizePooledConnection(pc *PooledConnection) {
	if atomic.LoadInt32(&pc.disposed) != 0 {
		return
	}
	atomic.StoreInt32(&pc.disposed, 1)
	pc.pool.observeDestroyedWithoutDispose(pc)
}
