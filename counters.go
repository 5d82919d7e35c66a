package connpool

import "sync/atomic"

// counter is an atomically-updated tally, generalized from the teacher's
// stat.go counter/count pair to support the conditional (only-decrease)
// update the low-water mark needs.
type counter struct {
	v int64
}

func (c *counter) inc() int64 {
	return atomic.AddInt64(&c.v, 1)
}

func (c *counter) dec() int64 {
	return atomic.AddInt64(&c.v, -1)
}

func (c *counter) val() int64 {
	return atomic.LoadInt64(&c.v)
}

func (c *counter) set(n int64) {
	atomic.StoreInt64(&c.v, n)
}

// lowerOnly stores n only if it is strictly less than the current value.
// Used for min-idle-since-last-check, which must only ever decrease
// between prune ticks. Approximate under races by design (spec.md §5).
func (c *counter) lowerOnly(n int64) {
	for {
		cur := atomic.LoadInt64(&c.v)
		if n >= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&c.v, cur, n) {
			return
		}
	}
}

// Counters holds the six atomic tallies described in spec.md §3, plus the
// destroyed-without-dispose diagnostic counter from spec.md §4.2/§7.
type Counters struct {
	starting               counter
	idle                   counter
	inuse                  counter
	scrub                  counter
	waiting                counter
	minIdleSinceLastCheck  counter
	destroyedWithoutDispose counter
}

// total returns idle+starting+inuse+scrub, the quantity bounded by
// max-connections (spec.md §3 invariant).
func (c *Counters) total() int64 {
	return c.idle.val() + c.starting.val() + c.inuse.val() + c.scrub.val()
}

// Stats is the snapshot returned by Pool.Stats, keyed exactly as spec.md
// §4.7 requires.
type Stats struct {
	Inuse    int `json:"inuse"`
	Idle     int `json:"idle"`
	Starting int `json:"starting"`
	Scrub    int `json:"scrub"`
	Total    int `json:"total"`
	Waiting  int `json:"waiting"`
}

// snapshot performs the unsynchronized read described in spec.md §4.7:
// mutually consistent only up to brief races across counters.
func (c *Counters) snapshot() Stats {
	idle := int(c.idle.val())
	starting := int(c.starting.val())
	inuse := int(c.inuse.val())
	scrub := int(c.scrub.val())
	return Stats{
		Inuse:    inuse,
		Idle:     idle,
		Starting: starting,
		Scrub:    scrub,
		Total:    idle + starting + inuse + scrub,
		Waiting:  int(c.waiting.val()),
	}
}
