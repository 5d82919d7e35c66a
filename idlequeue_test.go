package connpool

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleQueue_PollEmpty(t *testing.T) {
	q := newIdleQueue(1)
	c, ok := q.poll()
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestIdleQueue_OfferThenPollFIFO(t *testing.T) {
	q := newIdleQueue(2)
	a := &PooledConnection{}
	b := &PooledConnection{}
	q.offer(a)
	q.offer(b)

	got1, ok := q.poll()
	require.True(t, ok)
	got2, ok := q.poll()
	require.True(t, ok)
	assert.Same(t, a, got1)
	assert.Same(t, b, got2)

	_, ok = q.poll()
	assert.False(t, ok)
}

func TestIdleQueue_ReceiveBlocksUntilOffer(t *testing.T) {
	defer leaktest.Check(t)()

	q := newIdleQueue(1)
	result := make(chan *PooledConnection, 1)
	go func() {
		c, ok := q.receive()
		if ok {
			result <- c
		} else {
			result <- nil
		}
	}()

	select {
	case <-result:
		t.Fatal("receive returned before any offer")
	case <-time.After(50 * time.Millisecond):
	}

	want := &PooledConnection{}
	q.offer(want)

	select {
	case got := <-result:
		assert.Same(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("receive did not unblock after offer")
	}
}

func TestIdleQueue_ReceiveWakesOnClose(t *testing.T) {
	defer leaktest.Check(t)()

	q := newIdleQueue(1)
	result := make(chan bool, 1)
	go func() {
		_, ok := q.receive()
		result <- ok
	}()

	select {
	case <-result:
		t.Fatal("receive returned before close")
	case <-time.After(50 * time.Millisecond):
	}

	q.close()

	select {
	case ok := <-result:
		assert.False(t, ok, "receive must report !ok once the queue is closed")
	case <-time.After(time.Second):
		t.Fatal("receive did not wake up on close")
	}
}

func TestIdleQueue_OfferNeverBlocksWhenFull(t *testing.T) {
	defer leaktest.Check(t)()

	q := newIdleQueue(1)
	q.offer(&PooledConnection{}) // fills the buffered channel

	done := make(chan struct{})
	go func() {
		q.offer(&PooledConnection{}) // must not block the caller
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("offer blocked on a full queue")
	}

	// Drain both so the background goroutine spawned by offer exits
	// cleanly before leaktest.Check runs.
	_, ok1 := q.poll()
	require.True(t, ok1)
	require.Eventually(t, func() bool {
		_, ok := q.poll()
		return ok
	}, time.Second, 5*time.Millisecond)
}
