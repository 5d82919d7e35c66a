package connpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_AwaitDelivers(t *testing.T) {
	f := newFuture()
	want := &PooledConnection{}
	go f.deliver(want, nil)

	got, err := f.Await()
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestFuture_AwaitContextTimesOut(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.AwaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Cancel before delivery: the eventually-arriving connection is disposed
// through the reuse path rather than handed to nobody.
func TestFuture_CancelBeforeDeliveryDisposesConnection(t *testing.T) {
	driver := &fakeDriver{reusable: true}
	p, err := New(driver, Config{InitialSize: 1, MaxConnections: Int(1), MinSpareConnections: Int(0), MaxIdleDuration: time.Hour})
	require.NoError(t, err)
	defer p.Dispose()

	require.Eventually(t, func() bool { return p.Stats().Total == 1 }, time.Second, 10*time.Millisecond)

	f := newFuture()
	f.Cancel()

	conn, err := p.acquire()
	require.NoError(t, err)
	f.deliver(conn, nil)

	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.Inuse == 0 && s.Idle == 1
	}, time.Second, 10*time.Millisecond, "cancelled future's connection must be reused, not leaked as inuse")
}

// Cancel after delivery, before Await: the buffered connection is drained
// and disposed immediately.
func TestFuture_CancelAfterDeliveryDisposesConnection(t *testing.T) {
	driver := &fakeDriver{reusable: true}
	p, err := New(driver, Config{InitialSize: 1, MaxConnections: Int(1), MinSpareConnections: Int(0), MaxIdleDuration: time.Hour})
	require.NoError(t, err)
	defer p.Dispose()

	require.Eventually(t, func() bool { return p.Stats().Total == 1 }, time.Second, 10*time.Millisecond)

	conn, err := p.acquire()
	require.NoError(t, err)

	f := newFuture()
	f.deliver(conn, nil)
	f.Cancel()

	require.Eventually(t, func() bool {
		s := p.Stats()
		return s.Inuse == 0 && s.Idle == 1
	}, time.Second, 10*time.Millisecond)
}
