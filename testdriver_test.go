package connpool

import (
	"errors"
	"sync/atomic"
)

// fakeDriver and fakeConn are the in-memory stand-ins used throughout the
// package's tests, in the spirit of the teacher's fakeFactory /
// fakeFactorySrv pair in pool_test.go.
type fakeDriver struct {
	reusable bool

	// failOpensRemain, if > 0, makes the next N Connect calls fail.
	failOpensRemain int32

	// pingFailBudget, if > 0, makes that many Ping calls across every
	// connection this driver ever opens return false before any Ping
	// call succeeds. Used to simulate S6 ("dead connection on handout")
	// without risking an unbounded discard/replace loop.
	pingFailBudget int32

	scrubErr error

	opened int32
}

func (d *fakeDriver) Connect(name string, args map[string]string) (Connection, error) {
	if atomic.LoadInt32(&d.failOpensRemain) > 0 {
		atomic.AddInt32(&d.failOpensRemain, -1)
		return nil, errors.New("fakeDriver: dial failed")
	}
	atomic.AddInt32(&d.opened, 1)
	return &fakeConn{driver: d}, nil
}

func (d *fakeDriver) takePingFailure() bool {
	for {
		cur := atomic.LoadInt32(&d.pingFailBudget)
		if cur <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&d.pingFailBudget, cur, cur-1) {
			return true
		}
	}
}

type fakeConn struct {
	driver       *fakeDriver
	disconnected int32
}

func (c *fakeConn) Ping() bool {
	return !c.driver.takePingFailure()
}

func (c *fakeConn) SupportsReuse() bool {
	return c.driver.reusable
}

func (c *fakeConn) ScrubForReuse() error {
	return c.driver.scrubErr
}

func (c *fakeConn) RawDisconnect() error {
	atomic.StoreInt32(&c.disconnected, 1)
	return nil
}

func (c *fakeConn) isDisconnected() bool {
	return atomic.LoadInt32(&c.disconnected) == 1
}
