package connpool

import "errors"

var (
	// ErrClosed is returned by GetConnection once the pool has been
	// disposed. In-flight futures issued before Dispose may still resolve.
	ErrClosed = errors.New("connpool: pool is closed")

	// ErrNoFactory is returned by New when no Driver is supplied.
	ErrNoFactory = errors.New("connpool: no driver provided")

	// ErrFutureAbandoned is returned by Future.Await after Cancel has been
	// called; the connection the future would have delivered is instead
	// routed through the reuse path.
	ErrFutureAbandoned = errors.New("connpool: future was abandoned")
)
