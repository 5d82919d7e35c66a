// Package connpool implements a bounded, concurrent cache of live database
// connections shared by many client goroutines. It amortizes connection
// setup cost, limits concurrent database load to a configured ceiling, and
// offers both blocking and future-returning acquisition.
//
// The database driver itself (dial, ping, scrub-for-reuse, disconnect) is
// abstracted behind the Driver interface and is not part of this package.
// A concrete driver typically wraps something like lib/pq or pgx; wiring
// one up looks like:
//
//	type pqDriver struct{ dsn string }
//
//	func (d *pqDriver) Connect(name string, args map[string]string) (connpool.Connection, error) {
//		db, err := sql.Open("postgres", d.dsn)
//		if err != nil {
//			return nil, err
//		}
//		return &pqConnection{db: db}, nil
//	}
//
// connpool never imports a SQL driver itself: wire protocol, prepared
// statements and transaction control live outside this package.
package connpool
