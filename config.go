package connpool

import (
	"fmt"
	"time"
)

const (
	defaultInitialSize          = 1
	defaultMaxConnections       = 10
	defaultMinSpareConnections  = 1
	defaultMaxIdleDuration      = 60 * time.Second
	defaultNamePrefix           = "conn-pool"
	defaultMaintainerStartDelay = 50 * time.Millisecond
)

// Config holds the immutable construction parameters of a Pool. See
// spec.md §6 for the meaning and defaults of each field.
//
// MaxConnections and MinSpareConnections are *int rather than int because
// zero is a legal, spec-mandated value for both (spec.md §8's
// "max-connections=0" and "min-spare=0" boundary cases) and is also the
// Go zero value, so a plain int field could never distinguish "the caller
// explicitly wants zero" from "the caller left this unset and wants the
// default". A nil pointer means unset (the default is applied by
// withDefaults); Int(0) means zero, literally. Use the Int helper to set
// either field: Config{MaxConnections: Int(0)}.
type Config struct {
	// DriverName is an opaque identifier forwarded to Driver.Connect.
	DriverName string

	// ConnectionArgs is forwarded verbatim to Driver.Connect.
	ConnectionArgs map[string]string

	// InitialSize is the number of connections started at boot. Must be
	// >= 1. Defaults to 1.
	InitialSize int

	// MaxConnections is the hard ceiling on total connections. Must be
	// >= 0. Defaults to 10 if nil. Int(0) means the pool never opens a
	// connection; every acquisition blocks until Dispose, which wakes it
	// with ErrClosed.
	MaxConnections *int

	// MinSpareConnections is the idle floor maintained by the injector.
	// Must be >= 0. Defaults to 1 if nil. Int(0) disables the spare floor.
	MinSpareConnections *int

	// MaxIdleDuration is both the prune tick interval and the idle
	// threshold used by the maintainer. Defaults to 60s.
	MaxIdleDuration time.Duration
}

// Int returns a pointer to n, for populating Config's optional fields
// where nil and zero must mean different things.
func Int(n int) *int {
	return &n
}

// withDefaults returns a copy of cfg with unset fields replaced by their
// documented defaults. A field is "unset" when it is the Go zero value
// (InitialSize, MaxIdleDuration) or nil (MaxConnections,
// MinSpareConnections) — the latter two are pointers specifically so an
// explicit zero survives this step unchanged.
func (c Config) withDefaults() Config {
	if c.InitialSize == 0 {
		c.InitialSize = defaultInitialSize
	}
	if c.MaxConnections == nil {
		c.MaxConnections = Int(defaultMaxConnections)
	}
	if c.MinSpareConnections == nil {
		c.MinSpareConnections = Int(defaultMinSpareConnections)
	}
	if c.MaxIdleDuration == 0 {
		c.MaxIdleDuration = defaultMaxIdleDuration
	}
	return c
}

// validate enforces the boundary behaviors from spec.md §8: initial-size
// larger than max-connections is rejected at construction, as are negative
// sizes. max-connections == 0 is legal and means the pool never opens a
// connection; the InitialSize > MaxConnections check is waived in that
// single case (InitialSize's >= 1 floor still applies) rather than making
// the two boundary rules mutually exclusive. Callers
// must run withDefaults first; validate assumes MaxConnections and
// MinSpareConnections are non-nil.
func (c Config) validate() error {
	maxConnections := *c.MaxConnections
	minSpare := *c.MinSpareConnections

	if c.InitialSize < 1 {
		return fmt.Errorf("connpool: initial size must be >= 1, got %d", c.InitialSize)
	}
	if maxConnections < 0 {
		return fmt.Errorf("connpool: max connections must be >= 0, got %d", maxConnections)
	}
	if minSpare < 0 {
		return fmt.Errorf("connpool: min spare connections must be >= 0, got %d", minSpare)
	}
	if maxConnections > 0 && c.InitialSize > maxConnections {
		return fmt.Errorf("connpool: initial size %d exceeds max connections %d", c.InitialSize, maxConnections)
	}
	if minSpare > maxConnections {
		return fmt.Errorf("connpool: min spare connections %d exceeds max connections %d", minSpare, maxConnections)
	}
	return nil
}

// Option configures optional Pool behavior beyond Config, mirroring the
// teacher's functional-option pattern (WithName).
type Option func(p *Pool) error

// WithName sets the pool's diagnostic name. If not supplied, a name is
// derived from defaultNamePrefix and a short uuid suffix.
func WithName(name string) Option {
	return func(p *Pool) error {
		p.name = name
		return nil
	}
}

// WithLogger overrides the pool's diagnostic sink. The default logs to
// the standard library's log package.
func WithLogger(l Logger) Option {
	return func(p *Pool) error {
		if l == nil {
			return fmt.Errorf("connpool: nil logger")
		}
		p.log = l
		return nil
	}
}

// WithNowFunc overrides the pool's stored time source. Nothing in the pool
// reads it: the idle-trim loop runs on a real time.Ticker, so this option
// does not change trim timing.
func WithNowFunc(now func() time.Time) Option {
	return func(p *Pool) error {
		if now == nil {
			return fmt.Errorf("connpool: nil now func")
		}
		p.now = now
		return nil
	}
}
