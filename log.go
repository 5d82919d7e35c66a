package connpool

import (
	"log"
	"os"

	"github.com/dustin/go-humanize"
)

// Logger is the pool's single diagnostic sink (spec.md §6 Diagnostics).
// No other output is contractual.
type Logger interface {
	Printf(format string, args ...interface{})
}

// stdLogger adapts the standard library's log.Logger to Logger. It is the
// default sink used when no WithLogger option is supplied.
type stdLogger struct {
	l *log.Logger
}

func newStdLogger(name string) *stdLogger {
	return &stdLogger{l: log.New(os.Stderr, "connpool["+name+"] ", log.LstdFlags)}
}

func (s *stdLogger) Printf(format string, args ...interface{}) {
	s.l.Printf(format, args...)
}

// humanCount renders n the way the diagnostic sink reports counts of
// connections, e.g. in the teardown warning and idle-trim log lines.
func humanCount(n int, noun string) string {
	return humanize.Comma(int64(n)) + " " + noun
}
