package raybvh

import (
	"io"
	"os"
	"sync"

	"github.com/op/go-logging"
)

type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	sinkMu sync.Mutex
	sink   io.Writer = os.Stdout
)

// SetSink redirects every logger of this package, including ones created
// earlier, to w. Levels are kept.
func SetSink(w io.Writer) {
	sinkMu.Lock()
	sink = w
	sinkMu.Unlock()
}

// sinkWriter forwards to whatever sink is current at write time.
type sinkWriter struct{}

func (sinkWriter) Write(p []byte) (int, error) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	return sink.Write(p)
}

// DefaultLogger owns its leveled backend, so loggers sharing a prefix do not
// share a level.
type DefaultLogger struct {
	mu      sync.Mutex
	debug   bool
	prefix  string
	backend logging.LeveledBackend
	out     *logging.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	if prefix == "" {
		prefix = "raybvh"
	}
	backend := logging.NewLogBackend(sinkWriter{}, "", 0)
	l := &DefaultLogger{
		prefix:  prefix,
		backend: logging.AddModuleLevel(logging.NewBackendFormatter(backend, format)),
		out:     logging.MustGetLogger(prefix),
	}
	l.out.SetBackend(l.backend)
	l.SetDebug(debug)
	return l
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = enabled

	level := logging.INFO
	if enabled {
		level = logging.DEBUG
	}
	l.backend.SetLevel(level, "")
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Debugf(format, args...)
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Infof(format, args...)
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.out.Warningf(format, args...)
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.out.Errorf(format, args...)
}

type nopLogger struct{}

func NewNopLogger() Logger                             { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

// OrNop returns l, or a no-op logger when l is nil. Never returns nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	return l
}
