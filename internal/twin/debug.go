package twin

import (
	"errors"
	"io"
	"log"
	"sync/atomic"
)

// Insert logs on three streams, all off by default:
//
//	ops    rejected runs, tagged with the error kind
//	diag   one line per phase change with run totals
//	trace  one line per region with its plane and relabel count
var (
	opsLog   atomic.Pointer[log.Logger]
	diagLog  atomic.Pointer[log.Logger]
	traceLog atomic.Pointer[log.Logger]
)

// SetLogWriters routes the ops, diag and trace streams. A nil writer turns that stream
// off. Safe to call while engines are running.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLog.Store(newLogger(ops))
	diagLog.Store(newLogger(diag))
	traceLog.Store(newLogger(trace))
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[twin] ", log.LstdFlags|log.Lmicroseconds)
}

func logf(l *atomic.Pointer[log.Logger], format string, args ...any) {
	if lg := l.Load(); lg != nil {
		lg.Printf(format, args...)
	}
}

// logRejected reports a validation failure on the ops stream.
func logRejected(err error) {
	kind := "unknown"
	var te *Error
	if errors.As(err, &te) {
		kind = te.Kind.String()
	}
	logf(&opsLog, "rejected kind=%s: %v", kind, err)
}

func diagf(format string, args ...any)  { logf(&diagLog, format, args...) }
func tracef(format string, args ...any) { logf(&traceLog, format, args...) }
