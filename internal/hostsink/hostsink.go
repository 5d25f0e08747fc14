// Package hostsink implements the HostSink capability (spec §9 "Global
// ambient logger/connection" design note): rather than every package
// reaching for the standard library's default logger, a Sink is
// constructed once by the host and threaded into the Workspace, which
// passes it down to the source reader to report non-fatal I/O errors.
package hostsink

import (
	"io"
	"log"
)

// Sink wraps a standard log.Logger. It is the only logging surface the
// core reaches for — no package imports the "log" package directly except
// this one.
type Sink struct {
	logger *log.Logger
}

// New builds a Sink writing to w with the given prefix, in the teacher's
// own "log.New(os.Stderr, prefix, flags)" style.
func New(w io.Writer, prefix string) *Sink {
	return &Sink{logger: log.New(w, prefix, log.LstdFlags)}
}

// Discard is a Sink that drops everything, for tests and for hosts that
// have their own reporting channel.
func Discard() *Sink {
	return &Sink{logger: log.New(io.Discard, "", 0)}
}

// Info reports a non-error, informational event (e.g. a skipped file
// during enumeration).
func (s *Sink) Info(format string, args ...any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}

// IoError reports a non-fatal I/O error (spec §7 "IoError ... never
// fatal"). The core keeps going; the host decides whether to surface it.
func (s *Sink) IoError(format string, args ...any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Printf("io error: "+format, args...)
}
