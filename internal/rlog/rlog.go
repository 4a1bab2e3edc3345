// Package rlog provides the leveled logger used throughout region-diff.
// Following the teacher's dependency-injection style (internal/batch's
// Ctx.Log *log.Logger field), a *Logger is passed explicitly to whatever
// needs it rather than reached for as a package-level global.
package rlog

import (
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/xerrors"
)

// Level is the logging verbosity selected by -v/-vv/-vvv.
type Level int

const (
	// Silent logs nothing (no flag given).
	Silent Level = iota
	// Info logs operation start/end and slot counts (-v).
	Info
	// Debug additionally logs per-slot classification (-vv).
	Debug
)

// Logger writes Info/Debug lines to stderr, and additionally tees Debug
// lines to debug.log when constructed with ToFile (-vvv).
type Logger struct {
	level Level
	out   *log.Logger
	file  *log.Logger
	close func() error
}

// New constructs a Logger at the given level. If toFile is true, Debug-level
// output is also teed to debug.log in the current directory.
func New(level Level, toFile bool) (*Logger, error) {
	l := &Logger{
		level: level,
		out:   log.New(os.Stderr, "", log.LstdFlags),
		close: func() error { return nil },
	}
	if toFile {
		f, err := os.Create("debug.log")
		if err != nil {
			return nil, xerrors.Errorf("rlog: opening debug.log: %w", err)
		}
		l.file = log.New(f, "", log.LstdFlags)
		l.close = f.Close
	}
	return l, nil
}

// Close releases the debug.log file handle, if one was opened.
func (l *Logger) Close() error { return l.close() }

// Infof logs a line at Info level or above.
func (l *Logger) Infof(format string, args ...any) { l.write(Info, format, args...) }

// Debugf logs a line at Debug level.
func (l *Logger) Debugf(format string, args ...any) { l.write(Debug, format, args...) }

func (l *Logger) write(at Level, format string, args ...any) {
	if l.level < at {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.out.Print(msg)
	if l.file != nil && at == Debug {
		l.file.Print(msg)
	}
}

// Discard is a Logger that drops everything, used by the engine when no
// Logger has been set.
var Discard = &Logger{level: Silent, out: log.New(io.Discard, "", 0), close: func() error { return nil }}
