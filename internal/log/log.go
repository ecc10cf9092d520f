// Package log is a small leveled logger for the benchmark CLI: one line per
// event to stderr, colorized when stderr is a terminal.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type Level uint8

const (
	ERROR Level = iota
	WARN
	INFO
	DEBUG
)

var levelNames = map[Level]string{
	ERROR: "ERROR",
	WARN:  "WARN",
	INFO:  "INFO",
	DEBUG: "DEBUG",
}

var levelColor = map[Level]*color.Color{
	ERROR: color.New(color.FgRed, color.Bold),
	WARN:  color.New(color.FgYellow),
	INFO:  color.New(color.FgCyan),
	DEBUG: color.New(color.FgWhite),
}

// Logger writes leveled, optionally colorized lines to an io.Writer.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	color bool
}

// Default is the package-level logger used by the top-level helper
// functions, writing to stderr with color enabled only when stderr is a TTY.
var Default = New(os.Stderr, INFO)

// New creates a Logger at the given level, auto-detecting whether out is a
// terminal to decide whether to colorize.
func New(out io.Writer, level Level) *Logger {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Logger{out: out, level: level, color: useColor}
}

// SetLevel updates the minimum level that will be printed.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	prefix := "[" + levelNames[level] + "]"
	if l.color {
		prefix = levelColor[level].Sprint(prefix)
	}
	fmt.Fprintf(l.out, "%s %s\n", prefix, msg)
}

func (l *Logger) Errorf(format string, args ...interface{}) { l.log(ERROR, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

func Errorf(format string, args ...interface{}) { Default.Errorf(format, args...) }
func Warnf(format string, args ...interface{})  { Default.Warnf(format, args...) }
func Infof(format string, args ...interface{})  { Default.Infof(format, args...) }
func Debugf(format string, args ...interface{}) { Default.Debugf(format, args...) }
