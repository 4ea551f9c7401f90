// Package logx prints levelled, component-prefixed lines in the form
//
//	Info: [node] measurement seq=12 t_centi_c=2508
//
// to the console, and optionally to further sinks such as a UART.
package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarn:
		return "Warn"
	default:
		return "Error"
	}
}

var (
	mu     sync.Mutex
	out    io.Writer = os.Stdout
	minLvl           = LevelInfo
)

// SetOutput replaces the sinks. With several writers every line goes to each.
func SetOutput(ws ...io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	switch len(ws) {
	case 0:
		out = io.Discard
	case 1:
		out = ws[0]
	default:
		out = io.MultiWriter(ws...)
	}
}

// SetLevel sets the lowest level printed.
func SetLevel(l Level) {
	mu.Lock()
	minLvl = l
	mu.Unlock()
}

// Logger tags lines with a component name.
type Logger struct {
	prefix string
}

func New(component string) *Logger { return &Logger{prefix: "[" + component + "]"} }

func (l *Logger) Debug(msg string, kv ...any) { l.log(LevelDebug, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(LevelInfo, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(LevelWarn, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.log(LevelError, msg, kv) }

// log renders kv as key=value pairs; an odd trailing value is printed as
// "!extra=<v>".
func (l *Logger) log(lvl Level, msg string, kv []any) {
	mu.Lock()
	defer mu.Unlock()
	if lvl < minLvl {
		return
	}
	buf := make([]byte, 0, 96)
	buf = append(buf, lvl.String()...)
	buf = append(buf, ": "...)
	buf = append(buf, l.prefix...)
	buf = append(buf, ' ')
	buf = append(buf, msg...)
	for i := 0; i < len(kv); i += 2 {
		if i+1 == len(kv) {
			buf = fmt.Appendf(buf, " !extra=%v", kv[i])
			break
		}
		buf = fmt.Appendf(buf, " %v=%v", kv[i], kv[i+1])
	}
	buf = append(buf, '\n')
	_, _ = out.Write(buf)
}
