// Package log2 solves these issues:
// - log level filtering, e.g. show decoder byte traffic in tests only
// - safe concurrent change of log level
//
// Would have been enough to pass around explicit stdlib *log.Logger,
// log levels is just a cherry on top.
package log2

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"sync/atomic"
	"testing"
)

const (
	// type specified here helped against accidentally passing flags as level
	Lmicroseconds     int = log.Lmicroseconds
	Lshortfile        int = log.Lshortfile
	LStdFlags         int = log.Ltime | Lshortfile
	LInteractiveFlags int = log.Ltime | Lshortfile | Lmicroseconds
	LServiceFlags     int = Lshortfile
	LTestFlags        int = Lshortfile | Lmicroseconds
)

type Level int32

const (
	LError = iota
	LInfo
	LDebug
)

type Log struct {
	l      *log.Logger
	level  Level
	w      io.Writer
	fatalf Func
}

func NewStderr(level Level) *Log { return NewWriter(os.Stderr, level) }
func NewWriter(w io.Writer, level Level) *Log {
	if w == ioutil.Discard {
		return nil
	}
	return &Log{
		l:     log.New(w, "", LStdFlags),
		level: level,
		w:     w,
	}
}

type Func func(format string, args ...interface{})
type FuncWriter struct{ Func }

func NewFunc(f Func, level Level) *Log { return NewWriter(FuncWriter{f}, level) }
func (self FuncWriter) Write(b []byte) (int, error) {
	self.Func(string(b))
	return len(b), nil
}

func NewTest(t testing.TB, level Level) *Log {
	self := NewFunc(t.Logf, level)
	self.fatalf = t.Fatalf
	self.SetFlags(LTestFlags)
	return self
}

func (self *Log) Clone(level Level) *Log {
	if self == nil {
		return nil
	}
	l := NewWriter(self.w, level)
	l.SetFlags(self.l.Flags())
	l.fatalf = self.fatalf
	return l
}

func (self *Log) SetLevel(l Level) {
	if self == nil {
		return
	}
	atomic.StoreInt32((*int32)(&self.level), int32(l))
}

func (self *Log) SetFlags(f int) {
	if self == nil {
		return
	}
	self.l.SetFlags(f)
}

func (self *Log) SetPrefix(prefix string) {
	if self == nil {
		return
	}
	self.l.SetPrefix(prefix)
}

func (self *Log) Enabled(level Level) bool {
	if self == nil {
		return false
	}
	return atomic.LoadInt32((*int32)(&self.level)) >= int32(level)
}

func (self *Log) Log(level Level, s string) {
	if self.Enabled(level) {
		self.l.Output(3, s)
	}
}
func (self *Log) Logf(level Level, format string, args ...interface{}) {
	if self.Enabled(level) {
		self.l.Output(3, fmt.Sprintf(format, args...))
	}
}

func (self *Log) Error(args ...interface{}) {
	self.Log(LError, "error: "+fmt.Sprint(args...))
}
func (self *Log) Errorf(format string, args ...interface{}) {
	self.Logf(LError, "error: "+format, args...)
}
func (self *Log) Info(args ...interface{}) {
	self.Log(LInfo, fmt.Sprint(args...))
}
func (self *Log) Infof(format string, args ...interface{}) {
	self.Logf(LInfo, format, args...)
}
func (self *Log) Debug(args ...interface{}) {
	self.Log(LDebug, "debug: "+fmt.Sprint(args...))
}
func (self *Log) Debugf(format string, args ...interface{}) {
	self.Logf(LDebug, "debug: "+format, args...)
}

// stdlib log and paho mqtt Logger compatibility
func (self *Log) Printf(format string, args ...interface{}) {
	self.Logf(LDebug, format, args...)
}
func (self *Log) Println(args ...interface{}) {
	self.Log(LDebug, fmt.Sprint(args...))
}

func (self *Log) Fatalf(format string, args ...interface{}) {
	if self.fatalf != nil {
		self.fatalf(format, args...)
	} else {
		self.Logf(LError, "fatal: "+format, args...)
		os.Exit(1)
	}
}
func (self *Log) Fatal(args ...interface{}) {
	s := fmt.Sprint(args...)
	if self.fatalf != nil {
		self.fatalf(s)
	} else {
		self.Logf(LError, "fatal: "+s)
		os.Exit(1)
	}
}
