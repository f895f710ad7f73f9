// Package fault is the kernel's assert/panic facility. A failed assertion is
// never recovered from by the allocator: it is logged with its call site and
// then the configured halt function stops the flow of control.
package fault

import (
	"fmt"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"

	"github.com/joshuapare/kheapkit/internal/logger"
)

// Kind tells a panic from a failed assertion.
type Kind uint8

const (
	KindPanic Kind = iota
	KindAssert
)

// Fault describes one fatal condition and where it was raised.
type Fault struct {
	Kind Kind
	Desc string
	File string
	Line int
}

func (f *Fault) Error() string {
	if f.Kind == KindAssert {
		return fmt.Sprintf("ASSERT(%s) at %s:%d", f.Desc, f.File, f.Line)
	}
	return fmt.Sprintf("PANIC(%s) at %s:%d", f.Desc, f.File, f.Line)
}

// Halt stops the machine after a fault has been reported. The default
// unwinds with panic(*Fault); a freestanding build would spin with
// interrupts off instead.
var Halt = func(f *Fault) {
	panic(f)
}

// Assert raises a KindAssert fault when ok is false.
func Assert(ok bool, desc string) {
	if ok {
		return
	}
	raise(KindAssert, desc)
}

// Assertf is Assert with a formatted description. Arguments are only
// formatted when the assertion fails.
func Assertf(ok bool, format string, args ...any) {
	if ok {
		return
	}
	raise(KindAssert, fmt.Sprintf(format, args...))
}

// Panic raises a KindPanic fault unconditionally.
func Panic(msg string) {
	raise(KindPanic, msg)
}

func raise(kind Kind, desc string) {
	f := &Fault{Kind: kind, Desc: desc, File: "???"}
	// skip raise and its exported caller
	if _, file, line, ok := runtime.Caller(2); ok {
		f.File, f.Line = filepath.Base(file), line
	}
	logger.L.Error("fatal",
		zap.String("desc", desc),
		zap.String("file", f.File),
		zap.Int("line", f.Line),
	)
	Halt(f)
}

// Catch runs fn and returns the fault it raised, or nil. Used by tests and
// by tools that want to report a fault instead of crashing.
func Catch(fn func()) (f *Fault) {
	defer func() {
		if r := recover(); r != nil {
			ff, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			f = ff
		}
	}()
	fn()
	return nil
}
