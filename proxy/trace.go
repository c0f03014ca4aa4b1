package proxy

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
)

// GeneratedSuffix ends the name of every generated builder file. Frames in
// such files never make it into a trace.
const GeneratedSuffix = "_fluid.go"

const maxTraceDepth = 32

type tracer struct {
	skipPackages []string
}

func newTracer() *tracer {
	return &tracer{
		skipPackages: []string{reflect.TypeFor[Interpreter]().PkgPath()},
	}
}

// capture renders "method @ file:line" for the first caller outside the
// skipped packages and generated files, or just method when there is none.
func (t *tracer) capture(method string) string {
	pcs := make([]uintptr, maxTraceDepth)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !t.skip(frame) {
			return fmt.Sprintf("%s @ %s:%d", method, filepath.Base(frame.File), frame.Line)
		}
		if !more {
			return method
		}
	}
}

func (t *tracer) skip(frame runtime.Frame) bool {
	if strings.HasSuffix(frame.File, GeneratedSuffix) {
		return true
	}

	for _, pkg := range t.skipPackages {
		if strings.HasPrefix(frame.Function, pkg+".") {
			return true
		}
	}

	return false
}
