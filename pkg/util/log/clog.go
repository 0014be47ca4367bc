// Copyright 2025 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package log is a small leveled logger in the style of glog. Lines carry a
// severity, a timestamp, the caller's location and any logtags attached to
// the context.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Severity identifies the sort of log entry.
type Severity int32

// Severity levels.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) letter() byte {
	switch s {
	case SeverityWarning:
		return 'W'
	case SeverityError:
		return 'E'
	default:
		return 'I'
	}
}

type loggerT struct {
	mu        sync.Mutex
	w         io.Writer
	verbosity int32
	// now is overridable in tests.
	now func() time.Time
}

var mainLog = loggerT{w: os.Stderr, now: time.Now}

// SetOutput redirects the log output. It returns a function restoring the
// previous writer.
func SetOutput(w io.Writer) (restore func()) {
	mainLog.mu.Lock()
	defer mainLog.mu.Unlock()
	prev := mainLog.w
	mainLog.w = w
	return func() {
		mainLog.mu.Lock()
		defer mainLog.mu.Unlock()
		mainLog.w = prev
	}
}

// SetVerbosity sets the global verbosity level used by V and VEventf.
func SetVerbosity(level int) {
	atomic.StoreInt32(&mainLog.verbosity, int32(level))
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level int) bool {
	return atomic.LoadInt32(&mainLog.verbosity) >= int32(level)
}

// Infof logs to the INFO log.
func Infof(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityInfo, 1, format, args)
}

// Warningf logs to the WARNING and INFO logs.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityWarning, 1, format, args)
}

// Errorf logs to the ERROR, WARNING, and INFO logs.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	addStructured(ctx, SeverityError, 1, format, args)
}

// VEventf logs an INFO entry if the verbosity is at least level.
func VEventf(ctx context.Context, level int, format string, args ...interface{}) {
	if V(level) {
		addStructured(ctx, SeverityInfo, 1, format, args)
	}
}

func (l *loggerT) output(sev Severity, depth int, msg string) {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		file, line = "???", 1
	} else {
		file = filepath.Base(file)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	fmt.Fprintf(l.w, "%c%s %s:%d  %s\n",
		sev.letter(), now.Format("060102 15:04:05.000000"), file, line, msg)
}
