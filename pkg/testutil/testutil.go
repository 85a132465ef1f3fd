// Copyright (c) The meteor-gae Authors.
// Licensed under the Apache License 2.0.

package testutil

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Ok fails the test if err is not nil.
func Ok(tb testing.TB, err error, v ...interface{}) {
	tb.Helper()
	if err == nil {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	tb.Fatalf("%s:%d: unexpected error: %s%s", filepath.Base(file), line, err.Error(), msg(v...))
}

// NotOk fails the test if err is nil.
func NotOk(tb testing.TB, err error, v ...interface{}) {
	tb.Helper()
	if err != nil {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	tb.Fatalf("%s:%d: expected error, got nothing%s", filepath.Base(file), line, msg(v...))
}

// Assert fails the test if condition is false.
func Assert(tb testing.TB, condition bool, v ...interface{}) {
	tb.Helper()
	if condition {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	tb.Fatalf("%s:%d: assertion failed%s", filepath.Base(file), line, msg(v...))
}

// Equals fails the test if exp is not equal to act.
func Equals(tb testing.TB, exp, act interface{}, v ...interface{}) {
	tb.Helper()
	if reflect.DeepEqual(exp, act) {
		return
	}
	_, file, line, _ := runtime.Caller(1)
	d := cmp.Diff(exp, act, cmp.Exporter(func(reflect.Type) bool { return true }))
	tb.Fatalf("%s:%d: not equal (-exp +got):\n%s%s", filepath.Base(file), line, d, msg(v...))
}

func msg(v ...interface{}) string {
	if len(v) == 0 {
		return ""
	}
	if len(v) == 1 {
		return fmt.Sprintf(" msg: %v", v[0])
	}
	if format, ok := v[0].(string); ok {
		return " msg: " + fmt.Sprintf(format, v[1:]...)
	}
	return fmt.Sprintf(" msg: %v", v)
}
