// Package testkit holds small assertion helpers shared by package tests
package testkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// MustPanic fails unless fn panics
func MustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic, got none")
		}
	}()
	fn()
}

// MustNotPanic fails if fn panics
func MustNotPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// MustContain fails unless haystack contains needle; long output is dumped to a temp file
func MustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		return
	}
	if len(haystack) < 512 {
		t.Fatalf("expected %q in %q", needle, haystack)
	}
	p := filepath.Join(t.TempDir(), "output.txt")
	_ = os.WriteFile(p, []byte(haystack), 0o600)
	t.Fatalf("expected %q in output; full output at %s", needle, p)
}

// Date returns midnight UTC for y-m-d
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returning a pointer, for nullable columns
func DatePtr(y int, m time.Month, d int) *time.Time {
	v := Date(y, m, d)
	return &v
}

// Ptr returns &v, for building nullable fixture columns
func Ptr[T any](v T) *T { return &v }
