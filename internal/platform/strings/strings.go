// Package strings has small string and slice helpers
package strings

import std "strings"

// IfEmpty returns def when in is empty
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustPrefix normalises a mount path to "/x/y" and panics on the root
func MustPrefix(s string) string {
	s = "/" + std.Trim(std.TrimSpace(s), " /")
	if s == "/" {
		panic("root path is required")
	}
	return s
}

// Ptr returns nil for "" and &s otherwise
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns "" for nil
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// SQLNullPtr turns nil or blank into a NULL query argument
func SQLNullPtr(ps *string) any {
	if ps == nil || std.TrimSpace(*ps) == "" {
		return nil
	}
	return *ps
}
