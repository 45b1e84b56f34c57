package domain

import "unique"

// TargetName identifies a build target. It wraps a unique.Handle[string] so that
// names compare by value in constant time and can be used as map keys.
type TargetName struct {
	h unique.Handle[string]
}

// NewTargetName creates a new TargetName from a string.
func NewTargetName(s string) TargetName {
	return TargetName{
		h: unique.Make(s),
	}
}

// String returns the underlying string value.
func (n TargetName) String() string {
	var zero unique.Handle[string]
	if n.h == zero {
		return ""
	}
	return n.h.Value()
}

// IsZero reports whether n was never assigned a name.
func (n TargetName) IsZero() bool {
	var zero unique.Handle[string]
	return n.h == zero
}

// MarshalText implements encoding.TextMarshaler.
func (n TargetName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *TargetName) UnmarshalText(text []byte) error {
	n.h = unique.Make(string(text))
	return nil
}

// TargetNames converts a list of strings to target names, preserving order.
func TargetNames(names ...string) []TargetName {
	res := make([]TargetName, len(names))
	for i, s := range names {
		res[i] = NewTargetName(s)
	}
	return res
}

// Strings converts target names back to plain strings.
func Strings(names []TargetName) []string {
	res := make([]string, len(names))
	for i, n := range names {
		res[i] = n.String()
	}
	return res
}
