// Package coursekey parses and formats course-run identifiers.
// The canonical form is "course-v1:Org+Course+Run"; the legacy slash form
// "Org/Course/Run" is still accepted on input.
package coursekey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey is returned when a string cannot be parsed as a course key.
var ErrInvalidKey = errors.New("invalid course key")

const prefix = "course-v1:"

// CourseKey identifies a single course run.
type CourseKey struct {
	Org    string
	Course string
	Run    string
}

// Parse parses a course key in either the canonical or the legacy form.
func Parse(s string) (CourseKey, error) {
	if rest, ok := strings.CutPrefix(s, prefix); ok {
		parts := strings.Split(rest, "+")
		if len(parts) != 3 {
			return CourseKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
		}
		return newKey(s, parts)
	}

	// Legacy form: Org/Course/Run.
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return CourseKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return newKey(s, parts)
}

func newKey(raw string, parts []string) (CourseKey, error) {
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, " +/") {
			return CourseKey{}, fmt.Errorf("%w: %q", ErrInvalidKey, raw)
		}
	}
	return CourseKey{Org: parts[0], Course: parts[1], Run: parts[2]}, nil
}

// String returns the canonical form of the key.
func (k CourseKey) String() string {
	return prefix + k.Org + "+" + k.Course + "+" + k.Run
}

// IsZero reports whether the key is empty.
func (k CourseKey) IsZero() bool {
	return k == CourseKey{}
}

// MarshalText implements encoding.TextMarshaler so keys serialize as their
// canonical string in JSON and YAML.
func (k CourseKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *CourseKey) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
