package config

import (
	"errors"
	"fmt"
)

var (
	// ErrSettingNotFound is returned for a key absent from every layer.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrTypeMismatch matches every *TypeError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidPath is returned by Set for an empty key or one that
	// descends through a scalar.
	ErrInvalidPath = errors.New("invalid setting path")
)

// TypeError reports a configured value of the wrong type, such as
// files.maxFileSize = "big". Section accessors record it and fall back to
// the default.
type TypeError struct {
	Path     string
	Expected string
	Actual   string
	Value    any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: want %s, got %s %v", e.Path, e.Expected, e.Actual, e.Value)
}

// Is makes errors.Is(err, ErrTypeMismatch) hold for any TypeError.
func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}
