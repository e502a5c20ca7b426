package vmodel

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrMissingField        = errors.New("missing field")
	ErrInvalidValue        = errors.New("invalid value")
	ErrUnrecognizedVariant = errors.New("unrecognized variant")
	ErrMalformedDocument   = errors.New("malformed document")
)

// Path addresses a value inside a nested raw mapping.
type Path []string

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Child returns a copy of p extended by key.
func (p Path) Child(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// MissingFieldError reports that a key on Path is absent.
type MissingFieldError struct {
	Path Path
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Path)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// InvalidValueError reports a value that is not a valid Expected.
type InvalidValueError struct {
	Path     Path
	Expected Kind
	Value    interface{}
}

func (e *InvalidValueError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("invalid value %v: expected %s", describe(e.Value), e.Expected)
	}
	return fmt.Sprintf("invalid value %v for %q: expected %s", describe(e.Value), e.Path, e.Expected)
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }

// UnrecognizedVariantError reports a discriminator outside its allowed set.
type UnrecognizedVariantError struct {
	Path    Path
	Got     interface{}
	Allowed []string
}

func (e *UnrecognizedVariantError) Error() string {
	return fmt.Sprintf("unrecognized value %v for %q: must be one of %s",
		describe(e.Got), e.Path, strings.Join(e.Allowed, ", "))
}

func (e *UnrecognizedVariantError) Is(target error) bool { return target == ErrUnrecognizedVariant }

// MalformedDocumentError reports bytes that are not a YAML mapping at all.
type MalformedDocumentError struct {
	Source string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed configuration document: %v", e.Err)
	}
	return fmt.Sprintf("malformed configuration document %s: %v", e.Source, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

func (e *MalformedDocumentError) Is(target error) bool { return target == ErrMalformedDocument }

func describe(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
