package card

import (
	"errors"
	"fmt"
)

// Kind classifies a decode failure.
type Kind int

const (
	InvalidBase64 Kind = iota + 1
	InvalidJSON
	UnsupportedSpec
	MissingField
	TypeMismatch
)

func (k Kind) String() string {
	switch k {
	case InvalidBase64:
		return "invalid base64"
	case InvalidJSON:
		return "invalid JSON"
	case UnsupportedSpec:
		return "unsupported spec"
	case MissingField:
		return "missing field"
	case TypeMismatch:
		return "type mismatch"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is; every *DecodeError matches the one of its kind.
var (
	ErrInvalidBase64   = errors.New(InvalidBase64.String())
	ErrInvalidJSON     = errors.New(InvalidJSON.String())
	ErrUnsupportedSpec = errors.New(UnsupportedSpec.String())
	ErrMissingField    = errors.New(MissingField.String())
	ErrTypeMismatch    = errors.New(TypeMismatch.String())
)

var kindSentinels = map[Kind]error{
	InvalidBase64:   ErrInvalidBase64,
	InvalidJSON:     ErrInvalidJSON,
	UnsupportedSpec: ErrUnsupportedSpec,
	MissingField:    ErrMissingField,
	TypeMismatch:    ErrTypeMismatch,
}

// DecodeError describes why a payload is not a valid card.
type DecodeError struct {
	Kind Kind
	// Field is the dotted path of the offending field, e.g.
	// "data.character_book.entries[0].keys". Empty for payload errors.
	Field string
	// Offset is the byte offset of a base64 or JSON syntax error, -1 if unknown.
	Offset int64
	// Want and Got describe a value mismatch for UnsupportedSpec and TypeMismatch.
	Want, Got string
	Err       error
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case InvalidBase64, InvalidJSON:
		msg := e.Kind.String()
		if e.Offset >= 0 {
			msg = fmt.Sprintf("%s at offset %d", msg, e.Offset)
		}
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	case UnsupportedSpec:
		if e.Got == "" {
			return fmt.Sprintf("unsupported spec: %s is missing (want %q)", e.Field, e.Want)
		}
		return fmt.Sprintf("unsupported spec %s (want %q)", e.Got, e.Want)
	case MissingField:
		return fmt.Sprintf("missing field %q", e.Field)
	case TypeMismatch:
		return fmt.Sprintf("field %q: expected %s, got %s", e.Field, e.Want, e.Got)
	}
	return e.Kind.String()
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func missing(field string) error {
	return &DecodeError{Kind: MissingField, Field: field, Offset: -1}
}

func mismatch(field, want, got string) error {
	return &DecodeError{Kind: TypeMismatch, Field: field, Offset: -1, Want: want, Got: got}
}
