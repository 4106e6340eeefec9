// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableDocument is returned for malformed, corrupt, encrypted,
	// password-protected or unsupported input documents.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrRasterizationUnavailable is returned when the PDF rasterization
	// tool is not installed on the host. It is a setup problem, not a
	// problem with the uploaded file.
	ErrRasterizationUnavailable = errors.New("rasterization unavailable")

	// ErrInvalidInput is returned for requests that cannot be attempted:
	// empty page sequences, extension mismatches, unknown options.
	ErrInvalidInput = errors.New("invalid input")
)

// ConversionError carries an error kind together with the failing operation
// and a message suitable for showing to the user.
type ConversionError struct {
	// Kind is one of the sentinel errors above.
	Kind error

	// Op names the component or step that failed (e.g. "rasterize").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// NewError builds a ConversionError.
func NewError(kind error, op, msg string, err error) *ConversionError {
	return &ConversionError{Kind: kind, Op: op, Message: msg, Err: err}
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the cause.
func (e *ConversionError) Unwrap() error { return e.Err }

// Is matches the error kind, so errors.Is(err, ErrInvalidInput) works on
// wrapped ConversionErrors.
func (e *ConversionError) Is(target error) bool { return target == e.Kind }

// Kind returns the sentinel kind of err, or nil when err is not a
// ConversionError of a known kind.
func Kind(err error) error {
	for _, k := range []error{ErrUnreadableDocument, ErrRasterizationUnavailable, ErrInvalidInput} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// UserMessage returns the text the UI shows for err.
func UserMessage(err error) string {
	var ce *ConversionError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case ErrRasterizationUnavailable:
			return "Setup problem: " + ce.Message
		case ErrUnreadableDocument:
			return "The document could not be read: " + ce.Message
		case ErrInvalidInput:
			return "Invalid input: " + ce.Message
		}
		return ce.Message
	}
	return "Conversion failed: " + err.Error()
}
