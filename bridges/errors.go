// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package bridges

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a tensor, a node or a converter is not registered.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a node is created under a name already registered in the pass.
	ErrDuplicate = errors.New("duplicate")

	// ErrUnsupportedType is returned when a tensor precision or layout is not accepted by the target.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMissingAttribute is returned when a required operator attribute is absent or has the wrong type.
	ErrMissingAttribute = errors.New("missing attribute")
)

// ConvertError reports the failure to convert one operator: the operator type and the offending field (a role,
// an attribute or a tensor name). Err wraps one of the sentinel errors, so errors.Is(err, ErrNotFound) and
// similar work on a *ConvertError.
type ConvertError struct {
	OpType string
	Field  string
	Err    error
}

// Error implements the error interface.
func (e *ConvertError) Error() string {
	return fmt.Sprintf("converting %q, field %q: %v", e.OpType, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConvertError) Unwrap() error { return e.Err }

// Format implements fmt.Formatter, so "%+v" prints the stack trace of the underlying error.
func (e *ConvertError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "converting %q, field %q: %+v", e.OpType, e.Field, e.Err)
		return
	}
	_, _ = fmt.Fprint(s, e.Error())
}

// NewConvertError returns a *ConvertError for op and field wrapping kind (one of the sentinel errors) with
// the formatted message.
func NewConvertError(opType, field string, kind error, format string, args ...any) error {
	return &ConvertError{
		OpType: opType,
		Field:  field,
		Err:    errors.Wrapf(kind, format, args...),
	}
}
