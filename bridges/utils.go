// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package bridges

import (
	"github.com/gomlx/npubridge/types/tensors"
)

// InputName returns the first tensor name bound to the input role, or an ErrNotFound error.
func InputName(op OpView, role string) (string, error) {
	names := op.Input(role)
	if len(names) == 0 || names[0] == "" {
		return "", NewConvertError(op.Type(), role, ErrNotFound, "no tensor bound to input role %q", role)
	}
	return names[0], nil
}

// OptionalInputName returns the first tensor name bound to the input role, if any.
func OptionalInputName(op OpView, role string) (name string, found bool) {
	names := op.Input(role)
	if len(names) == 0 || names[0] == "" {
		return "", false
	}
	return names[0], true
}

// OutputName returns the first tensor name bound to the output role, or an ErrNotFound error.
func OutputName(op OpView, role string) (string, error) {
	names := op.Output(role)
	if len(names) == 0 || names[0] == "" {
		return "", NewConvertError(op.Type(), role, ErrNotFound, "no tensor bound to output role %q", role)
	}
	return names[0], nil
}

// FindTensor returns the tensor name bound to role from the scope of op, or an ErrNotFound error.
func FindTensor(op OpView, role, name string) (*tensors.Tensor, error) {
	t, found := op.Scope().FindTensor(name)
	if !found || t == nil {
		return nil, NewConvertError(op.Type(), role, ErrNotFound, "tensor %q not found in scope", name)
	}
	return t, nil
}

// AcceptsType returns whether the declared type matches one of the accepted types.
// An accepted type with layout tensors.LayoutAny matches any layout.
func AcceptsType(declared tensors.Type, accepted ...tensors.Type) bool {
	for _, want := range accepted {
		if declared.DType == want.DType && (want.Layout == tensors.LayoutAny || declared.Layout == want.Layout) {
			return true
		}
	}
	return false
}

// CheckInputType validates the type declared for the input role, it returns an ErrUnsupportedType error naming
// the role if the type is not declared or not accepted.
func CheckInputType(op OpView, role string, accepted ...tensors.Type) error {
	declared, found := op.InputDeclType(role)
	return checkDeclType(op, "input", role, declared, found, accepted)
}

// CheckOutputType is like CheckInputType, for output roles.
func CheckOutputType(op OpView, role string, accepted ...tensors.Type) error {
	declared, found := op.OutputDeclType(role)
	return checkDeclType(op, "output", role, declared, found, accepted)
}

func checkDeclType(op OpView, kind, role string, declared tensors.Type, found bool, accepted []tensors.Type) error {
	if !found {
		return NewConvertError(op.Type(), role, ErrUnsupportedType, "no type declared for %s role %q", kind, role)
	}
	if !AcceptsType(declared, accepted...) {
		return NewConvertError(op.Type(), role, ErrUnsupportedType, "%s role %q declared as %s, accepted types are %v",
			kind, role, declared, accepted)
	}
	return nil
}

// attrValue fetches an attribute and converts it with convert. If the attribute is absent and a default is given,
// the default is returned.
func attrValue[T any](op OpView, name, typeName string, convert func(any) (T, bool), defaultValue ...T) (T, error) {
	var zero T
	value, found := op.Attr(name)
	if !found {
		if len(defaultValue) > 0 {
			return defaultValue[0], nil
		}
		return zero, NewConvertError(op.Type(), name, ErrMissingAttribute, "attribute %q (%s) not set", name, typeName)
	}
	converted, ok := convert(value)
	if !ok {
		return zero, NewConvertError(op.Type(), name, ErrMissingAttribute, "attribute %q must be %s, got %T",
			name, typeName, value)
	}
	return converted, nil
}

func toFloat32(value any) (float32, bool) {
	switch v := value.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		// YAML and JSON decoders produce integers for whole numbers, e.g. "momentum: 1".
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	}
	return 0, false
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	}
	return 0, false
}

func toInts(value any) ([]int, bool) {
	switch v := value.(type) {
	case []int:
		return append([]int(nil), v...), true
	case []int32:
		ints := make([]int, len(v))
		for ii, x := range v {
			ints[ii] = int(x)
		}
		return ints, true
	case []int64:
		ints := make([]int, len(v))
		for ii, x := range v {
			ints[ii] = int(x)
		}
		return ints, true
	case []any:
		ints := make([]int, len(v))
		for ii, x := range v {
			var ok bool
			if ints[ii], ok = toInt(x); !ok {
				return nil, false
			}
		}
		return ints, true
	}
	return nil, false
}

func toBool(value any) (bool, bool) {
	v, ok := value.(bool)
	return v, ok
}

func toString(value any) (string, bool) {
	v, ok := value.(string)
	return v, ok
}

// AttrFloat32 returns the float attribute name of op. It accepts float32 and float64 values, anything
// else or an absent attribute returns an ErrMissingAttribute error.
func AttrFloat32(op OpView, name string) (float32, error) {
	return attrValue(op, name, "float", toFloat32)
}

// AttrFloat32Or is like AttrFloat32, but returns defaultValue if the attribute is absent.
func AttrFloat32Or(op OpView, name string, defaultValue float32) (float32, error) {
	return attrValue(op, name, "float", toFloat32, defaultValue)
}

// AttrBool returns the bool attribute name of op.
func AttrBool(op OpView, name string) (bool, error) {
	return attrValue(op, name, "bool", toBool)
}

// AttrBoolOr is like AttrBool, but returns defaultValue if the attribute is absent.
func AttrBoolOr(op OpView, name string, defaultValue bool) (bool, error) {
	return attrValue(op, name, "bool", toBool, defaultValue)
}

// AttrInt returns the integer attribute name of op.
func AttrInt(op OpView, name string) (int, error) {
	return attrValue(op, name, "int", toInt)
}

// AttrIntOr is like AttrInt, but returns defaultValue if the attribute is absent.
func AttrIntOr(op OpView, name string, defaultValue int) (int, error) {
	return attrValue(op, name, "int", toInt, defaultValue)
}

// AttrInts returns the integer list attribute name of op.
func AttrInts(op OpView, name string) ([]int, error) {
	return attrValue(op, name, "list of ints", toInts)
}

// AttrIntsOr is like AttrInts, but returns defaultValue if the attribute is absent.
func AttrIntsOr(op OpView, name string, defaultValue []int) ([]int, error) {
	return attrValue(op, name, "list of ints", toInts, defaultValue)
}

// AttrString returns the string attribute name of op.
func AttrString(op OpView, name string) (string, error) {
	return attrValue(op, name, "string", toString)
}

// AttrStringOr is like AttrString, but returns defaultValue if the attribute is absent.
func AttrStringOr(op OpView, name string, defaultValue string) (string, error) {
	return attrValue(op, name, "string", toString, defaultValue)
}

// CheckContext returns ctx as the concrete context type C expected by a target's converters, or an
// ErrUnsupportedType error.
func CheckContext[C Context](ctx Context, op OpView) (C, error) {
	typed, ok := ctx.(C)
	if !ok {
		var zero C
		return zero, NewConvertError(op.Type(), "ctx", ErrUnsupportedType, "context %T is not a %T", ctx, zero)
	}
	return typed, nil
}
