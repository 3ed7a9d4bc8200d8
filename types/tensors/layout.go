// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"fmt"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Layout is the memory ordering of the axes of a tensor.
type Layout int

const (
	// LayoutUnknown is the zero value: the layout was never declared.
	LayoutUnknown Layout = iota

	// LayoutNCHW is the channel-major layout: batch, channel, height, width.
	LayoutNCHW

	// LayoutNHWC is the channel-minor layout: batch, height, width, channel.
	LayoutNHWC

	// LayoutAny is declared by kernels that accept any layout.
	LayoutAny
)

var layoutNames = []string{"Unknown", "NCHW", "NHWC", "Any"}

// String implements fmt.Stringer.
func (l Layout) String() string {
	if l < 0 || int(l) >= len(layoutNames) {
		return fmt.Sprintf("Layout(%d)", int(l))
	}
	return layoutNames[l]
}

// LayoutString converts the name of a layout (case-insensitive) back to a Layout.
func LayoutString(name string) (Layout, error) {
	for ii, layoutName := range layoutNames {
		if strings.EqualFold(name, layoutName) {
			return Layout(ii), nil
		}
	}
	return LayoutUnknown, errors.Errorf("unknown tensor layout %q, valid values are %v", name, layoutNames)
}

// Type is the declared type of a tensor: its precision (dtype) and its layout.
type Type struct {
	DType  dtypes.DType
	Layout Layout
}

// MakeType returns a Type with the given dtype and layout.
func MakeType(dtype dtypes.DType, layout Layout) Type {
	return Type{DType: dtype, Layout: layout}
}

// String implements fmt.Stringer.
func (t Type) String() string {
	return fmt.Sprintf("%s/%s", t.DType, t.Layout)
}

// DTypeString converts the name of a dtype (case-insensitive, aliases like "f32" included) to a DType.
func DTypeString(name string) (dtypes.DType, error) {
	if dtype, found := dtypes.MapOfNames[name]; found && dtype != dtypes.InvalidDType {
		return dtype, nil
	}
	for dtypeName, dtype := range dtypes.MapOfNames {
		if dtype != dtypes.InvalidDType && strings.EqualFold(name, dtypeName) {
			return dtype, nil
		}
	}
	return dtypes.InvalidDType, errors.Errorf("unknown dtype %q", name)
}

// ParseType parses a type formatted as "<dtype>/<layout>", e.g. "float32/NCHW". If the layout is omitted it
// defaults to NCHW.
func ParseType(s string) (Type, error) {
	dtypeName, layoutName, hasLayout := strings.Cut(s, "/")
	dtype, err := DTypeString(strings.TrimSpace(dtypeName))
	if err != nil {
		return Type{}, errors.WithMessagef(err, "parsing type %q", s)
	}
	layout := LayoutNCHW
	if hasLayout {
		if layout, err = LayoutString(strings.TrimSpace(layoutName)); err != nil {
			return Type{}, errors.WithMessagef(err, "parsing type %q", s)
		}
	}
	return MakeType(dtype, layout), nil
}
