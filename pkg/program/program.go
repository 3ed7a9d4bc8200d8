// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package program loads the description of a framework subgraph (its tensors and its operators, in
// topological order) from YAML, and exposes it through the interfaces of package bridges.
//
// Example:
//
//	name: bn_relu
//	inputs: [x]
//	outputs: [z]
//	tensors:
//	  - {name: x, shape: [1, 3, 224, 224]}
//	  - {name: bn_scale, shape: [3], fill: 1}
//	  - {name: bn_mean, shape: [3], data: [0.1, 0.2, 0.3]}
//	ops:
//	  - type: batch_norm
//	    inputs: {X: x, Scale: bn_scale, Bias: bn_bias, Mean: bn_mean, Variance: bn_variance}
//	    outputs: {Y: y}
//	    attrs: {momentum: 0.9, epsilon: 1.0e-5, use_global_stats: false}
//	  - type: relu
//	    inputs: {X: y}
//	    outputs: {Out: z}
//
// Tensors default to dtype float32 and layout NCHW. A tensor with "data" or "fill" holds content (a parameter),
// otherwise only its shape is known (an activation). The declared type of an operator role defaults to the type of
// its tensor, and can be overridden with "types", e.g. `types: {Scale: float16/NCHW}`.
package program

import (
	"bytes"
	"os"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/pkg/support/sets"
	"github.com/gomlx/npubridge/types/shapes"
	"github.com/gomlx/npubridge/types/tensors"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"gopkg.in/yaml.v3"
)

// Program is a subgraph loaded from YAML.
type Program struct {
	// Name of the subgraph.
	Name string `yaml:"name"`

	// Inputs are the tensors fed to the subgraph. If empty, every activation not produced by an operator is an
	// input.
	Inputs []string `yaml:"inputs,omitempty"`

	// Outputs are the tensors returned by the subgraph.
	Outputs []string `yaml:"outputs"`

	// Tensors of the subgraph: activations and parameters.
	Tensors []TensorSpec `yaml:"tensors"`

	// Operators in topological order.
	Operators []OpSpec `yaml:"ops"`

	scope *tensors.Scope
	ops   []*OpDesc
}

// TensorSpec describes one tensor.
type TensorSpec struct {
	Name   string    `yaml:"name"`
	DType  string    `yaml:"dtype,omitempty"`
	Layout string    `yaml:"layout,omitempty"`
	Shape  []int     `yaml:"shape"`
	Data   []float64 `yaml:"data,omitempty"`
	Fill   *float64  `yaml:"fill,omitempty"`
}

// OpSpec describes one operator.
type OpSpec struct {
	Type    string            `yaml:"type"`
	Inputs  map[string]Names  `yaml:"inputs"`
	Outputs map[string]Names  `yaml:"outputs"`
	Attrs   map[string]any    `yaml:"attrs,omitempty"`
	Types   map[string]string `yaml:"types,omitempty"`
}

// Names of the tensors bound to a role. In YAML it is either a single name or a list of names.
type Names []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Names) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*n = Names{value.Value}
		return nil
	}
	var names []string
	if err := value.Decode(&names); err != nil {
		return err
	}
	*n = names
	return nil
}

// Load reads and parses a program file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read program file")
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "program file %q", path)
	}
	return p, nil
}

// Parse parses a program from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Program, error) {
	p := &Program{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(p); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}
	if err := p.validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid program")
	}
	p.scope = tensors.NewScope()
	for ii := range p.Tensors {
		t, err := p.Tensors[ii].build()
		if err != nil {
			return nil, errors.WithMessagef(err, "tensor #%d %q", ii, p.Tensors[ii].Name)
		}
		p.scope.Set(p.Tensors[ii].Name, t)
	}
	for ii, spec := range p.Operators {
		op, err := spec.build(p.scope)
		if err != nil {
			return nil, errors.WithMessagef(err, "op #%d %q", ii, spec.Type)
		}
		p.ops = append(p.ops, op)
	}
	return p, nil
}

func (p *Program) validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if len(p.Outputs) == 0 {
		return errors.New("outputs list is required and must be non-empty")
	}
	if len(p.Operators) == 0 {
		return errors.New("ops list is required and must be non-empty")
	}
	names := sets.Make[string](len(p.Tensors))
	for ii, spec := range p.Tensors {
		if spec.Name == "" {
			return errors.Errorf("tensor #%d has no name", ii)
		}
		if names.Has(spec.Name) {
			return errors.Errorf("tensor %q defined more than once", spec.Name)
		}
		names.Insert(spec.Name)
	}
	for ii, spec := range p.Operators {
		if spec.Type == "" {
			return errors.Errorf("op #%d has no type", ii)
		}
	}
	return nil
}

func (spec *TensorSpec) build() (*tensors.Tensor, error) {
	dtype, layout := DefaultType.DType, DefaultType.Layout
	var err error
	if spec.DType != "" {
		if dtype, err = tensors.DTypeString(spec.DType); err != nil {
			return nil, err
		}
	}
	if spec.Layout != "" {
		if layout, err = tensors.LayoutString(spec.Layout); err != nil {
			return nil, err
		}
	}
	for _, dim := range spec.Shape {
		if dim <= 0 {
			return nil, errors.Errorf("invalid shape %v: dimensions must be > 0", spec.Shape)
		}
	}
	shape := shapes.Make(dtype, spec.Shape...)

	values := spec.Data
	switch {
	case spec.Fill != nil && len(values) > 0:
		return nil, errors.New("only one of data or fill can be set")
	case spec.Fill != nil:
		values = make([]float64, shape.Size())
		for ii := range values {
			values[ii] = *spec.Fill
		}
	case len(values) == 0:
		return tensors.FromShape(shape).WithLayout(layout), nil
	}
	if len(values) != shape.Size() {
		return nil, errors.Errorf("shape %v requires %d values, got %d", spec.Shape, shape.Size(), len(values))
	}

	var t *tensors.Tensor
	switch dtype {
	case dtypes.Float32:
		t = tensors.FromFlatDataAndDimensions(convertValues(values, func(v float64) float32 { return float32(v) }), spec.Shape...)
	case dtypes.Float64:
		t = tensors.FromFlatDataAndDimensions(values, spec.Shape...)
	case dtypes.Float16:
		t = tensors.FromFlatDataAndDimensions(convertValues(values, func(v float64) float16.Float16 {
			return float16.Fromfloat32(float32(v))
		}), spec.Shape...)
	case dtypes.Int32:
		t = tensors.FromFlatDataAndDimensions(convertValues(values, func(v float64) int32 { return int32(v) }), spec.Shape...)
	case dtypes.Int64:
		t = tensors.FromFlatDataAndDimensions(convertValues(values, func(v float64) int64 { return int64(v) }), spec.Shape...)
	default:
		return nil, errors.Errorf("tensors with data of dtype %s are not supported", dtype)
	}
	return t.WithLayout(layout), nil
}

func convertValues[T any](values []float64, convert func(float64) T) []T {
	converted := make([]T, len(values))
	for ii, v := range values {
		converted[ii] = convert(v)
	}
	return converted
}

func (spec *OpSpec) build(scope *tensors.Scope) (*OpDesc, error) {
	op := NewOp(spec.Type, scope)
	for role, names := range spec.Inputs {
		op.SetInput(role, names...)
	}
	for role, names := range spec.Outputs {
		op.SetOutput(role, names...)
	}
	for name, value := range spec.Attrs {
		op.SetAttr(name, value)
	}
	for role, text := range spec.Types {
		t, err := tensors.ParseType(text)
		if err != nil {
			return nil, errors.WithMessagef(err, "role %q", role)
		}
		op.SetDeclType(role, t)
	}
	return op, nil
}

// Scope holding the tensors of the program.
func (p *Program) Scope() *tensors.Scope { return p.scope }

// Ops returns the operators of the program, in topological order.
func (p *Program) Ops() []bridges.OpView {
	views := make([]bridges.OpView, len(p.ops))
	for ii, op := range p.ops {
		views[ii] = op
	}
	return views
}

// OpDescs returns the operators of the program as *OpDesc, in topological order.
func (p *Program) OpDescs() []*OpDesc {
	return append([]*OpDesc(nil), p.ops...)
}
