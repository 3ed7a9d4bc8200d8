// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ir

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToProto exports the model as a protobuf Struct, which can be serialized with proto.Marshal or protojson.
//
// The layout is:
//
//	name: string
//	inputs, outputs: list of operator names
//	operators: list (topological order) of
//	  {name, type, dtype, dimensions, inputs: {slot: name}, attrs: {...}, data: base64 (Const only)}
func (m *Model) ToProto() (*structpb.Struct, error) {
	operators := make([]any, 0, len(m.ops))
	for _, op := range m.ops {
		entry := map[string]any{
			"name":       op.Name(),
			"type":       op.Type().String(),
			"dtype":      op.Shape().DType.String(),
			"dimensions": intsToAny(op.Shape().Dimensions),
		}
		inputs := make(map[string]any)
		for _, edge := range op.Inputs() {
			if edge.Op != nil {
				inputs[edge.Slot] = edge.Op.Name()
			}
		}
		entry["inputs"] = inputs
		attrs := make(map[string]any)
		for key, value := range op.Attrs() {
			if ints, ok := value.([]int); ok {
				value = intsToAny(ints)
			}
			attrs[key] = value
		}
		entry["attrs"] = attrs
		if c, ok := op.(*Const); ok {
			entry["data"] = c.Value().Bytes()
		}
		operators = append(operators, entry)
	}
	pb, err := structpb.NewStruct(map[string]any{
		"name":      m.name,
		"inputs":    stringsToAny(operatorNames(m.inputs)),
		"outputs":   stringsToAny(operatorNames(m.outputs)),
		"operators": operators,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to export model %q", m.name)
	}
	return pb, nil
}

func intsToAny(values []int) []any {
	converted := make([]any, len(values))
	for ii, v := range values {
		converted[ii] = v
	}
	return converted
}

func stringsToAny(values []string) []any {
	converted := make([]any, len(values))
	for ii, v := range values {
		converted[ii] = v
	}
	return converted
}
