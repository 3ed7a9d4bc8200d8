// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/npubridge/bridges/npu"
	"github.com/gomlx/npubridge/ir"
	"github.com/gomlx/npubridge/pkg/program"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"k8s.io/klog/v2"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <program.yaml>",
		Short: "Convert a subgraph program to the NPU target graph",
		Long: `Convert loads a subgraph program, converts its operators in order and builds the
NPU target graph.

With --format text it prints the operators and a summary; json and proto export the
model as a protobuf Struct (protojson or binary wire format).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(rootOpts, args[0], cmd.OutOrStdout())
		},
	}
}

func runConvert(opts *RootOptions, path string, stdout io.Writer) error {
	p, err := program.Load(path)
	if err != nil {
		return err
	}
	klog.V(1).Infof("loaded program %q: %d tensors, %d operators", p.Name, len(p.Tensors), len(p.Operators))
	model, err := npu.BuildSubgraph(p.Name, p.Ops(), p.Inputs, p.Outputs)
	if err != nil {
		return err
	}

	var output []byte
	switch opts.Format {
	case "text":
		output = []byte(modelReport(model))
	case "json", "proto":
		pb, err := model.ToProto()
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			output, err = protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(pb)
		} else {
			output, err = proto.Marshal(pb)
		}
		if err != nil {
			return errors.Wrapf(err, "failed to serialize model %q", model.Name())
		}
	}
	return writeOutput(opts, stdout, output)
}

func writeOutput(opts *RootOptions, stdout io.Writer, output []byte) error {
	if opts.Output == "" {
		_, err := stdout.Write(output)
		return errors.Wrap(err, "failed to write output")
	}
	if err := os.WriteFile(opts.Output, output, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write output to %q", opts.Output)
	}
	klog.V(1).Infof("wrote %s to %q", humanize.Bytes(uint64(len(output))), opts.Output)
	return nil
}

// modelReport lists the operators of the model and a summary.
func modelReport(model *ir.Model) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("Model %q", model.Name())))
	sb.WriteString("\n")
	table := newPlainTable().Headers("#", "name", "type", "shape", "inputs")
	for ii, op := range model.Operators() {
		var inputs []string
		for _, edge := range op.Inputs() {
			if edge.Op != nil {
				inputs = append(inputs, edge.Slot+"="+edge.Op.Name())
			}
		}
		table.Row(strconv.Itoa(ii), op.Name(), op.Type().String(), op.Shape().String(), strings.Join(inputs, ", "))
	}
	sb.WriteString(table.String())
	sb.WriteString("\n")

	sb.WriteString(titleStyle.Render("Summary"))
	sb.WriteString("\n")
	summary := newPlainTable()
	summary.Row("operators", humanize.Comma(int64(model.NumOperators())))
	summary.Row("inputs", humanize.Comma(int64(len(model.Inputs()))))
	summary.Row("outputs", humanize.Comma(int64(len(model.Outputs()))))
	summary.Row("constants", humanize.Comma(int64(len(model.Constants()))))
	summary.Row("constant bytes", humanize.Bytes(uint64(model.ConstantBytes())))
	sb.WriteString(summary.String())
	sb.WriteString("\n")
	return sb.String()
}
