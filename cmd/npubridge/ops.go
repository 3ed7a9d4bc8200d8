// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"strconv"

	"github.com/gomlx/npubridge/bridges"
	"github.com/gomlx/npubridge/bridges/npu"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// NewOpsCommand creates the ops command, listing the registered converters.
func NewOpsCommand(rootOpts *RootOptions) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List the operator types with a registered converter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOps(rootOpts, bridges.Target(target), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&target, "target", string(npu.Target), "target to list the converters of")
	return cmd
}

func runOps(opts *RootOptions, target bridges.Target, stdout io.Writer) error {
	ops := bridges.SupportedOps(target)
	if len(ops) == 0 {
		return errors.Errorf("no converters registered for target %q, registered targets: %v", target, bridges.Targets())
	}
	var output []byte
	switch opts.Format {
	case "text":
		table := newPlainTable().Headers("#", "operator type")
		for ii, opType := range ops {
			table.Row(strconv.Itoa(ii), opType)
		}
		output = []byte(titleStyle.Render("Target "+string(target)) + "\n" + table.String() + "\n")
	case "json", "proto":
		opsList := make([]any, len(ops))
		for ii, opType := range ops {
			opsList[ii] = opType
		}
		pb, err := structpb.NewStruct(map[string]any{"target": string(target), "ops": opsList})
		if err == nil {
			if opts.Format == "json" {
				output, err = protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(pb)
			} else {
				output, err = proto.Marshal(pb)
			}
		}
		if err != nil {
			return errors.Wrap(err, "failed to serialize operator list")
		}
	}
	return writeOutput(opts, stdout, output)
}
