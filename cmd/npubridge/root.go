// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	// Registers the NPU converters.
	_ "github.com/gomlx/npubridge/bridges/npu"
)

// RootOptions holds the flags shared by all commands.
type RootOptions struct {
	Format string
	Output string
}

// ValidFormats of the converted model.
var ValidFormats = []string{"text", "json", "proto"}

// NewRootCommand creates the root command, with the klog flags included.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	cmd := &cobra.Command{
		Use:   "npubridge",
		Short: "Lowers framework subgraphs to the NPU target graph",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return errors.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|proto)")
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", "", "write the output to this file instead of stdout")

	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewOpsCommand(opts))
	return cmd
}
