// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// npubridge converts a framework subgraph, described in a YAML program file, to the NPU target graph, and
// prints or exports the result. See package github.com/gomlx/npubridge/pkg/program for the file format.
//
// Usage:
//
//	npubridge convert program.yaml [--format text|json|proto] [--output file]
//	npubridge ops [--target npu]
//
// Logging is configured with the klog flags, e.g. "-v=3" logs each operator converted.
package main

import (
	"os"

	"k8s.io/klog/v2"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		klog.Errorf("%+v", err)
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}
