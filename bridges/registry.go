// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package bridges

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/npubridge/pkg/support/sets"
	"k8s.io/klog/v2"
)

type registryKey struct {
	target Target
	opType string
}

// registeredConverters is only written during init(), and is read-only afterward.
var registeredConverters = make(map[registryKey]Converter)

// Register a converter for the framework operator type opType on target.
//
// It should be called during init(); it panics if a converter is already registered for the pair.
func Register(target Target, opType string, converter Converter) {
	key := registryKey{target, opType}
	if converter == nil {
		exceptions.Panicf("bridges.Register(%q, %q): nil converter", target, opType)
	}
	if _, found := registeredConverters[key]; found {
		exceptions.Panicf("bridges.Register(%q, %q): converter already registered", target, opType)
	}
	klog.V(3).Infof("registered converter %s/%s", target, opType)
	registeredConverters[key] = converter
}

// Lookup returns the converter registered for opType on target.
func Lookup(target Target, opType string) (converter Converter, found bool) {
	converter, found = registeredConverters[registryKey{target, opType}]
	return
}

// SupportedOps returns the operator types with converters registered for target, sorted.
func SupportedOps(target Target) []string {
	ops := sets.Make[string]()
	for key := range registeredConverters {
		if key.target == target {
			ops.Insert(key.opType)
		}
	}
	return sets.Sorted(ops)
}

// Targets returns the targets with at least one registered converter, sorted.
func Targets() []Target {
	targets := sets.Make[Target]()
	for key := range registeredConverters {
		targets.Insert(key.target)
	}
	return sets.Sorted(targets)
}
