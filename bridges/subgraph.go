// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package bridges

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ConvertSubgraph converts ops, which must be in topological order, by calling the converter registered for
// each operator type on ctx.Target(). Converters are called strictly sequentially with the same ctx.
//
// It stops at the first failure, returning an error that names the operator index and type and wraps the
// converter error (so errors.Is/errors.As still see the *ConvertError and the sentinel). Panics raised by a
// converter, or by the target graph setters it calls, are returned as errors as well. After a failure ctx
// holds a partial graph and must be discarded.
func ConvertSubgraph(ctx Context, ops []OpView) error {
	target := ctx.Target()
	for ii, op := range ops {
		converter, found := Lookup(target, op.Type())
		if !found {
			err := NewConvertError(op.Type(), "type", ErrNotFound, "no converter registered for target %q", target)
			return errors.WithMessagef(err, "operator #%d of subgraph", ii)
		}
		klog.V(2).Infof("%s: converting operator #%d (%s)", target, ii, op.Type())
		var err error
		if exception := exceptions.TryCatch[error](func() { err = converter(ctx, op) }); exception != nil {
			err = exception
		}
		if err != nil {
			return errors.WithMessagef(err, "operator #%d of subgraph (%s)", ii, op.Type())
		}
	}
	klog.V(1).Infof("%s: converted %d operators", target, len(ops))
	return nil
}
