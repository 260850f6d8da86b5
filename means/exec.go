/*
 *	Copyright 2024 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package means

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gomlx/types/xslices"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Exec evaluates a mean function on concrete tensors, compiling the
// computation on the first call and caching it for repeated evaluation --
// the usual context.NewExec workflow, specialized for mean functions.
//
// For a Switched mean function Exec uses the partitioned evaluation path: the
// batch is split host-side by the label column (see Partition), each case is
// compiled and run only on the rows routed to it, and the per-case outputs
// are stitched back in the original row order (see Stitch). The work spent on
// each case is therefore proportional to the number of rows selecting it, and
// labels are bounds-checked. Any other mean function is compiled as a single
// graph.
//
// Both paths create the parameters under the same context scopes, so an Exec
// and direct Mean calls with the same context share parameters.
type Exec struct {
	meanFn MeanFunction

	// plain is set for the single-graph path, cases for the partitioned path.
	plain *context.Exec
	cases []*context.Exec
}

// NewExec returns an Exec evaluating meanFn with the parameters stored in ctx.
// Each distinct input shape triggers one compilation, cached thereafter.
func NewExec(backend backends.Backend, ctx *context.Context, meanFn MeanFunction) *Exec {
	if meanFn == nil {
		exceptions.Panicf("means.NewExec: meanFn is nil, it must be a mean function")
	}
	e := &Exec{meanFn: meanFn}
	if switched, ok := meanFn.(*Switched); ok {
		e.cases = make([]*context.Exec, len(switched.Cases))
		for i, c := range switched.Cases {
			e.cases[i] = context.NewExec(backend, ctx, func(ctx *context.Context, x *graph.Node) *graph.Node {
				return c.Mean(caseScope(ctx, i), x)
			})
		}
		return e
	}
	e.plain = context.NewExec(backend, ctx, func(ctx *context.Context, x *graph.Node) *graph.Node {
		return meanFn.Mean(ctx, x)
	})
	return e
}

// Call evaluates the mean function on the batch x and returns μ(x), one
// output row per row of x. For a Switched mean function x must carry the
// label column last (see Switched); an out-of-range label panics, and a batch
// with no rows returns a result with no rows. Errors in general are reported
// with panics, like the rest of the graph machinery -- see CallOrError.
func (e *Exec) Call(x *tensors.Tensor) *tensors.Tensor {
	if e.cases == nil {
		return e.plain.Call(x)[0]
	}

	features, labels := SplitLabels(x)
	parts, groups := Partition(features, labels, len(e.cases))
	if klog.V(2).Enabled() {
		klog.Infof("means.Exec: %d rows partitioned into groups of sizes %v",
			len(labels), xslices.Map(groups, func(rows []int) int { return len(rows) }))
	}

	if len(labels) == 0 {
		// Empty batch: evaluate the first case on its (empty) part, so the
		// result is an empty tensor with the case's output columns.
		return e.cases[0].Call(parts[0])[0]
	}

	results := make([]*tensors.Tensor, len(parts))
	for i, part := range parts {
		if part.Shape().Dimensions[0] == 0 {
			continue // Nothing routed to this case, skip its evaluation.
		}
		results[i] = e.cases[i].Call(part)[0]
	}
	return Stitch(groups, results)
}

// CallOrError is like Call, but converts panics thrown by the graph machinery
// (shape mismatches, invalid labels, backend failures) into an error.
func (e *Exec) CallOrError(x *tensors.Tensor) (output *tensors.Tensor, err error) {
	err = exceptions.TryCatch[error](func() {
		output = e.Call(x)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "means.Exec.CallOrError")
	}
	return output, nil
}

// Finalize immediately frees the cached compiled graphs. The Exec must not be
// used after that.
func (e *Exec) Finalize() {
	if e.plain != nil {
		e.plain.Finalize()
	}
	for _, c := range e.cases {
		if c != nil {
			c.Finalize()
		}
	}
}
