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

// Package means implements parametric mean functions μ(x;θ) for Gaussian process
// models, supporting f ~ GP(μ(x;θ), k(x,x')).
//
// By default, latent functions modelled with Gaussian processes are assumed to
// have zero mean. In some cases one wants to model only the deviation from a
// parametric function μ(x;θ), whose parameters θ are learned along with the rest
// of the model. This package provides the usual leaf mean functions (Linear,
// Identity, Constant, Zero, Polynomial), a per-datum switched mean function,
// and the Additive and Product combinators to compose them:
//
//	mean := means.NewAdditive(
//		means.NewLinear(a, b),
//		means.NewProduct(means.NewConstant(c), &means.Identity{}))
//	...
//	y := mean.Mean(ctx, x)  // Inside some graph building function.
//
// Each mean function implements MeanFunction: given a batch x shaped
// [batchSize, inputDim] it builds the graph computing an output with one row
// per input row. Each row of the output is computed independently from the
// corresponding row of the input. Parameters are ordinary context variables,
// so they are trained like any other model weights and saved by checkpoints.
//
// See Exec for evaluating a mean function on concrete tensors, including the
// partitioned evaluation of Switched mean functions.
package means

import (
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
)

const (
	// ParamDType context hyperparameter defines the dtype used by mean functions
	// that must materialize values without an input tensor to take the dtype
	// from -- e.g. parameters created with default values, or Identity.A.
	// It takes a dtype name ("float32", "float64", ...). The default is "float64".
	ParamDType = "dtype"
)

// MeanFunction is a node in a mean function composition tree.
//
// Mean builds the graph that computes μ(x) for the batch x, shaped
// [batchSize, inputDim]. The output has one row per input row; its number of
// columns (the output dimension) is defined by each concrete mean function.
//
// Parameters of a mean function are context variables created under a scope
// entered from ctx, so evaluating the same composition twice with the same
// context reuses (shares) the same parameters.
type MeanFunction interface {
	Mean(ctx *context.Context, x *graph.Node) *graph.Node
}

// Affine is implemented by mean functions of the form μ(x) = x·A + b that can
// expose A and b explicitly. Analytic expectation routines inspect A and b
// instead of calling Mean.
//
// Linear and Identity implement it: Linear returns its parameters, Identity
// returns constants (the identity matrix and a zero vector).
type Affine interface {
	MeanFunction

	// A returns the mapping matrix, shaped [inputDim, outputDim].
	A(ctx *context.Context, g *graph.Graph) *graph.Node

	// B returns the offset vector, shaped [outputDim].
	B(ctx *context.Context, g *graph.Graph) *graph.Node
}

// DTypeFromContext returns the dtype mean functions should use when there is
// no input tensor to inherit it from. It reads the ParamDType hyperparameter,
// defaulting to float64.
func DTypeFromContext(ctx *context.Context) dtypes.DType {
	name := context.GetParamOr(ctx, ParamDType, "float64")
	dtype, err := dtypes.DTypeString(name)
	if err != nil {
		Panicf("invalid value %q for hyperparameter %q: %v", name, ParamDType, err)
	}
	return dtype
}
