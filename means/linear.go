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
	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/initializers"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
)

// Linear is the mean function μ(x) = x·A + b, with trainable parameters A,
// shaped [inputDim, outputDim], and b, shaped [outputDim].
//
// The parameters are context variables "A" and "b" under the scope "linear",
// created on the first Mean call. If no initial values were given, A defaults
// to the 1x1 matrix [[1]] and b to the vector [0] -- only usable when
// inputDim == outputDim == 1. A mismatch between x's feature dimension and
// A's rows fails at graph building time.
type Linear struct {
	initialA, initialB *tensors.Tensor
}

// NewLinear returns a Linear mean function with the given initial parameter
// values. a must be rank-2, shaped [inputDim, outputDim], and b rank-1,
// shaped [outputDim]. Either can be nil, in which case it defaults to
// [[1]] and [0] respectively.
func NewLinear(a, b *tensors.Tensor) *Linear {
	if a != nil && a.Rank() != 2 {
		Panicf("means.NewLinear: a must be a matrix shaped [inputDim, outputDim], got shape %s", a.Shape())
	}
	if b != nil && b.Rank() != 1 {
		Panicf("means.NewLinear: b must be a vector shaped [outputDim], got shape %s", b.Shape())
	}
	if a != nil && b != nil && a.Shape().Dimensions[1] != b.Shape().Dimensions[0] {
		Panicf("means.NewLinear: a (shape %s) and b (shape %s) disagree on outputDim",
			a.Shape(), b.Shape())
	}
	return &Linear{initialA: a, initialB: b}
}

// Mean implements MeanFunction: μ(x) = x·A + b.
//
// Default parameters are created with the dtype configured in ctx (see
// ParamDType), which must match x's dtype for the matrix multiplication.
func (m *Linear) Mean(ctx *context.Context, x *graph.Node) *graph.Node {
	g := x.Graph()
	dtype := DTypeFromContext(ctx)
	ctx = ctx.In("linear")
	a := m.aVar(ctx, dtype).ValueGraph(g)
	b := m.bVar(ctx, dtype).ValueGraph(g)
	return graph.Add(graph.Dot(x, a), graph.InsertAxes(b, 0))
}

func (m *Linear) aVar(ctx *context.Context, dtype dtypes.DType) *context.Variable {
	if v := ctx.GetVariableByScopeAndName(ctx.Scope(), "A"); v != nil {
		return v
	}
	if m.initialA != nil {
		return ctx.VariableWithValue("A", m.initialA)
	}
	return ctx.WithInitializer(initializers.One).
		VariableWithShape("A", shapes.Make(dtype, 1, 1))
}

func (m *Linear) bVar(ctx *context.Context, dtype dtypes.DType) *context.Variable {
	if v := ctx.GetVariableByScopeAndName(ctx.Scope(), "b"); v != nil {
		return v
	}
	if m.initialB != nil {
		return ctx.VariableWithValue("b", m.initialB)
	}
	outputDim := 1
	if m.initialA != nil {
		outputDim = m.initialA.Shape().Dimensions[1]
	}
	return ctx.WithInitializer(initializers.Zero).
		VariableWithShape("b", shapes.Make(dtype, outputDim))
}

// A implements Affine, returning the current value of the mapping matrix.
func (m *Linear) A(ctx *context.Context, g *graph.Graph) *graph.Node {
	return m.aVar(ctx.In("linear"), DTypeFromContext(ctx)).ValueGraph(g)
}

// B implements Affine, returning the current value of the offset vector.
func (m *Linear) B(ctx *context.Context, g *graph.Graph) *graph.Node {
	return m.bVar(ctx.In("linear"), DTypeFromContext(ctx)).ValueGraph(g)
}

// Identity is the mean function μ(x) = x.
//
// It behaves like a Linear whose A is the identity matrix and b is zero, but
// carries no parameters: Mean returns its input unchanged, and the Affine
// accessors A and B return constants. InputDim is only required by those
// accessors -- typically used by analytic expectation routines -- and may be
// left unset if only Mean is used.
type Identity struct {
	// InputDim is the number of feature columns of the inputs. It defines the
	// dimension of the matrix returned by A and the vector returned by B.
	InputDim int
}

// Mean implements MeanFunction: it returns x unchanged.
func (m *Identity) Mean(_ *context.Context, x *graph.Node) *graph.Node {
	return x
}

// A implements Affine, returning the InputDim x InputDim identity matrix with
// the dtype configured in ctx (see ParamDType). It panics if InputDim is not
// set.
func (m *Identity) A(ctx *context.Context, g *graph.Graph) *graph.Node {
	if m.InputDim <= 0 {
		Panicf("means.Identity: InputDim needs to be specified when using the Identity " +
			"mean function in combination with expectations")
	}
	return graph.DiagonalWithValue(graph.ScalarOne(g, DTypeFromContext(ctx)), m.InputDim)
}

// B implements Affine, returning a zero vector of length InputDim with the
// dtype configured in ctx (see ParamDType). It panics if InputDim is not set.
func (m *Identity) B(ctx *context.Context, g *graph.Graph) *graph.Node {
	if m.InputDim <= 0 {
		Panicf("means.Identity: InputDim needs to be specified when using the Identity " +
			"mean function in combination with expectations")
	}
	return graph.Zeros(g, shapes.Make(DTypeFromContext(ctx), m.InputDim))
}
