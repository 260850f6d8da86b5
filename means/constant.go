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
)

// Constant is the mean function μ(x) = c, a trainable constant row tiled to
// one output row per input row. Only the batch size of x is used, not its
// values.
//
// The parameter is the context variable "c" under the scope "constant",
// shaped [outputDim], created on the first Mean call. It defaults to [0].
type Constant struct {
	initialC *tensors.Tensor
}

// NewConstant returns a Constant mean function with the given initial value
// for c, a rank-1 tensor shaped [outputDim]. c can be nil, in which case it
// defaults to the vector [0].
func NewConstant(c *tensors.Tensor) *Constant {
	if c != nil && c.Rank() != 1 {
		Panicf("means.NewConstant: c must be a vector shaped [outputDim], got shape %s", c.Shape())
	}
	return &Constant{initialC: c}
}

// Mean implements MeanFunction: it tiles c to one row per row of x.
//
// A default c is created with the dtype configured in ctx (see ParamDType).
func (m *Constant) Mean(ctx *context.Context, x *graph.Node) *graph.Node {
	g := x.Graph()
	dtype := DTypeFromContext(ctx)
	ctx = ctx.In("constant")
	cVar := ctx.GetVariableByScopeAndName(ctx.Scope(), "c")
	if cVar == nil {
		if m.initialC != nil {
			cVar = ctx.VariableWithValue("c", m.initialC)
		} else {
			cVar = ctx.WithInitializer(initializers.Zero).
				VariableWithShape("c", shapes.Make(dtype, 1))
		}
	}
	c := cVar.ValueGraph(g)
	batchSize := x.Shape().Dimensions[0]
	outputDim := c.Shape().Dimensions[0]
	return graph.BroadcastToDims(graph.InsertAxes(c, 0), batchSize, outputDim)
}

// Zero is the mean function μ(x) = 0. Unlike Constant it carries no trainable
// parameter at all: the result is a zero tensor shaped like x's leading
// (batch) dimensions with a final axis of size OutputDim, computed only from
// x's shape.
type Zero struct {
	// OutputDim is the number of output columns. It defaults to 1 when unset.
	OutputDim int
}

// Mean implements MeanFunction: it returns zeros shaped
// [<batch dimensions of x...>, OutputDim], with x's dtype.
func (m *Zero) Mean(_ *context.Context, x *graph.Node) *graph.Node {
	g := x.Graph()
	outputDim := m.OutputDim
	if outputDim == 0 {
		outputDim = 1
	}
	dims := make([]int, 0, x.Rank())
	dims = append(dims, x.Shape().Dimensions[:x.Rank()-1]...)
	dims = append(dims, outputDim)
	return graph.Zeros(g, shapes.Make(x.DType(), dims...))
}
