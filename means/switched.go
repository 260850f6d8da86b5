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
	"fmt"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gopjrt/dtypes"
)

// Switched applies a different (independent) mean function per datum, using a
// per-row integer label to index the mean function that governs that row.
//
// The label is stored in the extra last column of x: for K cases, x is shaped
// [batchSize, inputDim+1], its last column holds labels in [0, K), and the
// first inputDim columns are the features handed to the selected case. Row i
// of the output equals Cases[label_i](x_i[:inputDim]).
//
// Mean builds a single static graph, so it evaluates every case on the full
// feature batch and selects rows with a one-hot mask; a row with an
// out-of-range label comes out as zeros. To evaluate each case only on the
// rows routed to it -- with labels bounds-checked -- evaluate through Exec,
// which partitions the batch by label before running the cases (see
// Partition and Stitch).
type Switched struct {
	Cases []MeanFunction
}

// NewSwitched returns a Switched mean function over the given cases, where
// label g of the input's last column selects cases[g]. At least one case is
// required and none may be nil.
func NewSwitched(cases ...MeanFunction) *Switched {
	if len(cases) == 0 {
		Panicf("means.NewSwitched: at least one mean function is required")
	}
	for i, c := range cases {
		if c == nil {
			Panicf("means.NewSwitched: case %d is nil, all cases must be mean functions", i)
		}
	}
	return &Switched{Cases: cases}
}

// caseScope returns the context scope of case i, shared by Switched.Mean and
// the partitioned path in Exec so both paths use the same parameters.
func caseScope(ctx *context.Context, i int) *context.Context {
	return ctx.In("switched").In(fmt.Sprintf("case_%d", i))
}

// Mean implements MeanFunction.
func (m *Switched) Mean(ctx *context.Context, x *graph.Node) *graph.Node {
	if x.Rank() != 2 {
		Panicf("means.Switched: x must be shaped [batchSize, inputDim+1], got shape %s", x.Shape())
	}
	numCols := x.Shape().Dimensions[1]
	if numCols < 2 {
		Panicf("means.Switched: x needs at least one feature column plus the label column, got shape %s", x.Shape())
	}

	labels := graph.ConvertDType(
		graph.Squeeze(graph.Slice(x, graph.AxisRange(), graph.AxisElem(-1)), -1),
		dtypes.Int32) // [batchSize]
	features := graph.Slice(x, graph.AxisRange(), graph.AxisRange(0, numCols-1)) // [batchSize, inputDim]
	selection := graph.OneHot(labels, len(m.Cases), x.DType())                   // [batchSize, numCases]

	var output *graph.Node
	for i, c := range m.Cases {
		y := c.Mean(caseScope(ctx, i), features)
		mask := graph.Slice(selection, graph.AxisRange(), graph.AxisElem(i)) // [batchSize, 1]
		term := graph.Mul(y, mask)
		if output == nil {
			output = term
		} else {
			output = graph.Add(output, term)
		}
	}
	return output
}
