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
	"slices"

	. "github.com/gomlx/exceptions"
	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/ml/context/initializers"
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
)

// Polynomial is a multivariate polynomial mean function of fixed total
// degree: μ(x) is a trainable linear combination of every monomial
// x₀^p₀·x₁^p₁·…·x_{D-1}^p_{D-1} with p₀+…+p_{D-1} ≤ Degree, including the
// constant monomial.
//
// The coefficients are the context variable "w" under the scope "polynomial",
// shaped [numMonomials, outputDim], zero-initialized unless explicit weights
// were given with NewPolynomial. For D features there are
// binomial(D+Degree, Degree) monomials, enumerated in a fixed order (see
// MonomialExponents), so saved coefficients remain meaningful across runs.
//
// Degree 0 behaves like Constant, and degree 1 like Linear with A and b
// folded into a single coefficient matrix.
type Polynomial struct {
	// Degree is the maximum total degree of the monomials. Degree 0 yields a
	// trainable constant.
	Degree int

	// OutputDim is the number of output columns. It defaults to 1 when unset.
	// Ignored when explicit weights were given (their shape wins).
	OutputDim int

	initialW *tensors.Tensor
}

// NewPolynomial returns a Polynomial mean function of the given total degree
// with the given initial coefficients, shaped [numMonomials, outputDim] --
// numMonomials must match the feature dimension of the inputs it will be
// evaluated on: binomial(inputDim+degree, degree). w can be nil, in which
// case coefficients start at zero.
func NewPolynomial(degree int, w *tensors.Tensor) *Polynomial {
	if degree < 0 {
		Panicf("means.NewPolynomial: degree must be non-negative, got %d", degree)
	}
	if w != nil && w.Rank() != 2 {
		Panicf("means.NewPolynomial: w must be shaped [numMonomials, outputDim], got shape %s", w.Shape())
	}
	return &Polynomial{Degree: degree, initialW: w}
}

// Mean implements MeanFunction.
func (m *Polynomial) Mean(ctx *context.Context, x *graph.Node) *graph.Node {
	g := x.Graph()
	ctx = ctx.In("polynomial")
	if x.Rank() != 2 {
		Panicf("means.Polynomial: x must be shaped [batchSize, inputDim], got shape %s", x.Shape())
	}
	batchSize := x.Shape().Dimensions[0]
	inputDim := x.Shape().Dimensions[1]
	exponents := MonomialExponents(inputDim, m.Degree)
	columns := make([]*graph.Node, len(exponents))
	for j, exps := range exponents {
		var monomial *graph.Node
		for d, e := range exps {
			if e == 0 {
				continue
			}
			feature := graph.Slice(x, graph.AxisRange(), graph.AxisElem(d)) // [batchSize, 1]
			if e > 1 {
				feature = graph.PowScalar(feature, e)
			}
			if monomial == nil {
				monomial = feature
			} else {
				monomial = graph.Mul(monomial, feature)
			}
		}
		if monomial == nil {
			// The constant monomial (all exponents zero).
			monomial = graph.Ones(g, shapes.Make(x.DType(), batchSize, 1))
		}
		columns[j] = monomial
	}
	monomials := graph.Concatenate(columns, -1) // [batchSize, numMonomials]

	wVar := ctx.GetVariableByScopeAndName(ctx.Scope(), "w")
	if wVar == nil {
		if m.initialW != nil {
			if m.initialW.Shape().Dimensions[0] != len(exponents) {
				Panicf("means.Polynomial: w has %d rows but degree %d over %d features yields %d monomials",
					m.initialW.Shape().Dimensions[0], m.Degree, inputDim, len(exponents))
			}
			wVar = ctx.VariableWithValue("w", m.initialW)
		} else {
			outputDim := m.OutputDim
			if outputDim == 0 {
				outputDim = 1
			}
			wVar = ctx.WithInitializer(initializers.Zero).
				VariableWithShape("w", shapes.Make(x.DType(), len(exponents), outputDim))
		}
	}
	return graph.Dot(monomials, wVar.ValueGraph(g))
}

// MonomialExponents enumerates the exponent vectors of all monomials over
// numFeatures variables with total degree at most degree, in a fixed
// deterministic order. The first entry is always the constant monomial
// (all zeros).
func MonomialExponents(numFeatures, degree int) [][]int {
	if numFeatures <= 0 {
		Panicf("means.MonomialExponents: numFeatures must be positive, got %d", numFeatures)
	}
	if degree < 0 {
		Panicf("means.MonomialExponents: degree must be non-negative, got %d", degree)
	}
	var result [][]int
	current := make([]int, numFeatures)
	var enumerate func(pos, budget int)
	enumerate = func(pos, budget int) {
		if pos == numFeatures {
			result = append(result, slices.Clone(current))
			return
		}
		for e := 0; e <= budget; e++ {
			current[pos] = e
			enumerate(pos+1, budget-e)
		}
		current[pos] = 0
	}
	enumerate(0, degree)
	return result
}
