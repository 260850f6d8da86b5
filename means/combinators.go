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
)

// Additive combines two mean functions additively:
// μ(x) = μ₁(x) + μ₂(x), elementwise.
//
// Both children must produce outputs of the same shape for a given x;
// mismatches fail at graph building time. The children's parameters live
// under the scopes "additive/add_1" and "additive/add_2" respectively, so two
// children of the same type do not alias each other's parameters.
type Additive struct {
	First, Second MeanFunction
}

// NewAdditive returns the mean function μ(x) = first(x) + second(x).
// It is the Go spelling of the `mean1 + mean2` operator overload other
// frameworks provide. Neither operand is evaluated here.
func NewAdditive(first, second MeanFunction) *Additive {
	if first == nil || second == nil {
		Panicf("means.NewAdditive: both operands must be mean functions, got (%v, %v)", first, second)
	}
	return &Additive{First: first, Second: second}
}

// Mean implements MeanFunction.
func (m *Additive) Mean(ctx *context.Context, x *graph.Node) *graph.Node {
	ctx = ctx.In("additive")
	return graph.Add(
		m.First.Mean(ctx.In("add_1"), x),
		m.Second.Mean(ctx.In("add_2"), x))
}

// Product combines two mean functions multiplicatively:
// μ(x) = μ₁(x) * μ₂(x), elementwise.
//
// Both children must produce outputs of the same shape for a given x;
// mismatches fail at graph building time. The children's parameters live
// under the scopes "product/prod_1" and "product/prod_2" respectively.
type Product struct {
	First, Second MeanFunction
}

// NewProduct returns the mean function μ(x) = first(x) * second(x).
// It is the Go spelling of the `mean1 * mean2` operator overload other
// frameworks provide. Neither operand is evaluated here.
func NewProduct(first, second MeanFunction) *Product {
	if first == nil || second == nil {
		Panicf("means.NewProduct: both operands must be mean functions, got (%v, %v)", first, second)
	}
	return &Product{First: first, Second: second}
}

// Mean implements MeanFunction.
func (m *Product) Mean(ctx *context.Context, x *graph.Node) *graph.Node {
	ctx = ctx.In("product")
	return graph.Mul(
		m.First.Mean(ctx.In("prod_1"), x),
		m.Second.Mean(ctx.In("prod_2"), x))
}
