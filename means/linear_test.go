package means

import (
	"testing"

	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/graph/graphtest"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time checks that Linear and Identity expose the affine read contract.
var (
	_ Affine = &Linear{}
	_ Affine = &Identity{}
)

func TestLinear(t *testing.T) {
	a := tensors.FromValue([][]float64{{1, 2}, {3, 4}, {5, 6}})
	b := tensors.FromValue([]float64{10, 20})
	mean := NewLinear(a, b)

	x := [][]float64{
		{1, 1, 1},
		{0, 1, 2},
	}
	got := evalMean(t, mean, x)
	require.Equal(t, [][]float64{
		{19, 32}, // {1+3+5+10, 2+4+6+20}
		{23, 36}, // {3+10+10, 4+12+20}
	}, got.Value())
}

func TestLinearDefaults(t *testing.T) {
	// Default parameters are A=[[1]], b=[0]: the identity on 1-dimensional inputs.
	mean := NewLinear(nil, nil)
	got := evalMean(t, mean, [][]float64{{2}, {-3}, {0.5}})
	require.Equal(t, [][]float64{{2}, {-3}, {0.5}}, got.Value())
}

func TestLinearAffineAccessors(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	ctx := context.New()
	a := tensors.FromValue([][]float64{{1, 2}, {3, 4}})
	b := tensors.FromValue([]float64{-1, 1})
	mean := NewLinear(a, b)

	gotA := context.ExecOnce(backend, ctx, func(ctx *context.Context, g *graph.Graph) *graph.Node {
		return mean.A(ctx, g)
	})
	require.Equal(t, [][]float64{{1, 2}, {3, 4}}, gotA.Value())

	gotB := context.ExecOnce(backend, ctx, func(ctx *context.Context, g *graph.Graph) *graph.Node {
		return mean.B(ctx, g)
	})
	require.Equal(t, []float64{-1, 1}, gotB.Value())

	// The accessors and Mean must resolve to the same parameters.
	got := evalMeanWithContext(t, ctx, mean, [][]float64{{1, 0}})
	require.Equal(t, [][]float64{{0, 3}}, got.Value())
}

func TestLinearReusesParametersAcrossBuilds(t *testing.T) {
	// Every graph built with the same context must resolve to the same
	// parameter variables, also when explicit initial values were given.
	ctx := context.New()
	mean := NewLinear(
		tensors.FromValue([][]float64{{2}}),
		tensors.FromValue([]float64{1}))

	got := evalMeanWithContext(t, ctx, mean, [][]float64{{1}})
	require.Equal(t, [][]float64{{3}}, got.Value())

	// Second build, different batch size, same context.
	got = evalMeanWithContext(t, ctx, mean, [][]float64{{2}, {3}})
	require.Equal(t, [][]float64{{5}, {7}}, got.Value())
	assert.Equal(t, 2, ctx.NumVariables())
}

func TestLinearInvalidConstruction(t *testing.T) {
	require.Panics(t, func() { NewLinear(tensors.FromValue([]float64{1, 2}), nil) })
	require.Panics(t, func() { NewLinear(nil, tensors.FromValue([][]float64{{1}})) })
	require.Panics(t, func() {
		// outputDim disagreement between a (2 columns) and b (3 entries).
		NewLinear(tensors.FromValue([][]float64{{1, 2}}), tensors.FromValue([]float64{1, 2, 3}))
	})
}

func TestIdentity(t *testing.T) {
	x := [][]float64{
		{0.5, -1.5, 2},
		{3, 4, 5},
	}
	got := evalMean(t, &Identity{}, x)
	require.Equal(t, x, got.Value())
}

func TestIdentityAffineAccessors(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	ctx := context.New()
	mean := &Identity{InputDim: 3}

	gotA := context.ExecOnce(backend, ctx, func(ctx *context.Context, g *graph.Graph) *graph.Node {
		return mean.A(ctx, g)
	})
	require.Equal(t, [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}, gotA.Value())

	gotB := context.ExecOnce(backend, ctx, func(ctx *context.Context, g *graph.Graph) *graph.Node {
		return mean.B(ctx, g)
	})
	require.Equal(t, []float64{0, 0, 0}, gotB.Value())

	// The dtype follows the ParamDType hyperparameter.
	ctx32 := context.New()
	ctx32.SetParam(ParamDType, "float32")
	gotA32 := context.ExecOnce(backend, ctx32, func(ctx *context.Context, g *graph.Graph) *graph.Node {
		return mean.A(ctx, g)
	})
	assert.Equal(t, [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}, gotA32.Value())
}

func TestIdentityRequiresInputDim(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	mean := &Identity{} // InputDim not set.
	require.Panics(t, func() {
		context.ExecOnce(backend, context.New(), func(ctx *context.Context, g *graph.Graph) *graph.Node {
			return mean.A(ctx, g)
		})
	})
	require.Panics(t, func() {
		context.ExecOnce(backend, context.New(), func(ctx *context.Context, g *graph.Graph) *graph.Node {
			return mean.B(ctx, g)
		})
	})
}
