package means

import (
	"testing"

	"github.com/gomlx/gomlx/graph"
	"github.com/gomlx/gomlx/graph/graphtest"
	"github.com/gomlx/gomlx/ml/context"
	"github.com/gomlx/gomlx/types/tensors"

	_ "github.com/gomlx/gomlx/backends/default"
)

// evalMean evaluates mf on the batch x (anything convertible to a tensor)
// with a fresh context.
func evalMean(t *testing.T, mf MeanFunction, x any) *tensors.Tensor {
	return evalMeanWithContext(t, context.New(), mf, x)
}

func evalMeanWithContext(t *testing.T, ctx *context.Context, mf MeanFunction, x any) *tensors.Tensor {
	backend := graphtest.BuildTestBackend()
	return context.ExecOnce(backend, ctx, func(ctx *context.Context, x *graph.Node) *graph.Node {
		return mf.Mean(ctx, x)
	}, x)
}
