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
	"github.com/gomlx/gomlx/types/shapes"
	"github.com/gomlx/gomlx/types/tensors"
	"github.com/gomlx/gopjrt/dtypes"
)

// SplitLabels splits a batch x shaped [batchSize, inputDim+1], whose last
// column holds per-row integer labels, into the features tensor, shaped
// [batchSize, inputDim], and the labels as a Go slice.
//
// The label column may be stored in any supported numeric dtype (labels are
// usually carried in the same float matrix as the features); values are
// truncated to integers.
func SplitLabels(x *tensors.Tensor) (features *tensors.Tensor, labels []int) {
	if x.Rank() != 2 {
		Panicf("means.SplitLabels: x must be shaped [batchSize, inputDim+1], got shape %s", x.Shape())
	}
	numRows := x.Shape().Dimensions[0]
	numCols := x.Shape().Dimensions[1]
	if numCols < 2 {
		Panicf("means.SplitLabels: x needs at least one feature column plus the label column, got shape %s", x.Shape())
	}

	labels = make([]int, numRows)
	readColumn(x, numCols-1, labels)

	features = tensors.FromShape(shapes.Make(x.DType(), numRows, numCols-1))
	if numRows > 0 {
		rowBytes := int(x.Memory()) / numRows
		elemBytes := rowBytes / numCols
		x.ConstBytes(func(src []byte) {
			features.MutableBytes(func(dst []byte) {
				featureBytes := elemBytes * (numCols - 1)
				for row := 0; row < numRows; row++ {
					copy(dst[row*featureBytes:(row+1)*featureBytes],
						src[row*rowBytes:row*rowBytes+featureBytes])
				}
			})
		})
	}
	return
}

// readColumn extracts column col of the rank-2 tensor x into out, truncating
// values to int.
func readColumn(x *tensors.Tensor, col int, out []int) {
	if len(out) == 0 {
		return
	}
	numCols := x.Shape().Dimensions[1]
	switch x.DType() {
	case dtypes.Float64:
		tensors.ConstFlatData(x, func(flat []float64) {
			for row := range out {
				out[row] = int(flat[row*numCols+col])
			}
		})
	case dtypes.Float32:
		tensors.ConstFlatData(x, func(flat []float32) {
			for row := range out {
				out[row] = int(flat[row*numCols+col])
			}
		})
	case dtypes.Int64:
		tensors.ConstFlatData(x, func(flat []int64) {
			for row := range out {
				out[row] = int(flat[row*numCols+col])
			}
		})
	case dtypes.Int32:
		tensors.ConstFlatData(x, func(flat []int32) {
			for row := range out {
				out[row] = int(flat[row*numCols+col])
			}
		})
	default:
		Panicf("means: unsupported label dtype %s -- labels must be float32, float64, int32 or int64", x.DType())
	}
}

// Partition splits the rows of x, shaped [batchSize, ...], into numParts
// groups selected by labels (one label per row, in [0, numParts)). The split
// is stable: rows keep their relative order within each group.
//
// It returns one tensor per group (possibly with zero rows) plus groups, the
// original row indices of each part, which Stitch takes to reassemble the
// parts in the original row order.
func Partition(x *tensors.Tensor, labels []int, numParts int) (parts []*tensors.Tensor, groups [][]int) {
	if x.Rank() < 2 {
		Panicf("means.Partition: x must be a batch of rows, got shape %s", x.Shape())
	}
	numRows := x.Shape().Dimensions[0]
	if len(labels) != numRows {
		Panicf("means.Partition: got %d labels for %d rows", len(labels), numRows)
	}
	if numParts <= 0 {
		Panicf("means.Partition: numParts must be positive, got %d", numParts)
	}

	groups = make([][]int, numParts)
	for row, label := range labels {
		if label < 0 || label >= numParts {
			Panicf("means.Partition: label %d of row %d is out of range [0, %d)", label, row, numParts)
		}
		groups[label] = append(groups[label], row)
	}

	rowBytes := 0
	if numRows > 0 {
		rowBytes = int(x.Memory()) / numRows
	}
	rowDims := x.Shape().Dimensions[1:]
	parts = make([]*tensors.Tensor, numParts)
	for p, rows := range groups {
		dims := append([]int{len(rows)}, rowDims...)
		part := tensors.FromShape(shapes.Make(x.DType(), dims...))
		if len(rows) > 0 {
			x.ConstBytes(func(src []byte) {
				part.MutableBytes(func(dst []byte) {
					for i, row := range rows {
						copy(dst[i*rowBytes:(i+1)*rowBytes],
							src[row*rowBytes:(row+1)*rowBytes])
					}
				})
			})
		}
		parts[p] = part
	}
	return
}

// Stitch is the inverse of Partition: it merges parts back into a single
// tensor, placing row i of part p at the original row index groups[p][i].
//
// All non-empty parts must share the dtype and row shape (they may differ on
// the number of rows), and groups must cover each output row exactly once --
// which holds for any (groups, parts) produced by Partition, even if the
// parts were replaced by equally-shaped results of further computation. A
// part whose group is empty may be nil.
func Stitch(groups [][]int, parts []*tensors.Tensor) *tensors.Tensor {
	if len(groups) != len(parts) {
		Panicf("means.Stitch: got %d groups for %d parts", len(groups), len(parts))
	}
	numRows := 0
	var ref *tensors.Tensor
	for p, rows := range groups {
		if parts[p] == nil {
			if len(rows) > 0 {
				Panicf("means.Stitch: part %d is nil but its group indexes %d rows", p, len(rows))
			}
			continue
		}
		if parts[p].Shape().Dimensions[0] != len(rows) {
			Panicf("means.Stitch: part %d has %d rows, but its group indexes %d rows",
				p, parts[p].Shape().Dimensions[0], len(rows))
		}
		numRows += len(rows)
		if ref == nil && len(rows) > 0 {
			ref = parts[p]
		}
	}
	if ref == nil {
		Panicf("means.Stitch: cannot stitch empty parts only")
	}
	for p, part := range parts {
		if part == nil || part.Shape().Dimensions[0] == 0 {
			continue
		}
		if part.DType() != ref.DType() || !slices.Equal(part.Shape().Dimensions[1:], ref.Shape().Dimensions[1:]) {
			Panicf("means.Stitch: part %d shape %s is incompatible with shape %s of other parts",
				p, part.Shape(), ref.Shape())
		}
	}

	dims := append([]int{numRows}, ref.Shape().Dimensions[1:]...)
	out := tensors.FromShape(shapes.Make(ref.DType(), dims...))
	rowBytes := int(ref.Memory()) / ref.Shape().Dimensions[0]
	covered := make([]bool, numRows)
	out.MutableBytes(func(dst []byte) {
		for p, rows := range groups {
			if len(rows) == 0 {
				continue
			}
			parts[p].ConstBytes(func(src []byte) {
				for i, row := range rows {
					if row < 0 || row >= numRows || covered[row] {
						Panicf("means.Stitch: groups do not form a permutation of rows 0..%d (row index %d)",
							numRows-1, row)
					}
					covered[row] = true
					copy(dst[row*rowBytes:(row+1)*rowBytes],
						src[i*rowBytes:(i+1)*rowBytes])
				}
			})
		}
	})
	return out
}
