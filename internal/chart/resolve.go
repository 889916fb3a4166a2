// Package chart turns resolved cell regions into excelize charts and pivot
// tables: series construction, type mapping, anchor placement, and pivot
// field layout.
package chart

import (
	"fmt"
	"strings"

	"github.com/peelpotato/fastbi/internal/refspec"
)

// Ranges holds the resolved inputs of one chart: an optional category
// dimension and the value series regions.
type Ranges struct {
	Dimension *refspec.Region
	Values    []refspec.Region
}

// Resolve parses the dimension and values specs against a sheet. The
// dimension is resolved first when it is explicit, so bare value columns can
// anchor to its rows; a bare-letter dimension is inferred afterwards from the
// first value region. At least one of the two specs must be non-empty and at
// least one value region must come out.
func Resolve(dimSpec, valuesSpec string, ctx refspec.SheetContext) (Ranges, error) {
	dimSpec = strings.TrimSpace(dimSpec)
	valuesSpec = strings.TrimSpace(valuesSpec)
	if dimSpec == "" && valuesSpec == "" {
		return Ranges{}, fmt.Errorf("chart needs a dimension or values range")
	}

	var out Ranges
	var refRows *refspec.RowBounds
	if dim, ok := refspec.ParseDimension(dimSpec, ctx); ok {
		out.Dimension = &dim
		rb := dim.RowBounds()
		refRows = &rb
	}

	out.Values = refspec.ParseValues(valuesSpec, ctx, refRows)

	if out.Dimension == nil && dimSpec != "" {
		if dim, ok := refspec.InferDimensionRegion(dimSpec, ctx, out.Values); ok {
			out.Dimension = &dim
		}
	}

	if len(out.Values) == 0 {
		return Ranges{}, fmt.Errorf("no usable value ranges in %q", valuesSpec)
	}
	return out, nil
}
