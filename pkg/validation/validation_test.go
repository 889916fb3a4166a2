package validation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type openInput struct {
	Path string `validate:"required,filepath_ext"`
}

type chartInput struct {
	Kind   string `validate:"required,chartkind"`
	Values string `validate:"omitempty,rangespec"`
}

func TestValidateStruct(t *testing.T) {
	require.Empty(t, ValidateStruct(openInput{Path: "book.xlsx"}))
	require.Contains(t, ValidateStruct(openInput{}), "required")
	require.Contains(t, ValidateStruct(openInput{Path: "book.txt"}), "Excel file")

	require.Empty(t, ValidateStruct(chartInput{Kind: "pie"}))
	require.Empty(t, ValidateStruct(chartInput{Kind: "col", Values: "(B:C,E) * (2:3,7)"}))
	require.Contains(t, ValidateStruct(chartInput{Kind: "sparkline"}), "chart kind")
	require.Contains(t, ValidateStruct(chartInput{Kind: "bar", Values: "B;C"}), "range grammar")
}
