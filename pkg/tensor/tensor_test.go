package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "heterobatch/pkg/errors"
)

func TestFromRows(t *testing.T) {
	tr, err := FromRows([][]float64{{0, 1}, {2, 3}, {4, 5}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, tr.Shape())
	assert.Equal(t, 3, tr.Rows())
	assert.Equal(t, []int{2}, tr.RowShape())

	row, err := tr.Row(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, row)

	_, err = tr.Row(3)
	assert.Error(t, err)
}

func TestFromRowsRaggedFails(t *testing.T) {
	_, err := FromRows([][]float64{{0, 1}, {2}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestFromData(t *testing.T) {
	tr, err := FromData([]float64{0, 1, 2, 3, 4, 5}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, tr.Data())

	_, err = FromData([]float64{0, 1}, 3, 2)
	assert.Error(t, err)
}

func TestConcat(t *testing.T) {
	a, err := FromRows([][]float64{{0}, {1}})
	require.NoError(t, err)
	b, err := FromRows([][]float64{{2}, {3}, {4}})
	require.NoError(t, err)

	c, err := Concat([]*Tensor{a, b})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 1}, c.Shape())
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, c.Data())
}

func TestConcatShapeMismatch(t *testing.T) {
	a, err := FromRows([][]float64{{0, 1}})
	require.NoError(t, err)
	b, err := FromRows([][]float64{{2}})
	require.NoError(t, err)

	_, err = Concat([]*Tensor{a, b})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsAttributeShapeMismatch(err))
}

func TestSlice(t *testing.T) {
	tr, err := FromRows([][]float64{{0}, {1}, {2}, {3}})
	require.NoError(t, err)

	s, err := Slice(tr, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, s.Shape())
	assert.Equal(t, []float64{1, 2}, s.Data())

	// Slicing copies: mutating the slice leaves the source untouched.
	s.Data()[0] = 42
	assert.Equal(t, []float64{0, 1, 2, 3}, tr.Data())

	_, err = Slice(tr, 2, 5)
	assert.Error(t, err)
}

func TestSliceEmpty(t *testing.T) {
	tr, err := FromRows([][]float64{{0}, {1}})
	require.NoError(t, err)

	s, err := Slice(tr, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Rows())
}

func TestEqual(t *testing.T) {
	a, err := FromRows([][]float64{{0, 1}, {2, 3}})
	require.NoError(t, err)
	b, err := FromRows([][]float64{{0, 1}, {2, 3}})
	require.NoError(t, err)
	c, err := FromRows([][]float64{{0, 1}, {2, 4}})
	require.NoError(t, err)

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(a, nil))
	assert.True(t, Equal(nil, nil))
}

func TestConcatPreservesRoundTrip(t *testing.T) {
	a, err := FromRows([][]float64{{0}, {1}})
	require.NoError(t, err)
	b, err := FromRows([][]float64{{2}})
	require.NoError(t, err)

	c, err := Concat([]*Tensor{a, b})
	require.NoError(t, err)

	backA, err := Slice(c, 0, 2)
	require.NoError(t, err)
	backB, err := Slice(c, 2, 3)
	require.NoError(t, err)
	assert.True(t, Equal(a, backA))
	assert.True(t, Equal(b, backB))
}
