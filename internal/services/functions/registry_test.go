package functions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestRegistry() *Registry {
	return NewRegistry(arbor.NewLogger())
}

func TestRegistry_PremOp(t *testing.T) {
	r := newTestRegistry()

	result, err := r.Call("premOp", []interface{}{float64(4), float64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(6), result)

	result, err = r.Call("premOp", []interface{}{2.5, 1.0})
	require.NoError(t, err)
	assert.Equal(t, 4.5, result)
}

func TestRegistry_Factorial(t *testing.T) {
	r := newTestRegistry()

	result, err := r.Call("factorial", []interface{}{int64(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(120), result)

	_, err = r.Call("factorial", []interface{}{int64(-1)})
	assert.Error(t, err)

	_, err = r.Call("factorial", []interface{}{int64(25)})
	assert.Error(t, err)
}

func TestRegistry_UnknownFunction(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Call("no_such_function", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFunction))
}

func TestRegistry_WrongArity(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Call("premOp", []interface{}{float64(1)})
	assert.Error(t, err)
}

func TestRegistry_TranslateText(t *testing.T) {
	r := newTestRegistry()

	result, err := r.Call("translate_text", []interface{}{"hello", "es"})
	require.NoError(t, err)
	assert.Equal(t, "hola", result)

	result, err = r.Call("translate_text", []interface{}{"hello", "jp"})
	require.NoError(t, err)
	assert.Equal(t, "[MOCK TRANSLATION to jp]: hello", result)
}

func TestRegistry_CalculateMortgage(t *testing.T) {
	r := newTestRegistry()

	result, err := r.Call("calculate_mortgage", []interface{}{float64(300000), 0.06, int64(30)})
	require.NoError(t, err)

	payment, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 1798.65, payment["monthly_payment"], 0.5)
}

func TestRegistry_ExtractNumbers(t *testing.T) {
	r := newTestRegistry()

	result, err := r.Call("extract_numbers", []interface{}{"rates rose from 4.5 to 6 percent in -2 years"})
	require.NoError(t, err)

	numbers, ok := result.([]float64)
	require.True(t, ok)
	assert.Equal(t, []float64{4.5, 6, -2}, numbers)
}

func TestRegistry_Descriptions(t *testing.T) {
	r := newTestRegistry()

	descs := r.Descriptions()
	assert.Contains(t, descs, "premOp")
	assert.Contains(t, descs, "factorial")
	assert.True(t, r.Has("get_weather"))
	assert.False(t, r.Has("missing"))
}
