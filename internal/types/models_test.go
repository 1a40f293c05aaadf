package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValuesKeepsKeyOrder(t *testing.T) {
	fv := FieldValues(`{"name":"Acme Corp","date":""}`)

	b, err := json.Marshal(fv)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Acme Corp","date":""}`, string(b))
}

func TestFieldValuesEmpty(t *testing.T) {
	b, err := json.Marshal(FieldValues(nil))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))

	assert.Equal(t, 0, EmptyFieldValues().Len())
	assert.Empty(t, EmptyFieldValues().Map())
}

func TestFieldValuesMap(t *testing.T) {
	fv := FieldValues(`{"name":"Acme","total":12.5,"tags":["a"]}`)

	m := fv.Map()
	assert.Equal(t, "Acme", m["name"])
	assert.Equal(t, "12.5", m["total"])
	assert.Equal(t, `["a"]`, m["tags"])
	assert.Equal(t, 3, fv.Len())
}
