package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed(t *testing.T) {
	data := []byte(`
products:
  - name: Whey Gold
    price: 49.90
    image: /img/whey.png
    category: Proteína
    stock: 10
  - name: Pre Max
    slug: pre-max
    price: "29.5"
    image: https://cdn.example.com/pre.png
    category: Pre-entreno
    active: false
`)
	inputs, err := parseSeed(data)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	assert.Equal(t, "Whey Gold", inputs[0].Name)
	assert.True(t, inputs[0].Price.Equal(decimal.RequireFromString("49.9")))
	require.NotNil(t, inputs[0].Stock)
	assert.Equal(t, 10, *inputs[0].Stock)
	assert.Nil(t, inputs[0].Active)

	assert.Equal(t, "pre-max", inputs[1].Slug)
	require.NotNil(t, inputs[1].Active)
	assert.False(t, *inputs[1].Active)
}

func TestParseSeed_Errors(t *testing.T) {
	_, err := parseSeed([]byte(""))
	assert.Error(t, err)

	_, err = parseSeed([]byte("products:\n  - nme: typo\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestReadSeed_SampleFile(t *testing.T) {
	path := filepath.Join("..", "..", "data", "products.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("sample seed file not present")
	}
	inputs, err := readSeed(path)
	require.NoError(t, err)
	assert.NotEmpty(t, inputs)
}
