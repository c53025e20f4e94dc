package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"fenced with language", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced without language", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\": 1}\n```  \n", `{"a": 1}`},
		{"trailing comma in object", `{"a": 1,}`, `{"a": 1}`},
		{"trailing comma before newline", "{\"a\": [1, 2,\n],\n}", "{\"a\": [1, 2\n]\n}"},
		{"only one fence stripped", "```json\n{\"a\": \"```\"}\n```", "{\"a\": \"```\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestParseDetails(t *testing.T) {
	text := "```json\n" + `{
  "productName": "Oat Milk",
  "brand": "Oatly",
  "ingredients": "water, oats",
  "isFoodProduct": true,
  "category": "Beverages",
  "ecologicalScore": 78,
  "ecologicalJustification": "plant based",
  "nutritionalScore": "64",
  "nutritionalJustification": "fortified",
}` + "\n```"

	d, err := parseDetails(text)
	require.NoError(t, err)
	assert.Equal(t, "Oat Milk", d.ProductName)
	require.NotNil(t, d.Brand)
	assert.Equal(t, "Oatly", *d.Brand)
	assert.True(t, d.IsFoodProduct)
	assert.Equal(t, 78, d.EcologicalScore)
	require.NotNil(t, d.NutritionalScore)
	assert.Equal(t, 64, *d.NutritionalScore)
	assert.NotNil(t, d.Recommendations)
	assert.Empty(t, d.Recommendations)
}

func TestParseDetailsUnknownProductSentinel(t *testing.T) {
	text := `{
  "productName": "Unknown Product",
  "brand": null,
  "ingredients": "",
  "isFoodProduct": false,
  "category": "Unknown",
  "ecologicalScore": 0,
  "ecologicalJustification": "The product could not be identified from the barcode using Google Search.",
  "nutritionalScore": null,
  "nutritionalJustification": null
}`
	d, err := parseDetails(text)
	require.NoError(t, err)
	assert.Equal(t, "Unknown Product", d.ProductName)
	assert.Nil(t, d.Brand)
	assert.Nil(t, d.NutritionalScore)
	assert.Nil(t, d.NutritionalJustification)
}

func TestParseDetailsCoercion(t *testing.T) {
	d, err := parseDetails(`{"productName":"Soap","isFoodProduct":"false","category":"Household","ecologicalScore":"55.0","nutritionalScore":"null"}`)
	require.NoError(t, err)
	assert.False(t, d.IsFoodProduct)
	assert.Equal(t, 55, d.EcologicalScore)
	assert.Nil(t, d.NutritionalScore)
	assert.Equal(t, "", d.Ingredients)
}

func TestParseDetailsRejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"not json", `The product is a chocolate bar.`},
		{"array", `[{"productName": "x"}]`},
		{"null", `null`},
		{"missing name", `{"isFoodProduct": true, "category": "Snacks", "ecologicalScore": 10}`},
		{"blank name", `{"productName": " ", "isFoodProduct": true, "category": "Snacks", "ecologicalScore": 10}`},
		{"missing category", `{"productName": "x", "isFoodProduct": true, "ecologicalScore": 10}`},
		{"missing eco", `{"productName": "x", "isFoodProduct": true, "category": "Snacks"}`},
		{"fractional eco", `{"productName": "x", "isFoodProduct": true, "category": "Snacks", "ecologicalScore": 10.5}`},
		{"eco out of range", `{"productName": "x", "isFoodProduct": true, "category": "Snacks", "ecologicalScore": 101}`},
		{"negative nutri", `{"productName": "x", "isFoodProduct": true, "category": "Snacks", "ecologicalScore": 10, "nutritionalScore": -5}`},
		{"word score", `{"productName": "x", "isFoodProduct": true, "category": "Snacks", "ecologicalScore": "high"}`},
		{"bad bool", `{"productName": "x", "isFoodProduct": "maybe", "category": "Snacks", "ecologicalScore": 10}`},
		{"brand number", `{"productName": "x", "brand": 7, "isFoodProduct": true, "category": "Snacks", "ecologicalScore": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseDetails(tt.text)
			assert.Error(t, err)
		})
	}
}
