package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "betonstahl 12", NormalizeText("  Betonstahl 12 "))
	assert.Equal(t, "dämmung", NormalizeText("DÄMMUNG"))
	assert.Equal(t, "", NormalizeText("   "))
}

func TestEmbeddingKeyIsExact(t *testing.T) {
	assert.NotEqual(t, EmbeddingKey("Beton"), EmbeddingKey(" Beton"))
	assert.NotEqual(t, EmbeddingKey("Beton"), EmbeddingKey("beton"))
	assert.Equal(t, "Beton", EmbeddingInput(" Beton \n"))
	assert.Empty(t, EmbeddingInput(" \t "))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "artikel nummer", NormalizeHeader("Artikel-Nummer"))
	assert.Equal(t, "artikel nummer", NormalizeHeader(" ARTIKEL_NUMMER "))
	assert.Equal(t, "rohdichte kg m3", NormalizeHeader("Rohdichte (kg/m3)"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("transportbeton c25/30", []string{"stahl", "beton"}))
	assert.False(t, ContainsAny("kies", []string{"stahl", "beton"}))
	assert.False(t, ContainsAny("kies", []string{""}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Dämm", Truncate("Dämmung", 4))
	assert.Equal(t, "ab", Truncate("ab", 4))
}
