package pnr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_LengthAndCharset(t *testing.T) {
	g := NewGenerator(DefaultLength, DefaultCharset)

	for i := 0; i < 100; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(DefaultCharset, c), "unexpected character %q in %s", c, code)
		}
	}
}

func TestGenerate_CodesVary(t *testing.T) {
	g := NewGenerator(DefaultLength, DefaultCharset)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		seen[code] = true
	}
	// 36^6 的空間裡 50 次全撞的機率可忽略
	assert.Greater(t, len(seen), 1)
}

func TestNewGenerator_FallsBackToDefaults(t *testing.T) {
	g := NewGenerator(0, "")
	code, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, code, DefaultLength)
}

func TestGenerate_CustomLengthAndCharset(t *testing.T) {
	g := NewGenerator(10, "AB")
	code, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, code, 10)
	for _, c := range code {
		assert.Contains(t, []rune{'A', 'B'}, c)
	}
}
