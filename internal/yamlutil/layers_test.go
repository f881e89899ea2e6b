package yamlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"empty", "", 0},
		{"single doc", "srs: epsg:3857\n", 1},
		{"two docs", "srs: epsg:3857\n---\nbg: \"#eee\"\n", 2},
		{"leading separator", "---\nsrs: epsg:3857\n", 1},
		{"trailing separator", "srs: epsg:3857\n---\n", 1},
		{"separator with trailing spaces", "a: 1\n---   \nb: 2\n", 2},
		{"empty doc between separators", "a: 1\n---\n\n---\nb: 2\n", 2},
		{"whitespace-only doc", "a: 1\n---\n   \n---\nb: 2\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, SplitDocuments([]byte(tt.data)), tt.want)
		})
	}
}

func TestDecodeLayers(t *testing.T) {
	data := []byte(`roads:
  color: "#fff"
  width: 1
bg: "#eee"
---
roads:
  width: 2.5
`)

	got, err := DecodeLayers(data)
	require.NoError(t, err)

	assert.Equal(t, "#eee", got["bg"])
	assert.Equal(t, map[string]any{"color": "#fff", "width": 2.5}, got["roads"])
}

func TestDecodeLayers_Empty(t *testing.T) {
	got, err := DecodeLayers(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeLayers_Invalid(t *testing.T) {
	_, err := DecodeLayers([]byte("a: 1\n---\n- not\n- a mapping\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document 2")
}
