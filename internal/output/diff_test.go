package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDiff_Identical(t *testing.T) {
	d, err := ComputeDiff(styleXML, styleXML, DefaultDiffOptions())
	require.NoError(t, err)
	assert.True(t, d.Empty())
	assert.Equal(t, "no changes", d.Summary())
}

func TestComputeDiff_Changed(t *testing.T) {
	old := "<Rule>\n<MaxScaleDenominator>640000</MaxScaleDenominator>\n</Rule>\n"
	cur := "<Rule>\n<MaxScaleDenominator>320000</MaxScaleDenominator>\n<LineSymbolizer/>\n</Rule>\n"

	d, err := ComputeDiff(old, cur, DefaultDiffOptions())
	require.NoError(t, err)
	assert.False(t, d.Empty())
	assert.Equal(t, 2, d.Added)
	assert.Equal(t, 1, d.Removed)
	assert.Equal(t, "+2 -1 lines", d.Summary())
	assert.Contains(t, d.Unified, "--- previous")
	assert.Contains(t, d.Unified, "+++ current")
	assert.Contains(t, d.Unified, "-<MaxScaleDenominator>640000</MaxScaleDenominator>")
}

func TestComputeDiff_EmptyOld(t *testing.T) {
	d, err := ComputeDiff("", styleXML, DefaultDiffOptions())
	require.NoError(t, err)
	assert.False(t, d.Empty())
	assert.Equal(t, 3, d.Added)
}

func TestDiff_WriteTo(t *testing.T) {
	d, err := ComputeDiff("a\n", "b\n", DiffOptions{OldLabel: "x", NewLabel: "y", Context: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := d.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Contains(t, buf.String(), "-a")
	assert.Contains(t, buf.String(), "+b")

	var empty *Diff
	n, err = empty.WriteTo(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a\n", "b\n", "c"}, splitLines("a\nb\nc"))
	assert.Equal(t, []string{"a\n", "b\n", ""}, splitLines("a\nb\n"))
	assert.Equal(t, []string{""}, splitLines(""))
}
