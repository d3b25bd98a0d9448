package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFineMetal(t *testing.T) {
	v, ok := FineMetal(10, 999.9)
	require.True(t, ok)
	require.InDelta(t, 9.999, v, 1e-9)

	v, ok = FineMetal(100, 1000)
	require.True(t, ok)
	require.InDelta(t, 100, v, 1e-9)

	_, ok = FineMetal(0, 999.9)
	require.False(t, ok)
	_, ok = FineMetal(10, 0)
	require.False(t, ok)
	_, ok = FineMetal(-1, 999.9)
	require.False(t, ok)
}

func TestPricePerGram(t *testing.T) {
	v, ok := PricePerGram(100, 5)
	require.True(t, ok)
	require.Equal(t, 20.0, v)

	// 10g of 999.9 fine gold at 1277.95
	fine, ok := FineMetal(10, 999.9)
	require.True(t, ok)
	v, ok = PricePerGram(1277.95, fine)
	require.True(t, ok)
	require.InDelta(t, 127.81, v, 0.005)

	v, ok = PricePerGram(952, GramsPerTroyOunce)
	require.True(t, ok)
	require.InDelta(t, 30.61, v, 0.005)

	_, ok = PricePerGram(0, 5)
	require.False(t, ok)
	_, ok = PricePerGram(100, 0)
	require.False(t, ok)
}

func TestSpreadPct(t *testing.T) {
	v, ok := SpreadPct(100, 110)
	require.True(t, ok)
	require.InDelta(t, 9.09, v, 0.005)

	v, ok = SpreadPct(1226.61, 1277.95)
	require.True(t, ok)
	require.InDelta(t, 4.02, v, 0.005)

	v, ok = SpreadPct(100, 100)
	require.True(t, ok)
	require.Equal(t, 0.0, v)

	// zero buy is a valid quote, zero sell is not
	v, ok = SpreadPct(0, 100)
	require.True(t, ok)
	require.Equal(t, 100.0, v)
	_, ok = SpreadPct(0, 0)
	require.False(t, ok)
	_, ok = SpreadPct(-10, 100)
	require.False(t, ok)
}
