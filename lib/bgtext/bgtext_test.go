package bgtext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	cases := []struct {
		in     string
		expect float64
		ok     bool
	}{
		{"6,45 гр.", 6.45, true},
		{"5,99 лв.", 5.99, true},
		{"5 838,00 лв.", 5838, true},
		{"1 234,56", 1234.56, true},
		{"1,23", 1.23, true},
		{"100", 100, true},
		{"127,81 €", 127.81, true},
		{"999.9", 999.9, true},
		{"", 0, false},
		{"abc", 0, false},
		{"лв.", 0, false},
	}
	for _, c := range cases {
		v, ok := ParseFloat(c.in)
		require.Equal(t, c.ok, ok, "input: %q", c.in)
		if c.ok {
			require.InDelta(t, c.expect, v, 1e-9, "input: %q", c.in)
		}
	}
}

func TestNormalizeSpace(t *testing.T) {
	require.Equal(t, "Златно кюлче 10 г", NormalizeSpace("  Златно кюлче \n\t10   г "))
}

func TestSplitDetailLine(t *testing.T) {
	label, value, ok := SplitDetailLine("Тегло: 10,00 гр.")
	require.True(t, ok)
	require.Equal(t, "Тегло", label)
	require.Equal(t, "10,00 гр.", value)

	// only the first colon splits
	label, value, ok = SplitDetailLine("Размери: 25 x 15 x 1,5 мм: приблизително")
	require.True(t, ok)
	require.Equal(t, "Размери", label)
	require.Equal(t, "25 x 15 x 1,5 мм: приблизително", value)

	_, _, ok = SplitDetailLine("няма двоеточие")
	require.False(t, ok)
}

func TestMatchKeyword(t *testing.T) {
	require.True(t, MatchKeyword("Златна МОНЕТА Виенска филхармония", []string{"монета"}))
	require.True(t, MatchKeyword("Златно кюлче 20 г", []string{"кюлче"}))
	require.False(t, MatchKeyword("Сребърен слитък", []string{"монета", "кюлче"}))
}
