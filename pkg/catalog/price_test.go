package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	cases := map[int64]string{
		0:     "$0",
		4500:  "$45",
		4550:  "$45.50",
		10000: "$100",
		1:     "$0.01",
	}
	for cents, want := range cases {
		assert.Equal(t, want, FormatPrice(cents), "cents %d", cents)
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]int64{
		"45":      4500,
		"45.5":    4550,
		"45,50":   4550,
		"$45":     4500,
		" 12.345": 1235,
	}
	for raw, want := range cases {
		got, err := ParsePrice(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "  ", "abc", "-5"} {
		_, err := ParsePrice(raw)
		assert.Error(t, err, raw)
	}
}
