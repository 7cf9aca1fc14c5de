package strutil

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrip(t *testing.T) {
	require.Equal(t, "hello", LStripWS(" \thello"))
	require.Equal(t, "hello", RStripWS("hello\t "))
	require.Equal(t, "hel lo", StripWS("  hel lo  "))
	require.Empty(t, StripWS(" \t "))
	require.Equal(t, "value", StripCR("value\r"))
	require.Equal(t, "value", StripCR("value"))
}

func TestCutHeader(t *testing.T) {
	value, params := CutHeader("text/plain;  charset=utf8")
	require.Equal(t, "text/plain", value)
	require.Equal(t, "charset=utf8", params)

	value, params = CutHeader("gzip")
	require.Equal(t, "gzip", value)
	require.Empty(t, params)
}

func TestTokens(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		require.Equal(t, []string{"gzip", "deflate", "chunked"}, slices.Collect(Tokens("gzip, deflate ,chunked")))
	})

	t.Run("qualifiers", func(t *testing.T) {
		require.Equal(t, []string{"gzip", "br"}, slices.Collect(Tokens("gzip;q=0.5, br;q=1")))
	})

	t.Run("empty elements", func(t *testing.T) {
		require.Equal(t, []string{"gzip", "", "br"}, slices.Collect(Tokens("gzip,,br")))
	})

	t.Run("empty value", func(t *testing.T) {
		require.Empty(t, slices.Collect(Tokens("")))
	})
}

func TestJoin(t *testing.T) {
	require.Empty(t, Join(slices.Values([]string(nil))))
	require.Equal(t, "gzip", Join(slices.Values([]string{"gzip"})))
	require.Equal(t, "gzip, chunked", Join(slices.Values([]string{"gzip", "chunked"})))
	require.Equal(t, "gzip, br", Join(Tokens("gzip;q=1,   br")))
}
