package hexconv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func benchLocal(b *testing.B, str string) {
	b.SetBytes(int64(len(str)))
	b.ResetTimer()

	for range b.N {
		_, _ = Parse(str, len(str))
	}
}

func BenchmarkParse(b *testing.B) {
	b.Run("short", func(b *testing.B) {
		benchLocal(b, "123456789abcdef")
	})

	b.Run("long", func(b *testing.B) {
		benchLocal(b, strings.Repeat("123456789abcdef", 100))
	})
}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		In string
		N  uint64
		OK bool
	}{
		{"0", 0, true},
		{"d", 13, true},
		{"D", 13, true},
		{"10", 16, true},
		{"0000d", 13, true},
		{"ffffffff", 0xffffffff, true},
		{"fffffffff", 0, false},
		{"", 0, false},
		{"dg", 0, false},
		{" 1", 0, false},
	} {
		n, ok := Parse(tc.In, 8)
		require.Equal(t, tc.OK, ok, tc.In)
		require.Equal(t, tc.N, n, tc.In)
	}
}
