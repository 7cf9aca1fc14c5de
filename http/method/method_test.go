package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func BenchmarkMethod(b *testing.B) {
	var parsed Method

	for _, m := range List {
		b.Run(m.String(), func(b *testing.B) {
			str := m.String()
			b.SetBytes(int64(len(str)))
			b.ResetTimer()

			for j := 0; j < b.N; j++ {
				parsed = Parse(str)
			}
		})
	}

	keepalive(parsed)
}

func keepalive(Method) {}

func TestMethod(t *testing.T) {
	for _, method := range List {
		assert.Equal(t, method, Parse(method.String()))
	}

	require.Equal(t, Unknown, Parse("get"))
	require.Equal(t, Unknown, Parse("BREW"))
	require.Equal(t, "UNKNOWN", Method(200).String())
	require.Equal(t, PATCH, Method(Count))
}
