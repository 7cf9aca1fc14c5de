package headers

import (
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/h1codec/config"
	"github.com/indigo-web/h1codec/http/codec"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/stretchr/testify/require"
)

func newCodec() Codec {
	return NewCodec(NewRegistry(config.Default().Headers))
}

func TestCodec(t *testing.T) {
	c := newCodec()

	t.Run("round trip", func(t *testing.T) {
		for _, h := range []Header{
			{Name: "Host", Value: "example.com", Direction: Request},
			{Name: "Server", Value: "h1codec", Direction: Response},
			{Name: "Content-Length", Value: int64(42), Direction: Both},
			{Name: "Content-Type", Value: "text/html; charset=utf-8", Direction: Both},
			{Name: "Connection", Value: "close", Direction: Both, HopByHop: true},
			{Name: "Max-Forwards", Value: int64(10), Direction: Request},
			{
				Name: "Transfer-Encoding",
				Value: []codec.Ref{
					codec.Unresolved("gzip"), codec.Unresolved("chunked"),
				},
				Direction: Both,
				HopByHop:  true,
			},
			{Name: uniuri.NewLen(16), Value: uniuri.NewLen(32), Direction: Both},
		} {
			for _, p := range []proto.Protocol{proto.HTTP10, proto.HTTP11} {
				line, err := c.Serialize(p, h)
				require.NoError(t, err)
				parsed, err := c.Parse(p, line)
				require.NoError(t, err)
				require.Equal(t, h, parsed)
			}
		}
	})

	t.Run("parse", func(t *testing.T) {
		h, err := c.Parse(proto.HTTP11, "hOsT:   example.com:8080 \t")
		require.NoError(t, err)
		require.Equal(t, "hOsT", h.Name)
		require.Equal(t, "example.com:8080", h.Value)
		require.Equal(t, Request, h.Direction)

		h, err = c.Parse(proto.HTTP11, "Empty:")
		require.NoError(t, err)
		require.Equal(t, "", h.Value)
	})

	t.Run("codings", func(t *testing.T) {
		h, err := c.Parse(proto.HTTP11, "Content-Encoding: gzip, , X-Custom;q=1, deflate")
		require.NoError(t, err)
		refs := h.Value.([]codec.Ref)
		require.Equal(t, []string{"gzip", "X-Custom", "deflate"}, codec.Tokens(refs))

		_, err = c.Parse(proto.HTTP11, "Content-Encoding: a, b, c, d, e")
		require.ErrorIs(t, err, status.ErrTooManyEncodingTokens)

		_, err = c.Parse(proto.HTTP11, "Transfer-Encoding: ,")
		require.ErrorIs(t, err, status.ErrBadEncoding)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, line := range []string{
			"no colon here",
			": empty name",
			"Bad Name: value",
			"Name : value",
			"Name: value\r",
			"Name: va\nlue",
			"Name: nul\x00",
		} {
			_, err := c.Parse(proto.HTTP11, line)
			require.ErrorIs(t, err, status.ErrBadHeader, line)
			require.ErrorIs(t, err, status.FormatError)
			require.False(t, c.Validate(line), line)
		}

		_, err := c.Parse(proto.HTTP11, "Content-Length: 12a")
		require.ErrorIs(t, err, status.ErrBadContentLength)
		_, err = c.Parse(proto.HTTP11, "Content-Length: -1")
		require.ErrorIs(t, err, status.ErrBadContentLength)
		_, err = c.Parse(proto.HTTP11, "Content-Length: "+strings.Repeat("9", 19))
		require.ErrorIs(t, err, status.ErrBadContentLength)
	})

	t.Run("validate", func(t *testing.T) {
		require.True(t, c.Validate("Hello: world"))
		require.True(t, c.Validate("Content-Length: not a number"))
	})

	t.Run("injection", func(t *testing.T) {
		_, err := c.Serialize(proto.HTTP11, Header{Name: "Location", Value: "/\r\nSet-Cookie: x=y"})
		require.ErrorIs(t, err, status.ErrHeaderInjection)

		_, err = c.Serialize(proto.HTTP11, Header{Name: "Bad Name", Value: "value"})
		require.ErrorIs(t, err, status.ErrBadHeader)

		_, err = c.Serialize(proto.HTTP11, Header{Name: "Content-Length", Value: "ten"})
		require.ErrorIs(t, err, status.ErrBadContentLength)
	})

	t.Run("serialize", func(t *testing.T) {
		line, err := c.Serialize(proto.HTTP11, Header{Name: "Content-Length", Value: 0})
		require.NoError(t, err)
		require.Equal(t, "Content-Length: 0", line)

		line, err = c.Serialize(proto.HTTP11, Header{Name: "Transfer-Encoding", Value: "gzip,chunked"})
		require.NoError(t, err)
		require.Equal(t, "Transfer-Encoding: gzip, chunked", line)
	})
}

func TestRegistry(t *testing.T) {
	keys := NewRegistry(config.Default().Headers)

	key, found := keys.Lookup("transfer-encoding")
	require.True(t, found)
	require.True(t, key.HopByHop)

	key, found = keys.Lookup("X-Unknown")
	require.False(t, found)
	require.Equal(t, Both, key.Direction)
	require.Equal(t, Raw, key.Grammar)

	keys.Add(Key{Name: "X-Request-Count", Direction: Request, Grammar: Integer})
	h := keys.New("x-request-count", 5)
	require.Equal(t, Request, h.Direction)

	require.True(t, keys.Remove("X-Request-Count"))
	require.False(t, keys.Remove("X-Request-Count"))
}

func TestDirection(t *testing.T) {
	require.True(t, Both.Matches(Request))
	require.True(t, Both.Matches(Response))
	require.True(t, Request.Matches(Request))
	require.False(t, Request.Matches(Response))
	require.False(t, Response.Matches(Request))
	require.Equal(t, "response", Response.String())
}

func TestHeaders(t *testing.T) {
	hdrs := From(
		Header{Name: "Accept", Value: "text/html"},
		Header{Name: "Host", Value: "example.com"},
		Header{Name: "accept", Value: "application/json"},
	)

	t.Run("lookup", func(t *testing.T) {
		require.Equal(t, 3, hdrs.Len())
		require.Equal(t, "text/html", hdrs.Value("ACCEPT"))
		require.Equal(t, []any{"text/html", "application/json"}, hdrs.Values("Accept"))
		require.Equal(t, 2, hdrs.Count("accept"))
		require.True(t, hdrs.Has("host"))
		require.False(t, hdrs.Has("Cookie"))
		require.Nil(t, hdrs.Value("Cookie"))
		require.Nil(t, hdrs.Values("Cookie"))
	})

	t.Run("order", func(t *testing.T) {
		var names []string
		for h := range hdrs.Iter() {
			names = append(names, h.Name)
		}

		require.Equal(t, []string{"Accept", "Host", "accept"}, names)
	})

	t.Run("clone", func(t *testing.T) {
		clone := hdrs.Clone()
		clone.Add(Header{Name: "Cookie", Value: "a=b"})
		require.Equal(t, 4, clone.Len())
		require.Equal(t, 3, hdrs.Len())

		clone.Clear()
		require.Zero(t, clone.Len())
		require.Equal(t, 3, hdrs.Len())
	})
}

func BenchmarkCodec(b *testing.B) {
	c := newCodec()
	line := "Content-Type: text/html; charset=utf-8"

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = c.Parse(proto.HTTP11, line)
	}
}

func TestCodings(t *testing.T) {
	hdrs := From(
		Header{Name: "Transfer-Encoding", Value: []codec.Ref{codec.Unresolved("gzip")}},
		Header{Name: "Host", Value: "example.com"},
		Header{Name: "transfer-encoding", Value: "deflate, chunked"},
	)

	refs := hdrs.Codings("Transfer-Encoding")
	require.Equal(t, []string{"gzip", "deflate", "chunked"}, codec.Tokens(refs))
	require.Nil(t, hdrs.Codings("Content-Encoding"))
}
