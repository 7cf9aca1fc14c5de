// Package codec holds the byte transforms named by Content-Encoding and Transfer-Encoding
// tokens, and the registry resolving those tokens.
package codec

import (
	"strings"

	"github.com/indigo-web/h1codec/http/proto"
)

// Codec is a named bidirectional byte transform. The set of implementations is closed:
// identity, gzip, deflate, compress, chunked and Custom, the latter covering everything
// else via a function table.
type Codec interface {
	// Token returns a coding token associated with the codec itself.
	Token() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	// Compatible tells whether the codec can be used with the protocol version.
	Compatible(p proto.Protocol) bool
	sealed()
}

const (
	Identity = "identity"
	GZIP     = "gzip"
	Deflate  = "deflate"
	Compress = "compress"
	Chunked  = "chunked"
)

// Equal compares codecs by their tokens, case-insensitively.
func Equal(a, b Codec) bool {
	return strings.EqualFold(a.Token(), b.Token())
}

// normalize lower-cases the token and maps legacy aliases onto their canonical tokens. Some
// old clients may use x-gzip or x-compress instead of regular gzip or compress respectively.
// See https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/Content-Encoding#directives
func normalize(token string) string {
	token = strings.ToLower(token)
	switch token {
	case "x-gzip":
		return GZIP
	case "x-compress":
		return Compress
	}

	return token
}

func validToken(token string) bool {
	return len(token) > 0 && strings.IndexByte(token, ',') == -1
}
