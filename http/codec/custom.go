package codec

import (
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/klauspost/compress/zstd"
)

type (
	Transform     func(data []byte) ([]byte, error)
	Compatibility func(p proto.Protocol) bool
)

// customCodec is a codec defined by a function table.
type customCodec struct {
	token      string
	compress   Transform
	decompress Transform
	compatible Compatibility
}

// Custom builds a codec out of functions. A nil compatibility predicate stands for
// compatibility with every protocol version. The token must be non-empty and contain
// no commas.
func Custom(token string, compress, decompress Transform, compatible Compatibility) (Codec, error) {
	if !validToken(token) || compress == nil || decompress == nil {
		return nil, status.ErrBadCodecToken
	}

	if compatible == nil {
		compatible = func(proto.Protocol) bool {
			return true
		}
	}

	return customCodec{
		token:      token,
		compress:   compress,
		decompress: decompress,
		compatible: compatible,
	}, nil
}

func (c customCodec) Token() string {
	return c.token
}

func (c customCodec) Compress(data []byte) ([]byte, error) {
	return c.compress(data)
}

func (c customCodec) Decompress(data []byte) ([]byte, error) {
	return c.decompress(data)
}

func (c customCodec) Compatible(p proto.Protocol) bool {
	return c.compatible(p)
}

func (customCodec) sealed() {}

// NewZSTD returns a ready-made zstd codec. It isn't a built-in one, so it must be
// explicitly added to a registry.
func NewZSTD() Codec {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		panic(err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		panic(err)
	}

	c, err := Custom(
		"zstd",
		func(data []byte) ([]byte, error) {
			return encoder.EncodeAll(data, nil), nil
		},
		func(data []byte) ([]byte, error) {
			return decoder.DecodeAll(data, nil)
		},
		nil,
	)
	if err != nil {
		panic(err)
	}

	return c
}
