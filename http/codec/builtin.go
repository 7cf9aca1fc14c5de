package codec

import (
	"bytes"
	"compress/lzw"
	"io"
	"sync"

	"github.com/indigo-web/h1codec/http/chunked"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Builtin returns a fresh set of built-in codecs.
func Builtin() []Codec {
	return []Codec{
		NewIdentity(),
		NewGZIP(),
		NewDeflate(),
		NewCompress(),
		NewChunked(chunked.Default()),
	}
}

type identityCodec struct{}

func NewIdentity() Codec {
	return identityCodec{}
}

func (identityCodec) Token() string                          { return Identity }
func (identityCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (identityCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
func (identityCodec) Compatible(proto.Protocol) bool         { return true }
func (identityCodec) sealed()                                {}

type gzipCodec struct {
	writers *sync.Pool
}

func NewGZIP() Codec {
	return gzipCodec{
		writers: &sync.Pool{
			New: func() any {
				return gzip.NewWriter(nil)
			},
		},
	}
}

func (gzipCodec) Token() string {
	return GZIP
}

func (g gzipCodec) Compress(data []byte) ([]byte, error) {
	var buff bytes.Buffer
	w := g.writers.Get().(*gzip.Writer)
	defer g.writers.Put(w)

	w.Reset(&buff)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

func (gzipCodec) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	defer r.Close()
	return io.ReadAll(r)
}

func (gzipCodec) Compatible(proto.Protocol) bool {
	return true
}

func (gzipCodec) sealed() {}

// deflateCodec produces the zlib format, as RFC 9110 defines deflate this way. When
// decompressing, raw deflate streams are accepted too, as plenty of implementations
// have been sending them for decades.
type deflateCodec struct {
	writers *sync.Pool
}

func NewDeflate() Codec {
	return deflateCodec{
		writers: &sync.Pool{
			New: func() any {
				return zlib.NewWriter(nil)
			},
		},
	}
}

func (deflateCodec) Token() string {
	return Deflate
}

func (d deflateCodec) Compress(data []byte) ([]byte, error) {
	var buff bytes.Buffer
	w := d.writers.Get().(*zlib.Writer)
	defer d.writers.Put(w)

	w.Reset(&buff)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

func (deflateCodec) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		raw := flate.NewReader(bytes.NewReader(data))
		defer raw.Close()
		return io.ReadAll(raw)
	}

	defer r.Close()
	return io.ReadAll(r)
}

func (deflateCodec) Compatible(proto.Protocol) bool {
	return true
}

func (deflateCodec) sealed() {}

// compressCodec is LZW with 8-bit literals and LSB bit order.
type compressCodec struct{}

func NewCompress() Codec {
	return compressCodec{}
}

func (compressCodec) Token() string {
	return Compress
}

func (compressCodec) Compress(data []byte) ([]byte, error) {
	var buff bytes.Buffer
	w := lzw.NewWriter(&buff, lzw.LSB, 8)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

func (compressCodec) Decompress(data []byte) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(data), lzw.LSB, 8)
	defer r.Close()
	return io.ReadAll(r)
}

func (compressCodec) Compatible(proto.Protocol) bool {
	return true
}

func (compressCodec) sealed() {}

// chunkedCodec exposes the chunked framing as a regular codec. It's never applied by the
// body coding pipeline though, as framing is always the final step owned by the serializer.
type chunkedCodec struct {
	chunked chunked.Codec
}

func NewChunked(c chunked.Codec) Codec {
	return chunkedCodec{chunked: c}
}

func (chunkedCodec) Token() string {
	return Chunked
}

func (c chunkedCodec) Compress(data []byte) ([]byte, error) {
	return c.chunked.Compress(data), nil
}

func (c chunkedCodec) Decompress(data []byte) ([]byte, error) {
	return c.chunked.Decompress(data)
}

func (chunkedCodec) Compatible(p proto.Protocol) bool {
	return p.SupportsChunked()
}

func (chunkedCodec) sealed() {}
