// Package chunked implements the chunked transfer coding: framing a payload into
// length-prefixed chunks, and de-framing it back either at once or streamingly.
//
// Chunk lengths are hexadecimal, as RFC 9112 demands.
package chunked

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/indigo-web/h1codec/config"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/internal/hexconv"
	"github.com/indigo-web/h1codec/internal/strutil"
	"github.com/indigo-web/utils/uf"
)

const (
	DefaultBlockSize = 4096
	// maxChunkLengthDigits sets the implicit limit of a single chunk length to 4GiB, which
	// is supposedly should be enough.
	maxChunkLengthDigits = 8
)

// Extension is a single chunk-ext pair. Value is optional, therefore HasValue tells apart
// `;key` from `;key=`.
type Extension struct {
	Key, Value string
	HasValue   bool
}

// Chunk is a single de-framed chunk. Data is always exactly Length bytes long.
type Chunk struct {
	Length     int
	Extensions []Extension
	Data       []byte
}

// ExtensionFunc produces extensions for the index-th chunk carrying the block.
type ExtensionFunc func(index int, block []byte) []Extension

// Codec frames and de-frames chunked bodies. Zero value is not usable, use New or Default.
type Codec struct {
	// BlockSize is the size of a single produced chunk, except the last one, which may be shorter.
	BlockSize int
	// MaxLengthDigits limits the chunk-length token.
	MaxLengthDigits int
	// Extensions is an optional hook for chunk extensions. None are produced by default.
	Extensions ExtensionFunc
}

func New(cfg config.Chunked) Codec {
	return Codec{
		BlockSize:       cfg.BlockSize,
		MaxLengthDigits: cfg.MaxLengthDigits,
	}
}

func Default() Codec {
	return Codec{
		BlockSize:       DefaultBlockSize,
		MaxLengthDigits: maxChunkLengthDigits,
	}
}

// WithExtensions returns a copy of the codec using the hook.
func (c Codec) WithExtensions(fn ExtensionFunc) Codec {
	c.Extensions = fn
	return c
}

// Compress frames the data into chunks of BlockSize bytes and terminates the stream with
// a zero-length chunk. An empty input results in a sole terminator.
func (c Codec) Compress(data []byte) []byte {
	var buff bytes.Buffer
	blocks := 1
	if c.BlockSize > 0 {
		blocks += len(data) / c.BlockSize
	}

	buff.Grow(len(data) + blocks*(maxChunkLengthDigits+2*len(crlf)) + len(zeroChunk))
	w := NewWriter(&buff, c)
	// writing into bytes.Buffer never fails
	_, _ = w.Write(data)
	_ = w.Close()

	return buff.Bytes()
}

// Decompress de-frames a complete chunked body. Chunks are concatenated strictly in the
// arrival order. Trailer field lines following the terminal chunk are skipped. An empty
// input decodes to empty output.
//
// If the input ends prematurely, status.ErrIncomplete is returned, which is, in contrast to
// other errors, not a sign of malformed data but only of its insufficiency.
func (c Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	body := make([]byte, 0, len(data))

	for {
		chunk, rest, err := c.ReadChunk(data)
		if err != nil {
			return nil, err
		}

		data = rest
		if chunk.Length == 0 {
			break
		}

		body = append(body, chunk.Data...)
	}

	rest, err := SkipTrailer(data)
	if err != nil {
		return nil, err
	}

	if len(rest) > 0 {
		return nil, fmt.Errorf("%d bytes after the terminal chunk: %w", len(rest), status.ErrBodyTooLong)
	}

	return body, nil
}

// ReadChunk reads a single chunk from the beginning of the data and returns the rest.
// Data of the returned chunk references the input. Terminal chunk is returned with
// zero length and the trailer section (if any) remaining in rest.
func (c Codec) ReadChunk(data []byte) (chunk Chunk, rest []byte, err error) {
	lf := bytes.IndexByte(data, '\n')
	if lf == -1 {
		return chunk, data, status.ErrIncomplete
	}

	line := strutil.StripCR(uf.B2S(data[:lf]))
	lengthToken, extensions, hasExtensions := strings.Cut(line, ";")
	length, ok := hexconv.Parse(strutil.RStripWS(lengthToken), c.maxDigits())
	if !ok {
		return chunk, data, status.ErrBadChunk
	}

	if hasExtensions {
		if chunk.Extensions, err = parseExtensions(extensions); err != nil {
			return chunk, data, err
		}
	}

	body := data[lf+1:]
	chunk.Length = int(length)
	if length == 0 {
		return chunk, body, nil
	}

	if uint64(len(body)) < length {
		return Chunk{}, data, status.ErrIncomplete
	}

	chunk.Data, body = body[:length], body[length:]

	switch {
	case len(body) == 0:
		return Chunk{}, data, status.ErrIncomplete
	case body[0] == '\n':
		return chunk, body[1:], nil
	case body[0] != '\r':
		return Chunk{}, data, status.ErrBadChunk
	case len(body) == 1:
		return Chunk{}, data, status.ErrIncomplete
	case body[1] != '\n':
		return Chunk{}, data, status.ErrBadChunk
	default:
		return chunk, body[2:], nil
	}
}

// SkipTrailer consumes the trailer section, which follows the terminal chunk, including
// the closing empty line.
func SkipTrailer(data []byte) (rest []byte, err error) {
	for {
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			return data, status.ErrIncomplete
		}

		line := strutil.StripCR(uf.B2S(data[:lf]))
		data = data[lf+1:]
		if len(line) == 0 {
			return data, nil
		}

		if strings.IndexByte(line, ':') <= 0 {
			return data, status.ErrBadChunk
		}
	}
}

func (c Codec) maxDigits() int {
	if c.MaxLengthDigits <= 0 {
		return maxChunkLengthDigits
	}

	return c.MaxLengthDigits
}

func parseExtensions(raw string) (exts []Extension, err error) {
	for len(raw) > 0 {
		var pair string
		pair, raw, _ = strings.Cut(raw, ";")
		key, value, hasValue := strings.Cut(strutil.StripWS(pair), "=")
		key = strutil.RStripWS(key)
		if len(key) == 0 {
			return nil, status.ErrBadChunk
		}

		// the line is a zero-copy view of the input, so keep own copies
		ext := Extension{Key: strings.Clone(key), HasValue: hasValue}
		if hasValue {
			ext.Value = strings.Clone(unquote(strutil.LStripWS(value)))
		}

		exts = append(exts, ext)
	}

	return exts, nil
}

func unquote(str string) string {
	if len(str) < 2 || str[0] != '"' || str[len(str)-1] != '"' {
		return str
	}

	str = str[1 : len(str)-1]
	if strings.IndexByte(str, '\\') == -1 {
		return str
	}

	var b strings.Builder
	for i := 0; i < len(str); i++ {
		if str[i] == '\\' && i+1 < len(str) {
			i++
		}

		b.WriteByte(str[i])
	}

	return b.String()
}

func appendExtension(buff []byte, ext Extension) []byte {
	buff = append(buff, ';')
	buff = append(buff, ext.Key...)
	if !ext.HasValue {
		return buff
	}

	buff = append(buff, '=')
	if isToken(ext.Value) {
		return append(buff, ext.Value...)
	}

	buff = append(buff, '"')
	for i := 0; i < len(ext.Value); i++ {
		if c := ext.Value[i]; c == '"' || c == '\\' {
			buff = append(buff, '\\')
		}

		buff = append(buff, ext.Value[i])
	}

	return append(buff, '"')
}

func isToken(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		c := str[i]
		if strutil.IsProhibitedChar(c) || strings.IndexByte(` "(),/:;<=>?@[\]{}`, c) != -1 {
			return false
		}
	}

	return true
}
