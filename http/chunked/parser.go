package chunked

import (
	"bytes"
	"io"

	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/internal/hexconv"
)

type parserState uint8

const (
	eChunkLength parserState = iota
	eChunkLengthBWS
	eChunkExt
	eChunkLengthCR
	eChunkBody
	eChunkBodyDone
	eChunkBodyCRLF
	eChunkTrailer
	eChunkTrailerCRLF
	eChunkTrailerFieldLine
)

// Parser is a resumable chunked de-framer. In contrast to Codec.Decompress, it doesn't
// need the whole body at once: data can be fed in pieces of arbitrary size, and no
// previously fed byte is ever looked at again. Extensions and trailer fields are skipped.
type Parser struct {
	state        parserState
	maxDigits    uint8
	lengthDigits uint8
	chunkLength  uint64
}

func NewParser(codec Codec) *Parser {
	return &Parser{
		state:     eChunkLength,
		maxDigits: uint8(codec.maxDigits()),
	}
}

// Parse returns a piece of chunk data when it's ready, nil otherwise. io.EOF signals that
// the body is complete, in this case extra contains bytes following the body. The parser
// resets automatically after that.
func (p *Parser) Parse(data []byte) (chunk, extra []byte, err error) {
	switch p.state {
	case eChunkLength:
		goto chunkLength
	case eChunkLengthBWS:
		goto chunkLengthBWS
	case eChunkExt:
		goto chunkExt
	case eChunkLengthCR:
		goto chunkLengthCR
	case eChunkBody:
		goto chunkBody
	case eChunkBodyDone:
		goto chunkBodyDone
	case eChunkBodyCRLF:
		goto chunkBodyCRLF
	case eChunkTrailer:
		goto trailer
	case eChunkTrailerCRLF:
		goto chunkTrailerCRLF
	case eChunkTrailerFieldLine:
		goto chunkTrailerFieldLine
	default:
		panic("unreachable code")
	}

chunkLength:
	for i := 0; i < len(data); i++ {
		switch char := data[i]; char {
		case '\r':
			data = data[i+1:]
			goto chunkLengthCR
		case '\n':
			data = data[i:]
			goto chunkLengthCR
		case ';':
			data = data[i+1:]
			goto chunkExt
		case ' ', '\t':
			if p.lengthDigits == 0 {
				return nil, nil, status.ErrBadChunk
			}

			data = data[i+1:]
			goto chunkLengthBWS
		default:
			val := hexconv.Halfbyte[char]
			if val == 0xFF {
				return nil, nil, status.ErrBadChunk
			}

			p.chunkLength = (p.chunkLength << 4) | uint64(val)
			if p.lengthDigits++; p.lengthDigits > p.maxDigits {
				return nil, nil, status.ErrBadChunk
			}
		}
	}

	p.state = eChunkLength
	return nil, nil, nil

chunkLengthBWS:
	// whitespace is allowed between the length and the extensions or the line end only
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case ' ', '\t':
		case '\r':
			data = data[i+1:]
			goto chunkLengthCR
		case '\n':
			data = data[i:]
			goto chunkLengthCR
		case ';':
			data = data[i+1:]
			goto chunkExt
		default:
			return nil, nil, status.ErrBadChunk
		}
	}

	p.state = eChunkLengthBWS
	return nil, nil, nil

chunkExt:
	{
		if p.lengthDigits == 0 {
			return nil, nil, status.ErrBadChunk
		}

		boundary := bytes.IndexByte(data, '\n')
		if boundary == -1 {
			p.state = eChunkExt
			return nil, nil, nil
		}

		data = data[boundary+1:]
		if p.chunkLength == 0 {
			goto trailer
		}

		goto chunkBody
	}

chunkLengthCR:
	if p.lengthDigits == 0 {
		return nil, nil, status.ErrBadChunk
	}

	if len(data) == 0 {
		p.state = eChunkLengthCR
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	data = data[1:]

	if p.chunkLength == 0 {
		goto trailer
	}

	goto chunkBody

chunkBody:
	{
		n := min(p.chunkLength, uint64(len(data)))
		p.chunkLength -= n
		chunk = data[:n]

		if p.chunkLength == 0 {
			p.state = eChunkBodyDone
		} else {
			p.state = eChunkBody
		}

		return chunk, data[n:], nil
	}

chunkBodyDone:
	if len(data) == 0 {
		return nil, nil, nil
	}

	p.lengthDigits = 0
	switch data[0] {
	case '\r':
		data = data[1:]
		goto chunkBodyCRLF
	case '\n':
		data = data[1:]
		goto chunkLength
	default:
		return nil, nil, status.ErrBadChunk
	}

chunkBodyCRLF:
	if len(data) == 0 {
		p.state = eChunkBodyCRLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	data = data[1:]
	goto chunkLength

trailer:
	if len(data) == 0 {
		p.state = eChunkTrailer
		return nil, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		goto chunkTrailerCRLF
	case '\n':
		p.reset()
		return nil, data[1:], io.EOF
	default:
		// we've got some field lines
		goto chunkTrailerFieldLine
	}

chunkTrailerCRLF:
	if len(data) == 0 {
		p.state = eChunkTrailerCRLF
		return nil, nil, nil
	}

	if data[0] != '\n' {
		return nil, nil, status.ErrBadChunk
	}

	p.reset()
	return nil, data[1:], io.EOF

chunkTrailerFieldLine:
	{
		boundary := bytes.IndexByte(data, '\n')
		if boundary == -1 {
			p.state = eChunkTrailerFieldLine
			return nil, nil, nil
		}

		data = data[boundary+1:]
		goto trailer
	}
}

func (p *Parser) reset() {
	p.state = eChunkLength
	p.lengthDigits = 0
	p.chunkLength = 0
}

// Consume feeds the whole data into the parser and reports how many bytes belong to the
// chunked body. done is true when the terminal chunk and the trailer section were fully
// consumed, then n may be less than len(data).
func (p *Parser) Consume(data []byte) (n int, done bool, err error) {
	rest := data

	for len(rest) > 0 {
		_, extra, err := p.Parse(rest)
		switch err {
		case nil:
		case io.EOF:
			return len(data) - len(extra), true, nil
		default:
			return 0, false, err
		}

		rest = extra
	}

	return len(data), false, nil
}
