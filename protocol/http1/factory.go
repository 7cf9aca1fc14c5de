// Package http1 parses and serializes complete HTTP/1.0 and HTTP/1.1 messages. Every
// protocol version has its own Factory.
package http1

import (
	"bytes"

	"github.com/indigo-web/h1codec/config"
	"github.com/indigo-web/h1codec/http/chunked"
	"github.com/indigo-web/h1codec/http/codec"
	"github.com/indigo-web/h1codec/http/coding"
	"github.com/indigo-web/h1codec/http/headers"
	"github.com/indigo-web/h1codec/http/method"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/utils/uf"
)

type Kind uint8

const (
	Request Kind = iota + 1
	Response
)

func (k Kind) String() string {
	switch k {
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Direction returns the direction of headers belonging to messages of the kind.
func (k Kind) Direction() headers.Direction {
	if k == Request {
		return headers.Request
	}

	return headers.Response
}

type Factory struct {
	protocol proto.Protocol
	cfg      *config.Config
	headers  headers.Codec
	pipeline coding.Pipeline
	chunked  chunked.Codec
}

// New returns a factory of the protocol version. Nil registries are substituted by the
// process-wide codec registry and a fresh default header catalog respectively.
func New(p proto.Protocol, cfg *config.Config, codecs *codec.Registry, keys *headers.Registry) *Factory {
	if codecs == nil {
		codecs = codec.Default()
	}

	if keys == nil {
		keys = headers.NewRegistry(cfg.Headers)
	}

	return &Factory{
		protocol: p,
		cfg:      cfg,
		headers:  headers.NewCodec(keys),
		pipeline: coding.NewPipeline(codecs),
		chunked:  chunked.New(cfg.Chunked),
	}
}

// Versions returns factories of all the supported protocol versions, sharing the registries.
func Versions(cfg *config.Config, codecs *codec.Registry, keys *headers.Registry) []*Factory {
	if keys == nil {
		keys = headers.NewRegistry(cfg.Headers)
	}

	return []*Factory{
		New(proto.HTTP11, cfg, codecs, keys),
		New(proto.HTTP10, cfg, codecs, keys),
	}
}

func (f *Factory) Protocol() proto.Protocol {
	return f.protocol
}

// IsCompatible is a cheap structural check, whether the text looks like a message of the
// kind and of the factory's protocol version. Passing it doesn't guarantee successful parsing.
func (f *Factory) IsCompatible(text []byte, kind Kind) bool {
	if Boundary(text) == -1 {
		return false
	}

	line := text[:bytes.IndexByte(text, '\n')]
	line = bytes.TrimSuffix(line, []byte("\r"))
	version := f.protocol.String()

	switch kind {
	case Request:
		tokens := bytes.Split(line, []byte(" "))
		return len(tokens) == 3 &&
			method.Parse(uf.B2S(tokens[0])) != method.Unknown &&
			len(tokens[1]) > 0 &&
			string(tokens[2]) == version
	case Response:
		tokens := bytes.SplitN(line, []byte(" "), 3)
		if len(tokens) < 2 || string(tokens[0]) != version {
			return false
		}

		_, ok := status.Parse(uf.B2S(tokens[1]))
		return ok
	default:
		return false
	}
}

// Route picks the first factory compatible with the text.
func Route(text []byte, kind Kind, factories ...*Factory) (*Factory, error) {
	for _, f := range factories {
		if f.IsCompatible(text, kind) {
			return f, nil
		}
	}

	return nil, status.ErrVersionMismatch
}

// Boundary returns the length of the head including the empty line terminating it, or -1
// if the empty line wasn't met yet. Bare LFs are tolerated.
func Boundary(text []byte) int {
	return BoundaryFrom(text, 0)
}

// BoundaryFrom is Boundary starting the search at the offset, so growing text needn't be
// re-scanned. An offset of 3 bytes before the end of the previously scanned text is enough
// not to miss the boundary split between the pieces.
func BoundaryFrom(text []byte, offset int) int {
	offset = max(offset, 0)

	for {
		lf := bytes.IndexByte(text[offset:], '\n')
		if lf == -1 {
			return -1
		}

		offset += lf + 1
		switch {
		case offset < len(text) && text[offset] == '\n':
			return offset + 1
		case offset+1 < len(text) && text[offset] == '\r' && text[offset+1] == '\n':
			return offset + 2
		}
	}
}
