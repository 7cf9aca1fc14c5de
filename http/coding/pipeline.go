// Package coding applies and reverses the codings a message declares for its body.
package coding

import (
	"fmt"

	"github.com/indigo-web/h1codec/http/codec"
	"github.com/indigo-web/h1codec/http/headers"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
)

const (
	ContentEncoding  = "Content-Encoding"
	TransferEncoding = "Transfer-Encoding"
)

// Pipeline composes codings declared by Content-Encoding and Transfer-Encoding. The chunked
// coding is never applied here, as framing is the final step made by the serializer.
//
// Bytes are transformed only when every referenced coding resolves. Otherwise they are
// passed through untouched and the returned flag is false, so the caller knows the body
// is still encoded. This is not an error.
type Pipeline struct {
	Codecs *codec.Registry
}

func NewPipeline(codecs *codec.Registry) Pipeline {
	return Pipeline{Codecs: codecs}
}

// Encode applies content codings and then transfer codings, both in their declared order.
func (p Pipeline) Encode(protocol proto.Protocol, hdrs *headers.Headers, data []byte) (out []byte, encoded bool, err error) {
	chain, ok, err := p.chain(protocol, hdrs.Codings(ContentEncoding), hdrs.Codings(TransferEncoding))
	if err != nil || !ok {
		return data, false, err
	}

	out = data
	for _, c := range chain {
		if len(out) == 0 {
			break
		}

		if out, err = c.Compress(out); err != nil {
			return nil, false, fmt.Errorf("%w: %s: %s", status.ErrBadEncoding, c.Token(), err)
		}
	}

	return out, true, nil
}

// Decode reverses Encode: transfer codings are stripped first, then content codings, each
// list in reverse order.
func (p Pipeline) Decode(protocol proto.Protocol, content, transfer []codec.Ref, data []byte) (out []byte, decoded bool, err error) {
	chain, ok, err := p.chain(protocol, content, transfer)
	if err != nil || !ok {
		return data, false, err
	}

	out = data
	for i := len(chain) - 1; i >= 0; i-- {
		if len(out) == 0 {
			break
		}

		if out, err = chain[i].Decompress(out); err != nil {
			return nil, false, fmt.Errorf("%w: %s: %s", status.ErrBadEncoding, chain[i].Token(), err)
		}
	}

	return out, true, nil
}

// chain resolves the references into the sequence of codecs in the order of encoding.
// Identity and chunked references are omitted. A resolved codec incompatible with the
// protocol is fatal, while an unresolvable one just results in ok being false.
func (p Pipeline) chain(protocol proto.Protocol, content, transfer []codec.Ref) (chain []codec.Codec, ok bool, err error) {
	ok = true

	for _, refs := range [2][]codec.Ref{content, transfer} {
		for _, ref := range refs {
			if ref.IsChunked() || ref.IsIdentity() {
				continue
			}

			c, resolved := ref.Resolve(p.Codecs).Codec()
			if !resolved {
				ok = false
				continue
			}

			if !c.Compatible(protocol) {
				return nil, false, fmt.Errorf("%w: %s with %s", status.ErrIncompatibleEncoding, ref.Token(), protocol)
			}

			chain = append(chain, c)
		}
	}

	return chain, ok, nil
}
