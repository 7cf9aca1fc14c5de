package http1

import (
	"fmt"

	"github.com/indigo-web/h1codec/http"
	"github.com/indigo-web/h1codec/http/status"
)

// ParseRequest parses the complete request text. Without Content-Length and chunked
// framing, everything past the head is the body.
func (f *Factory) ParseRequest(text []byte) (*http.Request, error) {
	head, err := f.ParseHead(text, Request)
	if err != nil {
		return nil, err
	}

	request := &http.Request{
		Message: http.Message{
			Protocol: head.Protocol,
			Headers:  head.Headers,
		},
		Method: head.Method,
		Target: head.Target,
	}

	if err = f.parseBody(&request.Message, head, text[head.Size:]); err != nil {
		return nil, err
	}

	return request, nil
}

// ParseResponse parses the complete response text. Without Content-Length and chunked
// framing, everything past the head is the body.
func (f *Factory) ParseResponse(text []byte) (*http.Response, error) {
	head, err := f.ParseHead(text, Response)
	if err != nil {
		return nil, err
	}

	response := &http.Response{
		Message: http.Message{
			Protocol: head.Protocol,
			Headers:  head.Headers,
		},
		Code:   head.Code,
		Status: head.Status,
	}

	if err = f.parseBody(&response.Message, head, text[head.Size:]); err != nil {
		return nil, err
	}

	return response, nil
}

func (f *Factory) parseBody(msg *http.Message, head Head, rest []byte) error {
	body, err := f.delimit(head, rest)
	if err != nil {
		return err
	}

	if uint64(len(body)) > f.cfg.Body.MaxSize {
		return status.ErrBodyTooLarge
	}

	body, decoded, err := f.pipeline.Decode(f.protocol, head.ContentEncoding, head.TransferEncoding, body)
	if err != nil {
		return err
	}

	msg.Encoded = !decoded
	if len(body) == 0 {
		return nil
	}

	msg.Body, err = http.NewBody(body, f.cfg.Body)
	return err
}

// delimit returns the exact body bytes, still encoded but already de-framed.
func (f *Factory) delimit(head Head, rest []byte) ([]byte, error) {
	switch {
	case head.Chunked:
		return f.chunked.Decompress(rest)
	case head.ContentLength >= 0:
		switch length := int64(len(rest)); {
		case length < head.ContentLength:
			return nil, fmt.Errorf("%w: %d out of %d body bytes", status.ErrIncomplete, length, head.ContentLength)
		case length > head.ContentLength:
			return nil, status.ErrBodyTooLong
		}

		return rest, nil
	default:
		return rest, nil
	}
}
