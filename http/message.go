// Package http holds the structured HTTP/1.x message model.
package http

import (
	"github.com/indigo-web/h1codec/http/headers"
	"github.com/indigo-web/h1codec/http/method"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
)

// Message is the part common for requests and responses.
type Message struct {
	Protocol proto.Protocol
	// Headers are kept in their wire order, duplicates included.
	Headers *headers.Headers
	// Body is nil for messages without body.
	Body *Body
	// Encoded is set when the body is still encoded, because some of the declared codings
	// couldn't be resolved.
	Encoded bool
}

// Close releases the body.
func (m *Message) Close() error {
	if m.Body == nil {
		return nil
	}

	return m.Body.Close()
}

type Request struct {
	Message
	Method method.Method
	// Target is the request-target as is, without any normalization.
	Target string
}

func NewRequest(p proto.Protocol, m method.Method, target string) *Request {
	return &Request{
		Message: Message{
			Protocol: p,
			Headers:  headers.New(),
		},
		Method: m,
		Target: target,
	}
}

type Response struct {
	Message
	Code status.Code
	// Status is the reason phrase. If empty, the default one for the code is used.
	Status string
}

func NewResponse(p proto.Protocol, code status.Code) *Response {
	return &Response{
		Message: Message{
			Protocol: p,
			Headers:  headers.New(),
		},
		Code: code,
	}
}

// Reason returns the reason phrase of the response.
func (r *Response) Reason() string {
	if len(r.Status) > 0 {
		return r.Status
	}

	return status.Text(r.Code)
}
