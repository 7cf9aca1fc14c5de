package http1

import (
	"fmt"
	"strconv"

	"github.com/indigo-web/h1codec/http"
	"github.com/indigo-web/h1codec/http/coding"
	"github.com/indigo-web/h1codec/http/headers"
	"github.com/indigo-web/h1codec/http/method"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/internal/strutil"
)

const crlf = "\r\n"

// SerializeRequest renders the request. The body is encoded by the declared codings, unless
// it's marked as already encoded, and framed if Transfer-Encoding ends with chunked.
func (f *Factory) SerializeRequest(request *http.Request) ([]byte, error) {
	if err := f.checkProtocol(request.Protocol); err != nil {
		return nil, err
	}

	if request.Method == method.Unknown || int(request.Method) > method.Count {
		return nil, status.ErrMethodNotImplemented
	}

	if !validTarget(request.Target) {
		return nil, status.ErrBadRequestLine
	}

	hdrs := headersOf(&request.Message)
	if f.protocol.RequiresHost() {
		switch hdrs.Count("Host") {
		case 0:
			return nil, status.ErrMissingHost
		case 1:
		default:
			return nil, status.ErrDuplicateHost
		}
	}

	buff := make([]byte, 0, 512)
	buff = append(buff, request.Method.String()...)
	buff = append(buff, ' ')
	buff = append(buff, request.Target...)
	buff = append(buff, ' ')
	buff = append(buff, f.protocol.String()...)
	buff = append(buff, crlf...)

	return f.serialize(buff, Request, &request.Message)
}

// SerializeResponse renders the response the same way SerializeRequest does. An empty
// reason phrase is substituted by the standard one for the code.
func (f *Factory) SerializeResponse(response *http.Response) ([]byte, error) {
	if err := f.checkProtocol(response.Protocol); err != nil {
		return nil, err
	}

	if response.Code < 100 || response.Code > 999 {
		return nil, fmt.Errorf("%w: status code %d", status.ErrBadStatusLine, response.Code)
	}

	reason := response.Reason()
	for i := 0; i < len(reason); i++ {
		if reason[i] != '\t' && strutil.IsProhibitedChar(reason[i]) {
			return nil, status.ErrBadStatusLine
		}
	}

	buff := make([]byte, 0, 512)
	buff = append(buff, f.protocol.String()...)
	buff = append(buff, ' ')
	buff = strconv.AppendUint(buff, uint64(response.Code), 10)
	buff = append(buff, ' ')
	buff = append(buff, reason...)
	buff = append(buff, crlf...)

	return f.serialize(buff, Response, &response.Message)
}

func (f *Factory) serialize(buff []byte, kind Kind, msg *http.Message) ([]byte, error) {
	hdrs := headersOf(msg)
	body, err := f.encodeBody(msg, hdrs)
	if err != nil {
		return nil, err
	}

	direction := kind.Direction()
	for header := range hdrs.Iter() {
		if !header.Direction.Matches(direction) {
			continue
		}

		line, err := f.headers.Serialize(f.protocol, header)
		if err != nil {
			return nil, err
		}

		buff = append(buff, line...)
		buff = append(buff, crlf...)
	}

	buff = append(buff, crlf...)
	return append(buff, body...), nil
}

// encodeBody returns the body as it must be put on the wire.
func (f *Factory) encodeBody(msg *http.Message, hdrs *headers.Headers) ([]byte, error) {
	var body []byte
	if msg.Body != nil {
		data, err := msg.Body.Bytes()
		if err != nil {
			return nil, err
		}

		body = data
	}

	transfer := hdrs.Codings(coding.TransferEncoding)
	chunkedAt := chunkedIndex(transfer)
	declared, hasLength := contentLength(hdrs)

	switch {
	case hasLength && len(transfer) > 0:
		return nil, status.ErrAmbiguousLength
	case chunkedAt != -1 && chunkedAt != len(transfer)-1:
		return nil, fmt.Errorf("%w: chunked must be the last transfer coding", status.ErrBadEncoding)
	case chunkedAt != -1 && !f.protocol.SupportsChunked():
		return nil, fmt.Errorf("%w: chunked with %s", status.ErrIncompatibleEncoding, f.protocol)
	}

	if !msg.Encoded && len(body) > 0 {
		encoded, ok, err := f.pipeline.Encode(f.protocol, hdrs, body)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, status.ErrUnsupportedEncoding
		}

		body = encoded
	}

	if chunkedAt != -1 {
		return f.chunked.Compress(body), nil
	}

	if hasLength && declared != int64(len(body)) {
		return nil, fmt.Errorf(
			"%w: declared %d, got %d", status.ErrBodyLengthDiffers, declared, len(body),
		)
	}

	return body, nil
}

func (f *Factory) checkProtocol(p proto.Protocol) error {
	if p != proto.Unknown && p != f.protocol {
		return fmt.Errorf("%w: got %s, expected %s", status.ErrVersionMismatch, p, f.protocol)
	}

	return nil
}

func contentLength(hdrs *headers.Headers) (int64, bool) {
	value := hdrs.Value("Content-Length")
	if value == nil {
		return 0, false
	}

	length, ok := headers.AsInteger(value)
	if !ok {
		if str, isStr := value.(string); isStr {
			length, err := strconv.ParseInt(str, 10, 64)
			return length, err == nil
		}
	}

	return length, ok
}

func headersOf(msg *http.Message) *headers.Headers {
	if msg.Headers == nil {
		return headers.New()
	}

	return msg.Headers
}
