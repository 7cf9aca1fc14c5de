package http1

import (
	"fmt"
	"strings"

	"github.com/indigo-web/h1codec/http/codec"
	"github.com/indigo-web/h1codec/http/coding"
	"github.com/indigo-web/h1codec/http/headers"
	"github.com/indigo-web/h1codec/http/method"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/internal/strutil"
	"github.com/indigo-web/utils/uf"
)

// Head is the parsed start line and header block of a message along with the facts
// determining how its body is delimited.
type Head struct {
	Kind     Kind
	Protocol proto.Protocol
	// Method and Target are set for requests only.
	Method method.Method
	Target string
	// Code and Status are set for responses only.
	Code    status.Code
	Status  string
	Headers *headers.Headers
	// ContentLength is -1 when not declared.
	ContentLength int64
	// Chunked is set when Transfer-Encoding ends with chunked.
	Chunked          bool
	ContentEncoding  []codec.Ref
	TransferEncoding []codec.Ref
	// Size is the length of the head, including the terminating empty line.
	Size int
}

// Delimited tells whether the body length is determined by the head, either by
// Content-Length or by chunked framing.
func (h Head) Delimited() bool {
	return h.ContentLength >= 0 || h.Chunked
}

// ParseHead parses the message head up to the first empty line. Bytes past it are ignored.
func (f *Factory) ParseHead(text []byte, kind Kind) (head Head, err error) {
	size := Boundary(text)
	if size == -1 {
		return head, status.ErrNoBoundary
	}

	head = Head{
		Kind:          kind,
		Protocol:      f.protocol,
		Headers:       headers.NewPrealloc(8),
		ContentLength: -1,
		Size:          size,
	}

	lines := uf.B2S(text[:size])
	startLine, _ := nextLine(&lines)

	switch kind {
	case Request:
		err = f.parseRequestLine(&head, startLine)
	case Response:
		err = f.parseStatusLine(&head, startLine)
	default:
		err = fmt.Errorf("%w: unknown message kind", status.ErrBadRequest)
	}

	if err != nil {
		return head, err
	}

	if err = f.parseHeaders(&head, &lines); err != nil {
		return head, err
	}

	return head, f.validate(&head)
}

func (f *Factory) parseRequestLine(head *Head, line string) error {
	methodToken, rest, found := strings.Cut(line, " ")
	if !found {
		return status.ErrBadRequestLine
	}

	sp := strings.LastIndexByte(rest, ' ')
	if sp == -1 {
		return status.ErrBadRequestLine
	}

	target, version := rest[:sp], rest[sp+1:]
	if !validTarget(target) {
		return status.ErrBadRequestLine
	}

	if head.Method = method.Parse(methodToken); head.Method == method.Unknown {
		return status.ErrMethodNotImplemented
	}

	if err := f.checkVersion(version); err != nil {
		return err
	}

	head.Target = strings.Clone(target)
	return nil
}

func (f *Factory) parseStatusLine(head *Head, line string) error {
	version, rest, found := strings.Cut(line, " ")
	if !found {
		return status.ErrBadStatusLine
	}

	if err := f.checkVersion(version); err != nil {
		return err
	}

	codeToken, reason, _ := strings.Cut(rest, " ")
	code, ok := status.Parse(codeToken)
	if !ok {
		return status.ErrBadStatusLine
	}

	for i := 0; i < len(reason); i++ {
		if reason[i] != '\t' && strutil.IsProhibitedChar(reason[i]) {
			return status.ErrBadStatusLine
		}
	}

	head.Code, head.Status = code, strings.Clone(reason)
	return nil
}

func (f *Factory) checkVersion(token string) error {
	switch p := proto.FromString(token); p {
	case proto.Unknown:
		return status.ErrHTTPVersionNotSupported
	case f.protocol:
		return nil
	default:
		return fmt.Errorf("%w: got %s, expected %s", status.ErrVersionMismatch, p, f.protocol)
	}
}

func (f *Factory) parseHeaders(head *Head, lines *string) error {
	direction := head.Kind.Direction()
	count := 0

	for {
		line, ok := nextLine(lines)
		if !ok || len(line) == 0 {
			return nil
		}

		if count++; count > f.cfg.Headers.MaxNumber {
			return status.ErrTooManyHeaders
		}

		header, err := f.headers.Parse(f.protocol, line)
		if err != nil {
			return err
		}

		if !header.Direction.Matches(direction) {
			continue
		}

		head.Headers.Add(header)
	}
}

func (f *Factory) validate(head *Head) error {
	hdrs := head.Headers

	if head.Kind == Request && f.protocol.RequiresHost() {
		switch hdrs.Count("Host") {
		case 0:
			return status.ErrMissingHost
		case 1:
		default:
			return status.ErrDuplicateHost
		}
	}

	for _, value := range hdrs.Values("Content-Length") {
		length, _ := headers.AsInteger(value)
		if head.ContentLength != -1 && head.ContentLength != length {
			return status.ErrDuplicateContentLength
		}

		head.ContentLength = length
	}

	if head.ContentLength > 0 && uint64(head.ContentLength) > f.cfg.Body.MaxSize {
		return status.ErrBodyTooLarge
	}

	head.ContentEncoding = hdrs.Codings(coding.ContentEncoding)
	head.TransferEncoding = hdrs.Codings(coding.TransferEncoding)

	if len(head.ContentEncoding)+len(head.TransferEncoding) > f.cfg.Headers.MaxEncodingTokens {
		return status.ErrTooManyEncodingTokens
	}

	if hdrs.Count(coding.TransferEncoding) == 0 {
		return nil
	}

	if hdrs.Count(coding.TransferEncoding) > 1 {
		return status.ErrDuplicateTransferEncoding
	}

	if head.ContentLength != -1 {
		return status.ErrAmbiguousLength
	}

	chunkedAt := chunkedIndex(head.TransferEncoding)
	switch {
	case chunkedAt == -1:
		if head.Kind == Request {
			return fmt.Errorf("%w: request transfer codings must end with chunked", status.ErrBadEncoding)
		}
	case chunkedAt != len(head.TransferEncoding)-1:
		return fmt.Errorf("%w: chunked must be the last transfer coding", status.ErrBadEncoding)
	case !f.protocol.SupportsChunked():
		return fmt.Errorf("%w: chunked with %s", status.ErrIncompatibleEncoding, f.protocol)
	default:
		head.Chunked = true
	}

	return nil
}

func chunkedIndex(refs []codec.Ref) int {
	for i, ref := range refs {
		if ref.IsChunked() {
			return i
		}
	}

	return -1
}

func validTarget(target string) bool {
	if len(target) == 0 {
		return false
	}

	for i := 0; i < len(target); i++ {
		if target[i] == ' ' || strutil.IsProhibitedChar(target[i]) {
			return false
		}
	}

	return true
}

// nextLine cuts the next line off the text, dropping the line terminator.
func nextLine(text *string) (line string, ok bool) {
	if len(*text) == 0 {
		return "", false
	}

	line, *text, _ = strings.Cut(*text, "\n")
	return strutil.StripCR(line), true
}
