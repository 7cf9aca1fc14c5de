package status

import "errors"

// Kind classifies errors of the codec. It implements the error interface itself, so a
// concrete error can be matched against its kind via errors.Is(err, status.FormatError).
type Kind uint8

const (
	// FormatError is a malformed line or grammar.
	FormatError Kind = iota + 1
	// VersionMismatch means the text was routed to a factory of another protocol version.
	VersionMismatch
	MissingRequiredHeader
	DuplicateHeaderNotAllowed
	// EncodingError is an unsupported or incompatible codec.
	EncodingError
	// BodyLengthMismatch is a difference between declared and actual body length.
	BodyLengthMismatch
	// IOError is a disk or stream failure while handling oversized bodies.
	IOError
	// Incomplete isn't a failure: more input is required in order to make progress.
	Incomplete
)

func (k Kind) Error() string {
	switch k {
	case FormatError:
		return "format error"
	case VersionMismatch:
		return "version mismatch"
	case MissingRequiredHeader:
		return "missing required header"
	case DuplicateHeaderNotAllowed:
		return "duplicate header not allowed"
	case EncodingError:
		return "encoding error"
	case BodyLengthMismatch:
		return "body length mismatch"
	case IOError:
		return "i/o error"
	case Incomplete:
		return "incomplete input"
	default:
		return "unknown error kind"
	}
}

type HTTPError struct {
	Message string
	Kind    Kind
	Code    Code
}

func NewError(kind Kind, code Code, message string) error {
	return HTTPError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// Is reports a match either against the very same error or against its kind.
func (h HTTPError) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return t == h.Kind
	case HTTPError:
		return t == h
	default:
		return false
	}
}

// CodeOf returns the response code matching the error, or InternalServerError if the
// error doesn't originate from the codec.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}

// IsIncomplete tells whether the error means nothing more than "feed more data".
func IsIncomplete(err error) bool {
	return errors.Is(err, Incomplete)
}

var (
	ErrBadRequest            = NewError(FormatError, BadRequest, "bad request")
	ErrBadRequestLine        = NewError(FormatError, BadRequest, "malformed request line")
	ErrBadStatusLine         = NewError(FormatError, BadGateway, "malformed status line")
	ErrBadHeader             = NewError(FormatError, BadRequest, "malformed header line")
	ErrHeaderInjection       = NewError(FormatError, InternalServerError, "header value contains CR or LF")
	ErrBadContentLength      = NewError(FormatError, BadRequest, "malformed Content-Length value")
	ErrBadChunk              = NewError(FormatError, BadRequest, "malformed chunk-encoded data")
	ErrBadEncoding           = NewError(FormatError, BadRequest, "bad message encoding")
	ErrAmbiguousLength       = NewError(FormatError, BadRequest, "both Content-Length and Transfer-Encoding are presented")
	ErrNoBoundary            = NewError(FormatError, BadRequest, "no empty line between head and body")
	ErrHeadTooLarge          = NewError(FormatError, RequestHeaderFieldsTooLarge, "too large message head")
	ErrTooManyHeaders        = NewError(FormatError, RequestHeaderFieldsTooLarge, "too many headers")
	ErrTooManyEncodingTokens = NewError(FormatError, RequestHeaderFieldsTooLarge, "too many encoding tokens specified")
	ErrMethodNotImplemented  = NewError(FormatError, NotImplemented, "request method is not supported")

	ErrHTTPVersionNotSupported = NewError(VersionMismatch, HTTPVersionNotSupported, "HTTP version not supported")
	ErrVersionMismatch         = NewError(VersionMismatch, HTTPVersionNotSupported, "message doesn't comply with the protocol version")

	ErrMissingHost = NewError(MissingRequiredHeader, BadRequest, "missing Host header")

	ErrDuplicateHost             = NewError(DuplicateHeaderNotAllowed, BadRequest, "multiple Host headers")
	ErrDuplicateContentLength    = NewError(DuplicateHeaderNotAllowed, BadRequest, "conflicting Content-Length headers")
	ErrDuplicateTransferEncoding = NewError(DuplicateHeaderNotAllowed, BadRequest, "multiple Transfer-Encoding headers")

	ErrUnsupportedEncoding  = NewError(EncodingError, UnsupportedMediaType, "encoding is not supported")
	ErrIncompatibleEncoding = NewError(EncodingError, UnsupportedMediaType, "encoding isn't compatible with the protocol version")
	ErrBadCodecToken        = NewError(EncodingError, InternalServerError, "codec token must be non-empty and contain no commas")

	ErrBodyTooLarge      = NewError(BodyLengthMismatch, RequestEntityTooLarge, "body is too large")
	ErrBodyTooLong       = NewError(BodyLengthMismatch, BadRequest, "body is longer than declared")
	ErrBodyLengthDiffers = NewError(BodyLengthMismatch, InternalServerError, "declared Content-Length differs from the body length")

	ErrTempFile = NewError(IOError, InternalServerError, "temporary body file failure")

	ErrIncomplete = NewError(Incomplete, BadRequest, "more data required")
)
