// Package headers implements the line-level header codec, the catalog of known header keys
// with their value grammars, and an ordered collection of headers.
package headers

type Direction uint8

const (
	// Both is the zero value, so headers built by hand are serialized in any message.
	Both Direction = iota
	Request
	Response
)

// Matches tells whether a header of the direction belongs to a message of the kind. The kind
// is expected to be either Request or Response.
func (d Direction) Matches(kind Direction) bool {
	return d == Both || d == kind
}

func (d Direction) String() string {
	switch d {
	case Both:
		return "both"
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Header is a single header field. The value is typed by the grammar of the key: Raw yields
// strings, Integer yields int64 and Codings yields []codec.Ref.
type Header struct {
	Name      string
	Value     any
	Direction Direction
	HopByHop  bool
}
