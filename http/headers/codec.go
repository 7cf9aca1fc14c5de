package headers

import (
	"fmt"
	"strings"

	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/internal/strutil"
	"golang.org/x/net/http/httpguts"
)

// Codec parses single header lines and serializes headers back into lines. The line
// terminator is neither expected nor produced.
type Codec struct {
	Keys *Registry
}

func NewCodec(keys *Registry) Codec {
	return Codec{Keys: keys}
}

// Parse reads the header line. The line is never retained, so it may be a view over a
// reusable buffer.
func (c Codec) Parse(p proto.Protocol, line string) (Header, error) {
	name, value, err := split(line)
	if err != nil {
		return Header{}, err
	}

	key, _ := c.Keys.Lookup(name)
	typed, err := key.Grammar.Read(p, value)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w", key.Name, err)
	}

	return Header{
		Name:      strings.Clone(name),
		Value:     typed,
		Direction: key.Direction,
		HopByHop:  key.HopByHop,
	}, nil
}

// Serialize writes the header as `Name: value`. A value written with CR or LF in it is
// refused, as it would smuggle additional lines into the message.
func (c Codec) Serialize(p proto.Protocol, h Header) (string, error) {
	if !httpguts.ValidHeaderFieldName(h.Name) {
		return "", fmt.Errorf("%w: invalid name %q", status.ErrBadHeader, h.Name)
	}

	key, _ := c.Keys.Lookup(h.Name)
	value, err := key.Grammar.Write(p, h.Value)
	if err != nil {
		return "", fmt.Errorf("%s: %w", h.Name, err)
	}

	if strings.ContainsAny(value, "\r\n") {
		return "", fmt.Errorf("%s: %w", h.Name, status.ErrHeaderInjection)
	}

	return h.Name + ": " + value, nil
}

// Validate runs the line-level checks of Parse without interpreting the value.
func (c Codec) Validate(line string) bool {
	_, _, err := split(line)
	return err == nil
}

func split(line string) (name, value string, err error) {
	if strings.ContainsAny(line, "\r\n") {
		return "", "", status.ErrBadHeader
	}

	colon := strings.IndexByte(line, ':')
	if colon == -1 {
		return "", "", status.ErrBadHeader
	}

	name, value = line[:colon], strutil.StripWS(line[colon+1:])
	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		return "", "", status.ErrBadHeader
	}

	return name, value, nil
}
