package headers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/indigo-web/h1codec/http/codec"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/internal/strutil"
)

// Grammar reads a raw header value into its typed representation and writes it back.
type Grammar interface {
	Read(p proto.Protocol, raw string) (any, error)
	Write(p proto.Protocol, value any) (string, error)
}

var (
	// Raw keeps the value as is.
	Raw Grammar = raw{}
	// Integer reads non-negative decimal integers.
	Integer Grammar = integer{err: status.ErrBadHeader}
	// Codings reads comma-separated coding tokens into unresolved codec references.
	Codings Grammar = codings{}

	contentLength Grammar = integer{err: status.ErrBadContentLength}
)

type raw struct{}

func (raw) Read(_ proto.Protocol, value string) (any, error) {
	return strings.Clone(value), nil
}

func (raw) Write(_ proto.Protocol, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("%w: unexpected value type %T", status.ErrBadHeader, value)
	}
}

type integer struct {
	err error
}

func (i integer) Read(_ proto.Protocol, value string) (any, error) {
	if len(value) == 0 || len(value) > 18 {
		return nil, i.err
	}

	var n int64
	for j := 0; j < len(value); j++ {
		if value[j] < '0' || value[j] > '9' {
			return nil, i.err
		}

		n = n*10 + int64(value[j]-'0')
	}

	return n, nil
}

func (i integer) Write(p proto.Protocol, value any) (string, error) {
	if str, isStr := value.(string); isStr {
		if _, err := i.Read(p, str); err != nil {
			return "", err
		}

		return str, nil
	}

	n, ok := AsInteger(value)
	if !ok || n < 0 {
		return "", fmt.Errorf("%w: %v", i.err, value)
	}

	return strconv.FormatInt(n, 10), nil
}

// codings limits the number of tokens by MaxTokens, unless it's zero.
type codings struct {
	MaxTokens int
}

// NewCodings returns the Codings grammar, rejecting values of more than maxTokens tokens.
func NewCodings(maxTokens int) Grammar {
	return codings{MaxTokens: maxTokens}
}

func (c codings) Read(_ proto.Protocol, value string) (any, error) {
	var refs []codec.Ref

	for token := range strutil.Tokens(value) {
		if len(token) == 0 {
			continue
		}

		if c.MaxTokens > 0 && len(refs) >= c.MaxTokens {
			return nil, status.ErrTooManyEncodingTokens
		}

		refs = append(refs, codec.Unresolved(strings.Clone(token)))
	}

	if len(refs) == 0 {
		return nil, status.ErrBadEncoding
	}

	return refs, nil
}

func (codings) Write(_ proto.Protocol, value any) (string, error) {
	refs, ok := AsCodings(value)
	if !ok || len(refs) == 0 {
		return "", fmt.Errorf("%w: %v", status.ErrBadEncoding, value)
	}

	return strutil.Join(func(yield func(string) bool) {
		for _, ref := range refs {
			if !yield(ref.Token()) {
				return
			}
		}
	}), nil
}

// AsInteger converts values of integer types.
func AsInteger(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= 1<<63-1
	default:
		return 0, false
	}
}

// AsCodings converts values representing a list of codings. Strings are split into tokens.
func AsCodings(value any) ([]codec.Ref, bool) {
	switch v := value.(type) {
	case []codec.Ref:
		return v, true
	case codec.Ref:
		return []codec.Ref{v}, true
	case []string:
		refs := make([]codec.Ref, len(v))
		for i, token := range v {
			refs[i] = codec.Unresolved(token)
		}

		return refs, true
	case string:
		var refs []codec.Ref
		for token := range strutil.Tokens(v) {
			if len(token) > 0 {
				refs = append(refs, codec.Unresolved(token))
			}
		}

		return refs, true
	default:
		return nil, false
	}
}
