package codec

import (
	"strings"
)

// Ref is a reference to a codec by its token, as it's met in a header. A reference is
// either unresolved, holding nothing but the token, or resolved, holding the codec itself.
// Resolution is an explicit one-time transition made by Resolve.
type Ref struct {
	token string
	codec Codec
}

// Unresolved returns a reference by the token.
func Unresolved(token string) Ref {
	return Ref{token: token}
}

// Resolved returns an already resolved reference to the codec.
func Resolved(c Codec) Ref {
	return Ref{token: c.Token(), codec: c}
}

// Token returns the token as it was originally referenced.
func (r Ref) Token() string {
	return r.token
}

func (r Ref) Resolved() bool {
	return r.codec != nil
}

// Codec returns the codec if the reference is resolved.
func (r Ref) Codec() (Codec, bool) {
	return r.codec, r.codec != nil
}

// Resolve looks the token up in the registry. Already resolved references are returned
// as is, unresolvable ones stay unresolved.
func (r Ref) Resolve(registry *Registry) Ref {
	if r.Resolved() {
		return r
	}

	if c, found := registry.Retrieve(r.token); found {
		r.codec = c
	}

	return r
}

func (r Ref) IsChunked() bool {
	return strings.EqualFold(r.token, Chunked)
}

func (r Ref) IsIdentity() bool {
	return strings.EqualFold(r.token, Identity)
}

// ResolveAll resolves every reference and reports whether all of them succeeded.
func ResolveAll(registry *Registry, refs []Ref) (resolved []Ref, ok bool) {
	resolved = make([]Ref, len(refs))
	ok = true

	for i, ref := range refs {
		resolved[i] = ref.Resolve(registry)
		ok = ok && resolved[i].Resolved()
	}

	return resolved, ok
}

// Tokens returns the tokens of the references.
func Tokens(refs []Ref) []string {
	tokens := make([]string, len(refs))
	for i, ref := range refs {
		tokens[i] = ref.token
	}

	return tokens
}
