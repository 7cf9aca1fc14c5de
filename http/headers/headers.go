package headers

import (
	"iter"
	"slices"

	"github.com/indigo-web/h1codec/http/codec"
	"github.com/indigo-web/utils/strcomp"
)

// Headers is an ordered collection of headers, permitting duplicates. Lookups are
// case-insensitive and linear, which outperforms maps on the amounts of headers messages
// usually carry.
type Headers struct {
	headers []Header
}

func New() *Headers {
	return new(Headers)
}

// NewPrealloc returns an instance with pre-allocated underlying storage.
func NewPrealloc(n int) *Headers {
	return &Headers{
		headers: make([]Header, 0, n),
	}
}

// From returns a collection of the headers, preserving their order.
func From(hdrs ...Header) *Headers {
	return &Headers{headers: slices.Clone(hdrs)}
}

func (h *Headers) Add(header Header) *Headers {
	h.headers = append(h.headers, header)
	return h
}

// Get returns the first header of the name.
func (h *Headers) Get(name string) (Header, bool) {
	for _, header := range h.headers {
		if strcomp.EqualFold(header.Name, name) {
			return header, true
		}
	}

	return Header{}, false
}

// Value returns the value of the first header of the name, or nil.
func (h *Headers) Value(name string) any {
	header, _ := h.Get(name)
	return header.Value
}

// Values returns values of all the headers of the name, in their order. Returns nil if
// there are none.
func (h *Headers) Values(name string) (values []any) {
	for _, header := range h.headers {
		if strcomp.EqualFold(header.Name, name) {
			values = append(values, header.Value)
		}
	}

	return values
}

func (h *Headers) Has(name string) bool {
	_, found := h.Get(name)
	return found
}

// Count returns the number of headers of the name.
func (h *Headers) Count(name string) (n int) {
	for _, header := range h.headers {
		if strcomp.EqualFold(header.Name, name) {
			n++
		}
	}

	return n
}

// Len returns the total number of headers.
func (h *Headers) Len() int {
	return len(h.headers)
}

func (h *Headers) Iter() iter.Seq[Header] {
	return func(yield func(Header) bool) {
		for _, header := range h.headers {
			if !yield(header) {
				break
			}
		}
	}
}

// Clone returns a copy of the collection. Values themselves aren't deep-copied.
func (h *Headers) Clone() *Headers {
	return &Headers{headers: slices.Clone(h.headers)}
}

// Clear removes all the entries, keeping the allocated space.
func (h *Headers) Clear() *Headers {
	h.headers = h.headers[:0]
	return h
}

// Codings collects coding references of all the headers of the name, in their order.
// Values not representing codings are skipped.
func (h *Headers) Codings(name string) (refs []codec.Ref) {
	for _, header := range h.headers {
		if !strcomp.EqualFold(header.Name, name) {
			continue
		}

		if codings, ok := AsCodings(header.Value); ok {
			refs = append(refs, codings...)
		}
	}

	return refs
}
