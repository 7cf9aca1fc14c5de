package codec

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Registry maps coding tokens to codecs. Its effective view is the built-in codecs merged
// with custom ones, where a custom codec shadows a built-in one of the same token. Readers
// never block: they always observe a consistent snapshot, whereas writers are serialized
// and publish a fresh snapshot on every change.
type Registry struct {
	mu       sync.Mutex
	builtin  map[string]Codec
	snapshot atomic.Pointer[snapshot]
}

type snapshot struct {
	custom    map[string]Codec
	effective map[string]Codec
}

// NewRegistry returns a registry containing only built-in codecs.
func NewRegistry() *Registry {
	r := &Registry{
		builtin: make(map[string]Codec),
	}

	for _, c := range Builtin() {
		r.builtin[c.Token()] = c
	}

	r.publish(make(map[string]Codec))
	return r
}

// Add registers a custom codec. It returns false if a custom codec of the same token was
// already present; it gets replaced anyway.
func (r *Registry) Add(c Codec) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	custom := cloneMap(r.snapshot.Load().custom)
	token := normalize(c.Token())
	_, present := custom[token]
	custom[token] = c
	r.publish(custom)

	return !present
}

// Remove unregisters the custom codec of the same token. Built-in codecs can't be removed,
// however shadowed ones become visible again.
func (r *Registry) Remove(c Codec) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	token := normalize(c.Token())
	if _, found := r.snapshot.Load().custom[token]; !found {
		return false
	}

	custom := cloneMap(r.snapshot.Load().custom)
	delete(custom, token)
	r.publish(custom)

	return true
}

// Retrieve looks the token up, case-insensitively.
func (r *Registry) Retrieve(token string) (Codec, bool) {
	c, found := r.snapshot.Load().effective[normalize(token)]
	return c, found
}

// All returns every effective codec, ordered by their tokens.
func (r *Registry) All() []Codec {
	effective := r.snapshot.Load().effective
	codecs := make([]Codec, 0, len(effective))
	for _, c := range effective {
		codecs = append(codecs, c)
	}

	slices.SortFunc(codecs, func(a, b Codec) int {
		return compareTokens(a.Token(), b.Token())
	})

	return codecs
}

func (r *Registry) publish(custom map[string]Codec) {
	effective := cloneMap(r.builtin)
	for token, c := range custom {
		effective[token] = c
	}

	r.snapshot.Store(&snapshot{
		custom:    custom,
		effective: effective,
	})
}

func cloneMap(m map[string]Codec) map[string]Codec {
	clone := make(map[string]Codec, len(m)+1)
	for k, v := range m {
		clone[k] = v
	}

	return clone
}

func compareTokens(a, b string) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry, creating it on the first call.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})

	return defaultRegistry
}
