package headers

import (
	"strings"
	"sync"

	"github.com/indigo-web/h1codec/config"
)

// Key describes a known header name: which messages it belongs to, whether it's meaningful
// only for a single connection leg, and how its value is read and written.
type Key struct {
	Name      string
	Direction Direction
	HopByHop  bool
	Grammar   Grammar
}

// Registry is the catalog of known header keys. Names not in the catalog are treated as raw
// end-to-end headers valid in both directions.
type Registry struct {
	mu   sync.RWMutex
	keys map[string]Key
}

// NewRegistry returns a registry populated with the default catalog.
func NewRegistry(cfg config.Headers) *Registry {
	r := &Registry{keys: make(map[string]Key)}
	for _, key := range catalog(cfg) {
		r.Add(key)
	}

	return r
}

// Add puts the key into the catalog, replacing the existing one of the same name.
func (r *Registry) Add(key Key) {
	if key.Grammar == nil {
		key.Grammar = Raw
	}

	r.mu.Lock()
	r.keys[strings.ToLower(key.Name)] = key
	r.mu.Unlock()
}

func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	_, found := r.keys[name]
	delete(r.keys, name)

	return found
}

// Lookup returns the key of the name. Unknown names get a raw key of both directions, with
// found being false.
func (r *Registry) Lookup(name string) (key Key, found bool) {
	r.mu.RLock()
	key, found = r.keys[strings.ToLower(name)]
	r.mu.RUnlock()

	if !found {
		return Key{
			Name:      name,
			Direction: Both,
			Grammar:   Raw,
		}, false
	}

	return key, true
}

// New builds a header, filling the direction and the hop-by-hop flag from the catalog.
func (r *Registry) New(name string, value any) Header {
	key, _ := r.Lookup(name)

	return Header{
		Name:      name,
		Value:     value,
		Direction: key.Direction,
		HopByHop:  key.HopByHop,
	}
}

func catalog(cfg config.Headers) []Key {
	codingsGrammar := NewCodings(cfg.MaxEncodingTokens)

	return []Key{
		{Name: "Host", Direction: Request},
		{Name: "Content-Length", Direction: Both, Grammar: contentLength},
		{Name: "Content-Encoding", Direction: Both, Grammar: codingsGrammar},
		{Name: "Transfer-Encoding", Direction: Both, HopByHop: true, Grammar: codingsGrammar},
		{Name: "Content-Type", Direction: Both},
		{Name: "Connection", Direction: Both, HopByHop: true},
		{Name: "Keep-Alive", Direction: Both, HopByHop: true},
		{Name: "TE", Direction: Request, HopByHop: true},
		{Name: "Trailer", Direction: Both, HopByHop: true},
		{Name: "Upgrade", Direction: Both, HopByHop: true},
		{Name: "Proxy-Authorization", Direction: Request, HopByHop: true},
		{Name: "Proxy-Authenticate", Direction: Response, HopByHop: true},
		{Name: "Date", Direction: Both},
		{Name: "Server", Direction: Response},
		{Name: "Set-Cookie", Direction: Response},
		{Name: "Cookie", Direction: Request},
		{Name: "User-Agent", Direction: Request},
		{Name: "Referer", Direction: Request},
		{Name: "Accept", Direction: Request},
		{Name: "Accept-Encoding", Direction: Request},
		{Name: "Expect", Direction: Request},
		{Name: "Authorization", Direction: Request},
		{Name: "Max-Forwards", Direction: Request, Grammar: Integer},
		{Name: "Location", Direction: Response},
		{Name: "WWW-Authenticate", Direction: Response},
		{Name: "Retry-After", Direction: Response},
		{Name: "Vary", Direction: Response},
		{Name: "Age", Direction: Response, Grammar: Integer},
	}
}
