package assembler

import (
	"errors"
	"log"
	"sync"

	"github.com/indigo-web/h1codec/config"
	"github.com/indigo-web/h1codec/internal/timer"
	"github.com/indigo-web/h1codec/protocol/http1"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Table holds pending assemblers keyed by peer. An assembler is created on the first feed
// from the peer and removed as soon as it reaches a terminal state, whatever it is.
type Table struct {
	mu        sync.Mutex
	cfg       *config.Config
	kind      http1.Kind
	factories []*http1.Factory
	pending   map[string]*Assembler
	logger    Logger
}

// NewTable returns an empty table. Nil logger is substituted by log.Default().
func NewTable(cfg *config.Config, kind http1.Kind, logger Logger, factories ...*http1.Factory) *Table {
	if logger == nil {
		logger = log.Default()
	}

	return &Table{
		cfg:       cfg,
		kind:      kind,
		factories: factories,
		pending:   make(map[string]*Assembler),
		logger:    logger,
	}
}

// Feed passes the data to the assembler of the peer, creating it if there's none. The
// assembler is returned even if it's already removed from the table, so its result can
// be obtained.
func (t *Table) Feed(peer string, data []byte) (a *Assembler, done bool, err error) {
	t.mu.Lock()
	a, found := t.pending[peer]
	if !found {
		a = t.newAssembler(peer)
		t.pending[peer] = a
	}
	t.mu.Unlock()

	done, err = a.Feed(data)
	return a, done, err
}

func (t *Table) newAssembler(peer string) *Assembler {
	return newAssembler(t.cfg, t.kind, func(a *Assembler, result Result) {
		t.remove(peer, a)

		switch {
		case result.Err == nil:
		case errors.Is(result.Err, ErrCancelled):
		case errors.Is(result.Err, ErrTimeout):
			t.logger.Printf("assembler: %s: timed out after %s", peer, timer.Since(a.created))
		default:
			t.logger.Printf("assembler: %s: %s", peer, result.Err)
		}
	}, t.factories)
}

func (t *Table) remove(peer string, a *Assembler) {
	t.mu.Lock()
	if t.pending[peer] == a {
		delete(t.pending, peer)
	}
	t.mu.Unlock()
}

// Get returns the pending assembler of the peer.
func (t *Table) Get(peer string) (*Assembler, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, found := t.pending[peer]
	return a, found
}

// Cancel cancels the pending assembler of the peer, if there's any.
func (t *Table) Cancel(peer string) bool {
	a, found := t.Get(peer)
	if found {
		a.Cancel()
	}

	return found
}

// Len returns the number of pending assemblers.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.pending)
}
