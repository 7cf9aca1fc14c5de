// Package assembler builds complete HTTP/1.x messages out of bytes arriving in pieces of
// arbitrary size.
package assembler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/indigo-web/h1codec/config"
	"github.com/indigo-web/h1codec/http"
	"github.com/indigo-web/h1codec/http/chunked"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/internal/buffer"
	"github.com/indigo-web/h1codec/internal/timer"
	"github.com/indigo-web/h1codec/protocol/http1"
)

var (
	ErrClosed    = errors.New("assembler is already in a terminal state")
	ErrCancelled = errors.New("message assembly was cancelled")
	ErrTimeout   = errors.New("message assembly timed out")
)

type State uint8

const (
	AwaitingHeaders State = iota
	HeadersParsed
	Complete
	Failed
	Cancelled
	TimedOut
)

func (s State) String() string {
	switch s {
	case AwaitingHeaders:
		return "awaiting headers"
	case HeadersParsed:
		return "headers parsed"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Terminal tells whether no more transitions are possible from the state.
func (s State) Terminal() bool {
	return s >= Complete
}

// Result is the outcome of the assembly. Exactly one of Request and Response is set on
// success, depending on the message kind. Extra holds bytes fed past the end of the message,
// which belong to the next one.
type Result struct {
	Request  *http.Request
	Response *http.Response
	Extra    []byte
	Err      error
}

// Assembler accumulates bytes of a single message. Its state is guarded by a mutex, however
// feeding a single assembler from multiple goroutines makes no sense, as the order of pieces
// would be lost.
type Assembler struct {
	mu        sync.Mutex
	cfg       *config.Config
	kind      http1.Kind
	factories []*http1.Factory
	factory   *http1.Factory
	state     State
	buff      buffer.Buffer
	head      http1.Head
	// scanned is the number of buffered bytes already looked at by the boundary search or
	// by the chunked parser.
	scanned   int
	chunked   *chunked.Parser
	result    Result
	done      chan struct{}
	timer     *time.Timer
	created   time.Time
	completed time.Time
	onResolve func(*Assembler, Result)
}

// New returns an assembler of a message of the kind. The protocol version is detected by
// the request or status line, picking the first compatible factory. If the config sets a
// timeout, the assembly is aborted once it expires.
func New(cfg *config.Config, kind http1.Kind, factories ...*http1.Factory) *Assembler {
	return newAssembler(cfg, kind, nil, factories)
}

func newAssembler(
	cfg *config.Config, kind http1.Kind, onResolve func(*Assembler, Result), factories []*http1.Factory,
) *Assembler {
	headSize := cfg.Assembler.MaxHeadSize
	a := &Assembler{
		cfg:       cfg,
		kind:      kind,
		factories: factories,
		state:     AwaitingHeaders,
		buff:      buffer.New(min(headSize, 4096), headSize+2*int(cfg.Body.MaxSize)),
		done:      make(chan struct{}),
		created:   timer.Now(),
		onResolve: onResolve,
	}

	if cfg.Assembler.Timeout > 0 {
		a.mu.Lock()
		a.timer = time.AfterFunc(cfg.Assembler.Timeout, a.expire)
		a.mu.Unlock()
	}

	return a
}

// Feed appends the data and returns true exactly when it made the message complete. Errors
// are fatal: the assembler fails and the completion signal is resolved with the error.
// Feeding an assembler in a terminal state returns ErrClosed.
func (a *Assembler) Feed(data []byte) (done bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Terminal() {
		return false, ErrClosed
	}

	if !a.buff.Append(data) {
		if a.state == AwaitingHeaders {
			return false, a.fail(status.ErrHeadTooLarge)
		}

		return false, a.fail(status.ErrBodyTooLarge)
	}

	if a.state == AwaitingHeaders {
		if err = a.parseHead(); err != nil {
			return false, a.fail(err)
		}

		if a.state == AwaitingHeaders {
			return false, nil
		}
	}

	return a.progress()
}

func (a *Assembler) parseHead() error {
	text := a.buff.Preview()
	size := http1.BoundaryFrom(text, a.scanned-3)
	maxHeadSize := a.cfg.Assembler.MaxHeadSize

	if size == -1 {
		if len(text) > maxHeadSize {
			return status.ErrHeadTooLarge
		}

		a.scanned = len(text)
		return nil
	}

	if size > maxHeadSize {
		return status.ErrHeadTooLarge
	}

	factory, err := http1.Route(text[:size], a.kind, a.factories...)
	if err != nil {
		return err
	}

	head, err := factory.ParseHead(text[:size], a.kind)
	if err != nil {
		return err
	}

	a.factory, a.head = factory, head
	a.scanned = size
	a.state = HeadersParsed

	switch {
	case head.Chunked:
		a.chunked = chunked.NewParser(chunked.New(a.cfg.Chunked))
	case head.ContentLength >= 0:
		// the body plus a single pipelined message at most
		a.buff.Limit(size + int(head.ContentLength) + maxHeadSize + int(a.cfg.Body.MaxSize))
	}

	return nil
}

// progress checks whether the body is complete.
func (a *Assembler) progress() (bool, error) {
	switch {
	case a.head.Chunked:
		n, done, err := a.chunked.Consume(a.buff.Preview()[a.scanned:])
		if err != nil {
			return false, a.fail(err)
		}

		if a.scanned += n; !done {
			return false, nil
		}

		return a.complete(a.scanned)
	case a.head.ContentLength >= 0:
		end := a.head.Size + int(a.head.ContentLength)
		if a.buff.Len() < end {
			return false, nil
		}

		return a.complete(end)
	default:
		return a.complete(a.head.Size)
	}
}

// complete parses the exact message bytes and resolves the signal.
func (a *Assembler) complete(end int) (bool, error) {
	text, extra := a.buff.Split(end)
	result := Result{Extra: extra}
	var err error

	switch a.kind {
	case http1.Request:
		result.Request, err = a.factory.ParseRequest(text)
	default:
		result.Response, err = a.factory.ParseResponse(text)
	}

	if err != nil {
		return false, a.fail(err)
	}

	a.state = Complete
	a.resolve(result)

	return true, nil
}

func (a *Assembler) fail(err error) error {
	a.state = Failed
	a.resolve(Result{Err: err})
	return err
}

// resolve must be called with the mutex held.
func (a *Assembler) resolve(result Result) {
	if a.timer != nil {
		a.timer.Stop()
	}

	a.buff.Clear()
	a.completed = timer.Now()
	a.result = result

	if a.onResolve != nil {
		a.onResolve(a, result)
	}

	close(a.done)
}

// Cancel aborts the assembly. It's a no-op if the assembler is already in a terminal state.
func (a *Assembler) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Terminal() {
		return
	}

	a.state = Cancelled
	a.resolve(Result{Err: ErrCancelled})
}

func (a *Assembler) expire() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Terminal() {
		return
	}

	a.state = TimedOut
	a.resolve(Result{Err: ErrTimeout})
}

// Done returns a channel closed once the assembler reaches a terminal state.
func (a *Assembler) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the assembler reaches a terminal state or the context is done. Use
// context.WithTimeout to bound the wait.
func (a *Assembler) Wait(ctx context.Context) (Result, error) {
	select {
	case <-a.done:
		result := a.Result()
		return result, result.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the outcome. It's zero until the assembler reaches a terminal state.
func (a *Assembler) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.result
}

func (a *Assembler) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.state
}

// Head returns the parsed message head, available since the HeadersParsed state.
func (a *Assembler) Head() (http1.Head, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.head, a.state != AwaitingHeaders && a.factory != nil
}

// Created returns the time the assembler was created at.
func (a *Assembler) Created() time.Time {
	return a.created
}

// Completed returns the time the assembler reached a terminal state at. Zero until then.
func (a *Assembler) Completed() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.completed
}
