package assembler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/indigo-web/h1codec/config"
	"github.com/indigo-web/h1codec/http/method"
	"github.com/indigo-web/h1codec/http/proto"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/h1codec/protocol/http1"
	"github.com/stretchr/testify/require"
)

func getConfig() *config.Config {
	cfg := config.Default()
	cfg.Assembler.Timeout = 0
	return cfg
}

func newTestAssembler(cfg *config.Config, kind http1.Kind) *Assembler {
	return New(cfg, kind, http1.Versions(cfg, nil, nil)...)
}

func feedPartially(a *Assembler, data []byte, n int) (completions int, err error) {
	for i := 0; i < len(data); i += n {
		done, err := a.Feed(data[i:min(i+n, len(data))])
		if err != nil {
			return completions, err
		}

		if done {
			completions++
		}
	}

	return completions, nil
}

func TestAssembler(t *testing.T) {
	t.Run("zero content length", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		done, err := a.Feed([]byte("POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 0\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, Complete, a.State())

		result := a.Result()
		require.NoError(t, result.Err)
		require.Equal(t, method.POST, result.Request.Method)
		require.Nil(t, result.Request.Body)
		require.Empty(t, result.Extra)
		require.False(t, a.Completed().IsZero())
	})

	t.Run("partial body", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		done, err := a.Feed([]byte("POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 10\r\n\r\n01234"))
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, HeadersParsed, a.State())
		require.True(t, a.Completed().IsZero())

		head, ok := a.Head()
		require.True(t, ok)
		require.Equal(t, int64(10), head.ContentLength)

		done, err = a.Feed([]byte("56789"))
		require.NoError(t, err)
		require.True(t, done)

		body, err := a.Result().Request.Body.String()
		require.NoError(t, err)
		require.Equal(t, "0123456789", body)
	})

	t.Run("complete on headers", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		done, err := a.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\nGET /next HTTP/1.1\r\n"))
		require.NoError(t, err)
		require.True(t, done)

		result := a.Result()
		require.Equal(t, "/", result.Request.Target)
		require.Equal(t, "GET /next HTTP/1.1\r\n", string(result.Extra))
	})

	t.Run("scattered head", func(t *testing.T) {
		data := []byte("GET /hello HTTP/1.0\r\nAccept: */*\r\n\r\n")

		for n := 1; n <= len(data); n++ {
			a := newTestAssembler(getConfig(), http1.Request)
			completions, err := feedPartially(a, data, n)
			require.NoError(t, err, n)
			require.Equal(t, 1, completions, n)
			require.Equal(t, proto.HTTP10, a.Result().Request.Protocol)
		}
	})

	t.Run("scattered chunked body", func(t *testing.T) {
		data := []byte(
			"POST /upload HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"5\r\nHello\r\ne; name=value\r\n, chunked body\r\n0\r\nExpires: never\r\n\r\n",
		)

		for n := 1; n <= len(data); n++ {
			a := newTestAssembler(getConfig(), http1.Request)
			completions, err := feedPartially(a, data, n)
			require.NoError(t, err, n)
			require.Equal(t, 1, completions, n)

			result := a.Result()
			require.Empty(t, result.Extra)
			body, err := result.Request.Body.String()
			require.NoError(t, err)
			require.Equal(t, "Hello, chunked body", body)
		}
	})

	t.Run("whitespace after chunk length", func(t *testing.T) {
		data := []byte(
			"POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"5 ;a=b\r\nHello\r\n1 \r\n!\r\n0\r\n\r\n",
		)

		cfg := getConfig()
		request, err := http1.Versions(cfg, nil, nil)[0].ParseRequest(data)
		require.NoError(t, err)
		expected, err := request.Body.String()
		require.NoError(t, err)

		for n := 1; n <= len(data); n++ {
			a := newTestAssembler(cfg, http1.Request)
			completions, err := feedPartially(a, data, n)
			require.NoError(t, err, n)
			require.Equal(t, 1, completions, n)

			body, err := a.Result().Request.Body.String()
			require.NoError(t, err)
			require.Equal(t, expected, body)
		}
	})

	t.Run("body limit follows content length", func(t *testing.T) {
		cfg := getConfig()
		cfg.Assembler.MaxHeadSize = 64
		cfg.Body.MaxSize = 1024
		head := "POST / HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\n"

		a := newTestAssembler(cfg, http1.Request)
		done, err := a.Feed([]byte(head))
		require.NoError(t, err)
		require.False(t, done)

		_, err = a.Feed([]byte(strings.Repeat("a", 5+64+1024+1)))
		require.ErrorIs(t, err, status.ErrBodyTooLarge)
		require.Equal(t, Failed, a.State())

		a = newTestAssembler(cfg, http1.Request)
		_, err = a.Feed([]byte(head))
		require.NoError(t, err)
		done, err = a.Feed([]byte("Hello" + strings.Repeat("a", 64+1024)))
		require.NoError(t, err)
		require.True(t, done)
		require.Len(t, a.Result().Extra, 64+1024)
	})

	t.Run("chunked with extra", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		done, err := a.Feed([]byte(
			"POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nHello\r\n0\r\n\r\nGET",
		))
		require.NoError(t, err)
		require.True(t, done)
		require.Equal(t, "GET", string(a.Result().Extra))
	})

	t.Run("response", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Response)
		done, err := a.Feed([]byte("HTTP/1.0 200 OK\r\nContent-Length: 2\r\n\r\n"))
		require.NoError(t, err)
		require.False(t, done)

		done, err = a.Feed([]byte("hi"))
		require.NoError(t, err)
		require.True(t, done)

		response := a.Result().Response
		require.Equal(t, status.OK, response.Code)
		require.Equal(t, proto.HTTP10, response.Protocol)
	})

	t.Run("head too large", func(t *testing.T) {
		cfg := getConfig()
		cfg.Assembler.MaxHeadSize = 32
		a := newTestAssembler(cfg, http1.Request)

		_, err := a.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n"))
		require.ErrorIs(t, err, status.ErrHeadTooLarge)
		require.Equal(t, Failed, a.State())
	})

	t.Run("malformed", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		_, err := a.Feed([]byte("GET / HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrMissingHost)
		require.Equal(t, Failed, a.State())

		result, err := a.Wait(context.Background())
		require.ErrorIs(t, err, status.ErrMissingHost)
		require.ErrorIs(t, result.Err, status.ErrMissingHost)

		_, err = a.Feed([]byte("more"))
		require.ErrorIs(t, err, ErrClosed)
	})

	t.Run("unsupported version", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		_, err := a.Feed([]byte("GET / HTTP/2.0\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrVersionMismatch)
	})

	t.Run("malformed chunked body", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		_, err := a.Feed([]byte("POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\nxyz\r\n"))
		require.ErrorIs(t, err, status.ErrBadChunk)
	})
}

func TestCancel(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		_, err := a.Feed([]byte("GET / HTTP/1.1\r\n"))
		require.NoError(t, err)

		a.Cancel()
		a.Cancel()
		require.Equal(t, Cancelled, a.State())

		_, err = a.Wait(context.Background())
		require.ErrorIs(t, err, ErrCancelled)

		_, err = a.Feed([]byte("Host: example.com\r\n\r\n"))
		require.ErrorIs(t, err, ErrClosed)
	})

	t.Run("after completion", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		done, err := a.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)

		a.Cancel()
		require.Equal(t, Complete, a.State())
		require.NoError(t, a.Result().Err)
	})
}

func TestWait(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		cfg := getConfig()
		cfg.Assembler.Timeout = 20 * time.Millisecond
		a := newTestAssembler(cfg, http1.Request)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_, err := a.Wait(ctx)
		require.ErrorIs(t, err, ErrTimeout)
		require.Equal(t, TimedOut, a.State())

		_, err = a.Feed([]byte("GET / HTTP/1.1\r\n"))
		require.ErrorIs(t, err, ErrClosed)
	})

	t.Run("completion stops the timer", func(t *testing.T) {
		cfg := getConfig()
		cfg.Assembler.Timeout = 20 * time.Millisecond
		a := newTestAssembler(cfg, http1.Request)
		done, err := a.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)

		time.Sleep(50 * time.Millisecond)
		require.Equal(t, Complete, a.State())
	})

	t.Run("deadline", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := a.Wait(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, AwaitingHeaders, a.State())
	})

	t.Run("from another goroutine", func(t *testing.T) {
		a := newTestAssembler(getConfig(), http1.Request)
		results := make(chan Result, 1)

		go func() {
			result, _ := a.Wait(context.Background())
			results <- result
		}()

		_, err := a.Feed([]byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n"))
		require.NoError(t, err)

		select {
		case result := <-results:
			require.NoError(t, result.Err)
			require.NotNil(t, result.Request)
		case <-time.After(5 * time.Second):
			require.FailNow(t, "waiter wasn't released")
		}
	})
}

type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Printf(format string, v ...any) {
	r.mu.Lock()
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
	r.mu.Unlock()
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.lines...)
}

func TestTable(t *testing.T) {
	cfg := getConfig()
	factories := http1.Versions(cfg, nil, nil)

	t.Run("lifecycle", func(t *testing.T) {
		logger := new(recorder)
		table := NewTable(cfg, http1.Request, logger, factories...)

		_, done, err := table.Feed("10.0.0.1:5000", []byte("GET / HTTP/1.1\r\n"))
		require.NoError(t, err)
		require.False(t, done)
		_, done, err = table.Feed("10.0.0.2:5000", []byte("GET / HTTP/1.1\r\n"))
		require.NoError(t, err)
		require.False(t, done)
		require.Equal(t, 2, table.Len())

		a, done, err := table.Feed("10.0.0.1:5000", []byte("Host: example.com\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
		require.NotNil(t, a.Result().Request)
		require.Equal(t, 1, table.Len())
		_, found := table.Get("10.0.0.1:5000")
		require.False(t, found)

		require.True(t, table.Cancel("10.0.0.2:5000"))
		require.False(t, table.Cancel("10.0.0.2:5000"))
		require.Zero(t, table.Len())
		require.Empty(t, logger.Lines())
	})

	t.Run("failures are logged", func(t *testing.T) {
		logger := new(recorder)
		table := NewTable(cfg, http1.Request, logger, factories...)

		_, _, err := table.Feed("peer", []byte("GET / HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, status.ErrMissingHost)
		require.Zero(t, table.Len())
		require.Len(t, logger.Lines(), 1)
		require.Contains(t, logger.Lines()[0], "peer")

		// a fresh assembler is created for the next message of the peer
		_, done, err := table.Feed("peer", []byte("GET / HTTP/1.1\r\nHost: a\r\n\r\n"))
		require.NoError(t, err)
		require.True(t, done)
	})

	t.Run("timeout", func(t *testing.T) {
		cfg := getConfig()
		cfg.Assembler.Timeout = 10 * time.Millisecond
		logger := new(recorder)
		table := NewTable(cfg, http1.Request, logger, factories...)

		a, _, err := table.Feed("slowpoke", []byte("GET / HTTP/1.1\r\n"))
		require.NoError(t, err)
		<-a.Done()

		require.Zero(t, table.Len())
		require.Len(t, logger.Lines(), 1)
		require.True(t, strings.Contains(logger.Lines()[0], "timed out"))
	})

	t.Run("concurrent peers", func(t *testing.T) {
		table := NewTable(cfg, http1.Request, new(recorder), factories...)
		data := []byte("POST /submit HTTP/1.1\r\nHost: example.com\r\nContent-Length: 13\r\n\r\nHello, world!")
		var wg sync.WaitGroup

		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(peer string) {
				defer wg.Done()

				for j := 0; j < len(data); j += 7 {
					a, done, err := table.Feed(peer, data[j:min(j+7, len(data))])
					if err != nil {
						t.Error(err)
						return
					}

					if done {
						body, err := a.Result().Request.Body.String()
						if err != nil || body != "Hello, world!" {
							t.Errorf("%s: unexpected body %q (%v)", peer, body, err)
						}
					}
				}
			}(fmt.Sprintf("peer-%d", i))
		}

		wg.Wait()
		require.Zero(t, table.Len())
	})
}
