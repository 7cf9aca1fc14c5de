package http

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"github.com/indigo-web/h1codec/config"
	"github.com/indigo-web/h1codec/http/status"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Body is a message payload. Small bodies are held in memory, larger ones are persisted
// to a temporary file, which is owned by the body and removed exactly once, on Close.
type Body struct {
	memory []byte
	file   *tempFile
	size   int
}

// NewBody stores a copy of the data. If the data is longer than the threshold, it's
// written to a temporary file instead.
func NewBody(data []byte, cfg config.Body) (*Body, error) {
	if len(data) <= cfg.TempFileThreshold {
		return &Body{memory: bytes.Clone(data), size: len(data)}, nil
	}

	file, err := newTempFile(cfg.TempDir, data)
	if err != nil {
		return nil, err
	}

	b := &Body{file: file, size: len(data)}
	runtime.SetFinalizer(b, func(b *Body) {
		if err := b.Close(); err != nil {
			logger.Printf("h1codec: leaked body file: %s", err)
		}
	})

	return b, nil
}

// BytesBody wraps the data as is, without copying it and regardless of its size.
func BytesBody(data []byte) *Body {
	return &Body{memory: data, size: len(data)}
}

// JSONBody serializes the model into a new in-memory body.
func JSONBody(model any) (*Body, error) {
	data, err := json.ConfigDefault.Marshal(model)
	if err != nil {
		return nil, err
	}

	return BytesBody(data), nil
}

// Len returns the body length in bytes.
func (b *Body) Len() int {
	return b.size
}

// InMemory tells whether the body isn't backed by a file.
func (b *Body) InMemory() bool {
	return b.file == nil
}

// Path returns the path of the backing file, if there's any.
func (b *Body) Path() string {
	if b.file == nil {
		return ""
	}

	return b.file.path
}

// Bytes returns the whole body. File-backed bodies are read entirely into memory.
func (b *Body) Bytes() ([]byte, error) {
	if b.file == nil {
		return b.memory, nil
	}

	data, err := os.ReadFile(b.file.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", status.ErrTempFile, err)
	}

	return data, nil
}

func (b *Body) String() (string, error) {
	data, err := b.Bytes()
	return uf.B2S(data), err
}

// Reader returns a fresh reader over the body, which must be closed after use.
func (b *Body) Reader() (io.ReadCloser, error) {
	if b.file == nil {
		return io.NopCloser(bytes.NewReader(b.memory)), nil
	}

	fd, err := os.Open(b.file.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", status.ErrTempFile, err)
	}

	return fd, nil
}

// JSON decodes the body into the model.
func (b *Body) JSON(model any) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}

	iterator := json.ConfigDefault.BorrowIterator(data)
	iterator.ReadVal(model)
	err = iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	return err
}

// Close releases the backing file, if there's any. It's safe to call it multiple times.
func (b *Body) Close() error {
	if b.file == nil {
		return nil
	}

	return b.file.remove()
}

type tempFile struct {
	path string
	once sync.Once
	err  error
}

var (
	tempFilesMu sync.Mutex
	tempFiles   = make(map[*tempFile]struct{})
)

func newTempFile(dir string, data []byte) (*tempFile, error) {
	fd, err := os.CreateTemp(dir, "h1codec-body-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", status.ErrTempFile, err)
	}

	_, err = fd.Write(data)
	if closeErr := fd.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(fd.Name())
		return nil, fmt.Errorf("%w: %s", status.ErrTempFile, err)
	}

	file := &tempFile{path: fd.Name()}
	tempFilesMu.Lock()
	tempFiles[file] = struct{}{}
	tempFilesMu.Unlock()

	return file, nil
}

func (t *tempFile) remove() error {
	t.once.Do(func() {
		tempFilesMu.Lock()
		delete(tempFiles, t)
		tempFilesMu.Unlock()

		if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
			t.err = fmt.Errorf("%w: %s", status.ErrTempFile, err)
		}
	})

	return t.err
}

// CleanupTempFiles removes all the body files that haven't been closed yet. It's meant to be
// called on process shutdown.
func CleanupTempFiles() {
	tempFilesMu.Lock()
	pending := make([]*tempFile, 0, len(tempFiles))
	for file := range tempFiles {
		pending = append(pending, file)
	}
	tempFilesMu.Unlock()

	for _, file := range pending {
		if err := file.remove(); err != nil {
			logger.Printf("h1codec: cleanup: %s", err)
		}
	}
}
