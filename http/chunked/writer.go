package chunked

import (
	"io"
	"strconv"
)

const crlf = "\r\n"

var zeroChunk = []byte("0\r\n\r\n")

var _ io.WriteCloser = new(Writer)

// Writer frames everything written into it as chunks of at most Codec.BlockSize bytes.
// Every Write is flushed into the underlying writer immediately, so long-polling over a
// chunked stream works as expected. Close writes the terminal chunk, but doesn't close
// the underlying writer.
type Writer struct {
	dst    io.Writer
	codec  Codec
	buff   []byte
	index  int
	closed bool
}

func NewWriter(dst io.Writer, codec Codec) *Writer {
	return &Writer{
		dst:   dst,
		codec: codec,
	}
}

func (w *Writer) Write(p []byte) (n int, err error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}

	blockSize := w.codec.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	// empty chunk must never be written, as it terminates the stream
	for len(p) > 0 {
		block := p[:min(blockSize, len(p))]
		if err = w.writeChunk(block); err != nil {
			return n, err
		}

		n += len(block)
		p = p[len(block):]
	}

	return n, nil
}

func (w *Writer) writeChunk(block []byte) error {
	buff := strconv.AppendUint(w.buff[:0], uint64(len(block)), 16)
	if w.codec.Extensions != nil {
		for _, ext := range w.codec.Extensions(w.index, block) {
			buff = appendExtension(buff, ext)
		}
	}

	buff = append(buff, crlf...)
	buff = append(buff, block...)
	buff = append(buff, crlf...)
	w.buff = buff
	w.index++

	_, err := w.dst.Write(buff)
	return err
}

// Close writes the terminal zero-length chunk. Subsequent calls are no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true
	_, err := w.dst.Write(zeroChunk)
	return err
}
