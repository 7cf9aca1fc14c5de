package buffer

// Buffer accumulates bytes of a single message as they arrive, refusing to grow past the
// limit. The limit can be moved, e.g. once the message head is parsed and the body length
// becomes known.
type Buffer struct {
	memory  []byte
	maxSize int
}

func New(initialSize, maxSize int) Buffer {
	return Buffer{
		memory:  make([]byte, 0, min(initialSize, maxSize)),
		maxSize: maxSize,
	}
}

// Append writes data, checking whether the new amount of elements (bytes) doesn't exceed the
// limit, otherwise discarding the data and returning false.
func (b *Buffer) Append(elements []byte) (ok bool) {
	if len(b.memory)+len(elements) > b.maxSize {
		return false
	}

	b.memory = append(b.memory, elements...)
	return true
}

// Limit sets a new maximal size. Already stored bytes are kept even if they overflow it.
func (b *Buffer) Limit(maxSize int) {
	b.maxSize = maxSize
}

// Len returns the number of stored bytes.
func (b *Buffer) Len() int {
	return len(b.memory)
}

// Preview returns the stored bytes without copying. The slice is valid until the next
// mutating call.
func (b *Buffer) Preview() []byte {
	return b.memory
}

// Split returns a copy of the first n bytes and a copy of the rest, clearing the buffer.
func (b *Buffer) Split(n int) (head, rest []byte) {
	n = min(n, len(b.memory))
	head = append([]byte(nil), b.memory[:n]...)
	if n < len(b.memory) {
		rest = append([]byte(nil), b.memory[n:]...)
	}

	b.Clear()
	return head, rest
}

// Clear just resets the pointers, so old values may be overridden by new ones.
func (b *Buffer) Clear() {
	b.memory = b.memory[:0]
}
