package wire

// Source supplies bytes to a decoder. Implementations report ErrTruncated
// when fewer bytes are available than requested.
type Source interface {
	// ReadByte returns the next byte.
	ReadByte() (byte, error)

	// Next returns the next n bytes. The slice is only valid until the
	// following call and must be copied if retained.
	Next(n int) ([]byte, error)

	// Remaining reports how many bytes are known to remain, or -1 when the
	// source is a stream of unknown length.
	Remaining() int

	// Offset reports how many bytes have been consumed.
	Offset() int
}

// Buffer is a Source over an in-memory byte slice.
type Buffer struct {
	data []byte
	off  int
}

// NewBuffer returns a Buffer reading data from offset 0.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) ReadByte() (byte, error) {
	if b.off >= len(b.data) {
		return 0, ErrTruncated
	}
	c := b.data[b.off]
	b.off++
	return c, nil
}

func (b *Buffer) Next(n int) ([]byte, error) {
	if n < 0 || n > len(b.data)-b.off {
		return nil, ErrTruncated
	}
	out := b.data[b.off : b.off+n]
	b.off += n
	return out, nil
}

func (b *Buffer) Remaining() int {
	return len(b.data) - b.off
}

func (b *Buffer) Offset() int {
	return b.off
}
