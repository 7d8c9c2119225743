package fastpack

import (
	"bufio"
	"context"
	"errors"
	"io"
	"iter"
	"time"

	"github.com/zoobzio/fastpack/wire"
)

// readerSource adapts an io.Reader to wire.Source without reading past the
// end of the value being decoded. Single bytes come from io.ByteReader when
// the reader offers it; payloads are read in chunks of at most chunk bytes so
// a hostile length cannot force a large allocation up front.
type readerSource struct {
	r     io.Reader
	br    io.ByteReader
	chunk int
	off   int
	one   [1]byte
	buf   []byte
}

func newReaderSource(r io.Reader, chunk int) *readerSource {
	s := &readerSource{r: r, chunk: chunk}
	if br, ok := r.(io.ByteReader); ok {
		s.br = br
	}
	return s
}

func (s *readerSource) ReadByte() (byte, error) {
	if s.br != nil {
		c, err := s.br.ReadByte()
		if err != nil {
			return 0, streamError(err)
		}
		s.off++
		return c, nil
	}
	if _, err := io.ReadFull(s.r, s.one[:]); err != nil {
		return 0, streamError(err)
	}
	s.off++
	return s.one[0], nil
}

func (s *readerSource) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrTruncated
	}
	s.buf = s.buf[:0]
	for len(s.buf) < n {
		step := min(n-len(s.buf), s.chunk)
		start := len(s.buf)
		s.buf = append(s.buf, make([]byte, step)...)
		read, err := io.ReadFull(s.r, s.buf[start:])
		s.off += read
		if err != nil {
			return nil, streamError(err)
		}
	}
	return s.buf, nil
}

func (s *readerSource) Remaining() int {
	return -1
}

func (s *readerSource) Offset() int {
	return s.off
}

// streamError maps end-of-input inside a value to ErrTruncated.
func streamError(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

// PackTo encodes v and writes it to w.
func (p *Processor) PackTo(w io.Writer, v any) error {
	data, err := p.Pack(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// UnpackFrom reads exactly one value from r. Bytes after the value are left
// unread.
func (p *Processor) UnpackFrom(r io.Reader) (any, error) {
	start := time.Now()
	src := newReaderSource(r, p.limits.ReadChunk)
	v, err := newDecoder(src, p.registry, p.limits).value()
	emitUnpackComplete(context.Background(), src.Offset(), time.Since(start), err)
	return v, err
}

// PackStream encodes each value of values to w as it is produced. It stops
// at the first error; values already written stay written.
func (p *Processor) PackStream(ctx context.Context, w io.Writer, values iter.Seq[any]) error {
	start := time.Now()
	bw := bufio.NewWriter(w)
	count, size := 0, 0

	var buf []byte
	var err error
	for v := range values {
		if err = ctx.Err(); err != nil {
			break
		}
		if buf, err = p.appendValue(buf[:0], v); err != nil {
			break
		}
		if _, err = bw.Write(buf); err != nil {
			break
		}
		count++
		size += len(buf)
	}
	if flushErr := bw.Flush(); err == nil {
		err = flushErr
	}

	emitStreamComplete(ctx, "pack_stream", count, size, time.Since(start), err)
	return err
}

// UnpackStream decodes consecutive values from r. The sequence ends cleanly
// when r is exhausted between values; a value cut short yields ErrTruncated.
// It consumes r and cannot be restarted.
func (p *Processor) UnpackStream(ctx context.Context, r io.Reader) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		start := time.Now()
		src := newReaderSource(r, p.limits.ReadChunk)
		dec := newDecoder(src, p.registry, p.limits)
		count := 0

		var err error
		defer func() {
			emitStreamComplete(ctx, "unpack_stream", count, src.Offset(), time.Since(start), err)
		}()

		for {
			if err = ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			off := src.Offset()
			var c byte
			if src.br != nil {
				c, err = src.br.ReadByte()
			} else {
				_, err = io.ReadFull(r, src.one[:])
				c = src.one[0]
			}
			if errors.Is(err, io.EOF) {
				err = nil
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			src.off++

			var v any
			if v, err = dec.payload(wire.Tag(c), off); err != nil {
				yield(nil, err)
				return
			}
			count++
			if !yield(v, nil) {
				return
			}
		}
	}
}

// PackMany concatenates the encodings of values with no header.
func (p *Processor) PackMany(values []any) ([]byte, error) {
	start := time.Now()
	var buf []byte
	var err error
	for _, v := range values {
		if buf, err = p.appendValue(buf, v); err != nil {
			emitStreamComplete(context.Background(), "pack_many", 0, 0, time.Since(start), err)
			return nil, err
		}
	}
	emitStreamComplete(context.Background(), "pack_many", len(values), len(buf), time.Since(start), nil)
	return buf, nil
}

// UnpackMany decodes values from data until it is exhausted.
func (p *Processor) UnpackMany(data []byte) ([]any, error) {
	start := time.Now()
	var values []any
	off := 0
	for off < len(data) {
		v, n, err := p.decodeValue(data[off:])
		if err != nil {
			err = shiftOffset(err, off)
			emitStreamComplete(context.Background(), "unpack_many", len(values), off, time.Since(start), err)
			return nil, err
		}
		values = append(values, v)
		off += n
	}
	emitStreamComplete(context.Background(), "unpack_many", len(values), off, time.Since(start), nil)
	return values, nil
}

// IterUnpack lazily decodes values from data. Each range over the returned
// sequence starts again from the beginning of data.
func (p *Processor) IterUnpack(data []byte) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		off := 0
		for off < len(data) {
			v, n, err := p.decodeValue(data[off:])
			if err != nil {
				yield(nil, shiftOffset(err, off))
				return
			}
			off += n
			if !yield(v, nil) {
				return
			}
		}
	}
}

// shiftOffset rebases a DecodeError offset from a subslice onto the whole
// buffer.
func shiftOffset(err error, base int) error {
	var de *DecodeError
	if base != 0 && errors.As(err, &de) {
		de.Offset += base
	}
	return err
}
