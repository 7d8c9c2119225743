package fastpack

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
)

// plainReader hides any io.ByteReader implementation of the wrapped reader.
type plainReader struct {
	r io.Reader
}

func (p plainReader) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func TestUnpackFrom_StopsAtValueEnd(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	first := mustPack(t, p, MapOf("a", []any{1, 2}))
	second := mustPack(t, p, "next")

	for name, wrap := range map[string]func(io.Reader) io.Reader{
		"byte reader":  func(r io.Reader) io.Reader { return r },
		"plain reader": func(r io.Reader) io.Reader { return plainReader{r} },
	} {
		t.Run(name, func(t *testing.T) {
			src := bytes.NewReader(append(append([]byte{}, first...), second...))
			v, err := p.UnpackFrom(wrap(src))
			if err != nil {
				t.Fatalf("UnpackFrom() error: %v", err)
			}
			if !Equal(v, MapOf("a", []any{int64(1), int64(2)})) {
				t.Errorf("UnpackFrom() = %#v", v)
			}
			if src.Len() != len(second) {
				t.Errorf("reader has %d bytes left, want %d", src.Len(), len(second))
			}
		})
	}
}

func TestUnpackFrom_Truncated(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	data := mustPack(t, p, strings.Repeat("x", 100))
	_, err := p.UnpackFrom(bytes.NewReader(data[:50]))
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("UnpackFrom() error = %v, want ErrTruncated", err)
	}
	if _, err := p.UnpackFrom(bytes.NewReader(nil)); !errors.Is(err, ErrTruncated) {
		t.Errorf("UnpackFrom(empty) error = %v, want ErrTruncated", err)
	}
}

func TestUnpackFrom_SmallReadChunk(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()), WithLimits(Limits{ReadChunk: 3}))
	want := strings.Repeat("abcdefg", 20)
	v, err := p.UnpackFrom(plainReader{bytes.NewReader(mustPack(t, p, []any{want, []byte(want)}))})
	if err != nil {
		t.Fatalf("UnpackFrom() error: %v", err)
	}
	if !Equal(v, []any{want, []byte(want)}) {
		t.Errorf("UnpackFrom() = %#v", v)
	}
}

func TestPackTo(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	var buf bytes.Buffer
	if err := p.PackTo(&buf, Tuple{1, "a"}); err != nil {
		t.Fatalf("PackTo() error: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), mustPack(t, p, Tuple{1, "a"})) {
		t.Errorf("PackTo() wrote % x", buf.Bytes())
	}
	if err := p.PackTo(&buf, make(chan int)); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("PackTo(chan) error = %v, want ErrUnsupportedType", err)
	}
}

func TestPackManyUnpackMany(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	values := []any{int64(1), "two", nil, []any{true}, Tuple{3.5}}

	data, err := p.PackMany(values)
	if err != nil {
		t.Fatalf("PackMany() error: %v", err)
	}
	var concat []byte
	for _, v := range values {
		concat = append(concat, mustPack(t, p, v)...)
	}
	if !bytes.Equal(data, concat) {
		t.Errorf("PackMany() = % x, want % x", data, concat)
	}

	got, err := p.UnpackMany(data)
	if err != nil {
		t.Fatalf("UnpackMany() error: %v", err)
	}
	if !Equal(got, values) {
		t.Errorf("UnpackMany() = %#v, want %#v", got, values)
	}

	empty, err := p.UnpackMany(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("UnpackMany(nil) = %v, %v", empty, err)
	}
}

func TestPackMany_Error(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	data, err := p.PackMany([]any{1, make(chan int)})
	if !errors.Is(err, ErrUnsupportedType) || data != nil {
		t.Errorf("PackMany() = % x, %v", data, err)
	}
}

func TestUnpackMany_ErrorOffset(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	first := mustPack(t, p, "abc")
	data := append(append([]byte{}, first...), 0x07, 0x01, 0x55)

	_, err := p.UnpackMany(data)
	var de *DecodeError
	if !errors.As(err, &de) || !errors.Is(err, ErrMalformedTag) {
		t.Fatalf("UnpackMany() error = %v, want ErrMalformedTag", err)
	}
	if de.Offset != len(first)+2 {
		t.Errorf("offset = %d, want %d", de.Offset, len(first)+2)
	}
}

func TestIterUnpack_Restartable(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	data, _ := p.PackMany([]any{int64(1), int64(2), int64(3)})
	seq := p.IterUnpack(data)

	for round := 0; round < 2; round++ {
		var got []any
		for v, err := range seq {
			if err != nil {
				t.Fatalf("IterUnpack() error: %v", err)
			}
			got = append(got, v)
		}
		if !Equal(got, []any{int64(1), int64(2), int64(3)}) {
			t.Errorf("round %d: got %v", round, got)
		}
	}

	// Breaking out early stops decoding.
	count := 0
	for range seq {
		count++
		break
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestIterUnpack_Truncated(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	data, _ := p.PackMany([]any{"a", "bcd"})
	var values []any
	var last error
	for v, err := range p.IterUnpack(data[:len(data)-1]) {
		if err != nil {
			last = err
			break
		}
		values = append(values, v)
	}
	if len(values) != 1 || !errors.Is(last, ErrTruncated) {
		t.Errorf("values = %v, err = %v", values, last)
	}
}

func TestPackStreamUnpackStream(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	values := []any{int64(1), MapOf("k", "v"), NewSet("x"), nil}

	var buf bytes.Buffer
	if err := p.PackStream(context.Background(), &buf, slices.Values(values)); err != nil {
		t.Fatalf("PackStream() error: %v", err)
	}

	var got []any
	for v, err := range p.UnpackStream(context.Background(), plainReader{&buf}) {
		if err != nil {
			t.Fatalf("UnpackStream() error: %v", err)
		}
		got = append(got, v)
	}
	if !Equal(got, values) {
		t.Errorf("UnpackStream() = %#v, want %#v", got, values)
	}
}

func TestUnpackStream_TruncatedValue(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	data, _ := p.PackMany([]any{"ok", []any{1, 2, 3}})

	var errs []error
	count := 0
	for _, err := range p.UnpackStream(context.Background(), bytes.NewReader(data[:len(data)-1])) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		count++
	}
	if count != 1 || len(errs) != 1 || !errors.Is(errs[0], ErrTruncated) {
		t.Errorf("count = %d, errs = %v", count, errs)
	}
}

func TestStreams_ContextCancelled(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := p.PackStream(ctx, &buf, slices.Values([]any{1, 2})); !errors.Is(err, context.Canceled) {
		t.Errorf("PackStream() error = %v, want context.Canceled", err)
	}
	if buf.Len() != 0 {
		t.Errorf("PackStream() wrote %d bytes after cancel", buf.Len())
	}

	data, _ := p.PackMany([]any{1, 2})
	for _, err := range p.UnpackStream(ctx, bytes.NewReader(data)) {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("UnpackStream() error = %v, want context.Canceled", err)
		}
	}
}

func TestPackStream_StopsMidway(t *testing.T) {
	p := NewProcessor(WithRegistry(NewRegistry()))
	ctx, cancel := context.WithCancel(context.Background())
	seq := func(yield func(any) bool) {
		for i := 0; ; i++ {
			if i == 3 {
				cancel()
			}
			if !yield(i) {
				return
			}
		}
	}

	var buf bytes.Buffer
	err := p.PackStream(ctx, &buf, seq)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("PackStream() error = %v, want context.Canceled", err)
	}
	got, err := p.UnpackMany(buf.Bytes())
	if err != nil || len(got) != 3 {
		t.Errorf("written values = %v, %v, want 3", got, err)
	}
}
