package wire

import (
	"bytes"
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestZigzag(t *testing.T) {
	tests := []struct {
		in   int64
		want uint64
	}{
		{0, 0},
		{-1, 1},
		{1, 2},
		{-2, 3},
		{2, 4},
		{math.MaxInt64, math.MaxUint64 - 1},
		{math.MinInt64, math.MaxUint64},
	}
	for _, tt := range tests {
		if got := Zigzag(tt.in); got != tt.want {
			t.Errorf("Zigzag(%d) = %d, want %d", tt.in, got, tt.want)
		}
		if got := Unzigzag(tt.want); got != tt.in {
			t.Errorf("Unzigzag(%d) = %d, want %d", tt.want, got, tt.in)
		}
	}
}

func TestAppendVarint_Bytes(t *testing.T) {
	tests := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x01}},
		{30, []byte{0x3c}},
		{63, []byte{0x7e}},
		{-64, []byte{0x7f}},
		{64, []byte{0x80, 0x01}},
		{300, []byte{0xd8, 0x04}},
	}
	for _, tt := range tests {
		if got := AppendVarint(nil, tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("AppendVarint(%d) = % x, want % x", tt.in, got, tt.want)
		}
	}
}

func TestReadVarint_RoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 127, -128, 1 << 40, math.MaxInt64, math.MinInt64} {
		got, wide, err := ReadVarint(NewBuffer(AppendVarint(nil, n)))
		if err != nil {
			t.Fatalf("ReadVarint(%d) error: %v", n, err)
		}
		if wide != nil || got != n {
			t.Errorf("ReadVarint() = %d, %v, want %d", got, wide, n)
		}
	}
}

func TestBigVarint_RoundTrip(t *testing.T) {
	two128 := new(big.Int).Lsh(big.NewInt(1), 128)
	tests := []*big.Int{
		new(big.Int).Add(big.NewInt(math.MaxInt64), big.NewInt(1)),
		new(big.Int).Sub(big.NewInt(math.MinInt64), big.NewInt(1)),
		new(big.Int).SetUint64(math.MaxUint64),
		two128,
		new(big.Int).Neg(two128),
	}
	for _, n := range tests {
		buf := AppendBigVarint(nil, n)
		_, wide, err := ReadVarint(NewBuffer(buf))
		if err != nil {
			t.Fatalf("ReadVarint(%s) error: %v", n, err)
		}
		if wide == nil || wide.Cmp(n) != 0 {
			t.Errorf("ReadVarint() = %v, want %s", wide, n)
		}
	}
}

func TestAppendBigVarint_MatchesNarrow(t *testing.T) {
	for _, n := range []int64{0, -1, 42, math.MaxInt64, math.MinInt64} {
		narrow := AppendVarint(nil, n)
		wide := AppendBigVarint(nil, big.NewInt(n))
		if !bytes.Equal(narrow, wide) {
			t.Errorf("AppendBigVarint(%d) = % x, want % x", n, wide, narrow)
		}
	}
}

func TestReadUvarint_Overflow(t *testing.T) {
	data := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}
	if _, err := ReadUvarint(NewBuffer(data)); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("ReadUvarint() error = %v, want ErrInvalidPayload", err)
	}
}

func TestReadUvarint_Truncated(t *testing.T) {
	if _, err := ReadUvarint(NewBuffer([]byte{0x80, 0x80})); !errors.Is(err, ErrTruncated) {
		t.Errorf("ReadUvarint() error = %v, want ErrTruncated", err)
	}
}

func TestReadLength_ExceedsRemaining(t *testing.T) {
	buf := NewBuffer(append(AppendUvarint(nil, 10), "short"...))
	if _, err := ReadLength(buf); !errors.Is(err, ErrTruncated) {
		t.Errorf("ReadLength() error = %v, want ErrTruncated", err)
	}
}

func TestString_RoundTrip(t *testing.T) {
	for _, s := range []string{"", "Ana", "ação", string(make([]byte, 300))} {
		got, err := ReadString(NewBuffer(AppendString(nil, s)))
		if err != nil {
			t.Fatalf("ReadString() error: %v", err)
		}
		if got != s {
			t.Errorf("ReadString() = %q, want %q", got, s)
		}
	}
}

func TestFloat64_LittleEndian(t *testing.T) {
	buf := AppendFloat64(nil, 1.0)
	want := []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}
	if !bytes.Equal(buf, want) {
		t.Errorf("AppendFloat64(1) = % x, want % x", buf, want)
	}
	f, err := ReadFloat64(NewBuffer(buf))
	if err != nil || f != 1.0 {
		t.Errorf("ReadFloat64() = %v, %v", f, err)
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	buf := AppendTimestamp(nil, -1_000_000, -180)
	micros, offset, err := ReadTimestamp(NewBuffer(buf))
	if err != nil {
		t.Fatalf("ReadTimestamp() error: %v", err)
	}
	if micros != -1_000_000 || offset != -180 {
		t.Errorf("ReadTimestamp() = %d, %d", micros, offset)
	}
	if _, _, err := ReadTimestamp(NewBuffer(buf[:5])); !errors.Is(err, ErrTruncated) {
		t.Errorf("ReadTimestamp() short error = %v, want ErrTruncated", err)
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer([]byte{1, 2, 3})
	if c, _ := b.ReadByte(); c != 1 {
		t.Errorf("ReadByte() = %d, want 1", c)
	}
	if b.Remaining() != 2 || b.Offset() != 1 {
		t.Errorf("Remaining/Offset = %d/%d", b.Remaining(), b.Offset())
	}
	if _, err := b.Next(3); !errors.Is(err, ErrTruncated) {
		t.Errorf("Next(3) error = %v, want ErrTruncated", err)
	}
	if got, _ := b.Next(2); !bytes.Equal(got, []byte{2, 3}) {
		t.Errorf("Next(2) = %v, want [2 3]", got)
	}
	if _, err := b.ReadByte(); !errors.Is(err, ErrTruncated) {
		t.Errorf("ReadByte() at end error = %v, want ErrTruncated", err)
	}
}
