package wire

import (
	"encoding/binary"
	"math"
	"math/big"
)

// MaxVarintLen64 is the longest encoding of a 64-bit varint.
const MaxVarintLen64 = binary.MaxVarintLen64

var (
	bigOne   = big.NewInt(1)
	bigLow7  = big.NewInt(0x7f)
	minInt64 = big.NewInt(math.MinInt64)
	maxInt64 = big.NewInt(math.MaxInt64)
)

// Zigzag maps a signed integer onto an unsigned one so that small negative
// numbers stay small: 0, -1, 1, -2 become 0, 1, 2, 3.
func Zigzag(n int64) uint64 {
	return uint64(n<<1) ^ uint64(n>>63)
}

// Unzigzag reverses Zigzag.
func Unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// AppendUvarint appends the base-128 encoding of u.
func AppendUvarint(buf []byte, u uint64) []byte {
	return binary.AppendUvarint(buf, u)
}

// AppendVarint appends the zig-zag base-128 encoding of n.
func AppendVarint(buf []byte, n int64) []byte {
	return binary.AppendUvarint(buf, Zigzag(n))
}

// AppendBigVarint appends the zig-zag base-128 encoding of an integer of any
// size. Values inside the int64 range produce the same bytes as AppendVarint.
func AppendBigVarint(buf []byte, n *big.Int) []byte {
	if n.IsInt64() {
		return AppendVarint(buf, n.Int64())
	}

	u := new(big.Int).Lsh(n, 1)
	if n.Sign() < 0 {
		u.Neg(u)
		u.Sub(u, bigOne)
	}

	low := new(big.Int)
	for u.BitLen() > 7 {
		low.And(u, bigLow7)
		buf = append(buf, byte(low.Uint64())|0x80)
		u.Rsh(u, 7)
	}
	return append(buf, byte(u.Uint64()))
}

// AppendFloat64 appends f as 8 little-endian bytes.
func AppendFloat64(buf []byte, f float64) []byte {
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
}

// AppendString appends a uvarint length followed by the bytes of s.
func AppendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// AppendBytes appends a uvarint length followed by b.
func AppendBytes(buf []byte, b []byte) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(b)))
	return append(buf, b...)
}

// AppendTimestamp appends microseconds since the epoch as a little-endian
// int64 followed by the zig-zag encoded UTC offset in minutes.
func AppendTimestamp(buf []byte, micros int64, offsetMinutes int64) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(micros))
	return AppendVarint(buf, offsetMinutes)
}

// ReadUvarint reads a base-128 unsigned integer that must fit in 64 bits.
func ReadUvarint(s Source) (uint64, error) {
	var x uint64
	var shift uint
	for i := 0; ; i++ {
		c, err := s.ReadByte()
		if err != nil {
			return 0, err
		}
		// The tenth byte may only carry the top bit of a uint64.
		if i == MaxVarintLen64-1 && c > 1 {
			return 0, ErrInvalidPayload
		}
		if c < 0x80 {
			return x | uint64(c)<<shift, nil
		}
		x |= uint64(c&0x7f) << shift
		shift += 7
	}
}

// ReadVarint reads a zig-zag integer of any size. When the value fits in an
// int64 the returned *big.Int is nil.
func ReadVarint(s Source) (int64, *big.Int, error) {
	var groups []byte
	for {
		c, err := s.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		groups = append(groups, c&0x7f)
		if c < 0x80 {
			break
		}
	}

	if len(groups) < MaxVarintLen64 || (len(groups) == MaxVarintLen64 && groups[len(groups)-1] <= 1) {
		var u uint64
		for i := len(groups) - 1; i >= 0; i-- {
			u = u<<7 | uint64(groups[i])
		}
		return Unzigzag(u), nil, nil
	}

	u := new(big.Int)
	for i := len(groups) - 1; i >= 0; i-- {
		u.Lsh(u, 7)
		u.Or(u, big.NewInt(int64(groups[i])))
	}

	odd := u.Bit(0) == 1
	n := u.Rsh(u, 1)
	if odd {
		n.Add(n, bigOne)
		n.Neg(n)
	}
	if n.Cmp(minInt64) >= 0 && n.Cmp(maxInt64) <= 0 {
		return n.Int64(), nil, nil
	}
	return 0, n, nil
}

// ReadLength reads a uvarint length and checks it against the bytes known to
// remain in s, so a hostile length fails before anything is allocated.
func ReadLength(s Source) (int, error) {
	n, err := ReadUvarint(s)
	if err != nil {
		return 0, err
	}
	if rem := s.Remaining(); rem >= 0 && n > uint64(rem) {
		return 0, ErrTruncated
	}
	if n > math.MaxInt32 {
		return 0, ErrTruncated
	}
	return int(n), nil
}

// ReadString reads a length-prefixed string.
func ReadString(s Source) (string, error) {
	n, err := ReadLength(s)
	if err != nil {
		return "", err
	}
	b, err := s.Next(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadFloat64 reads 8 little-endian bytes as an IEEE-754 double.
func ReadFloat64(s Source) (float64, error) {
	b, err := s.Next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadTimestamp reads the timestamp payload.
func ReadTimestamp(s Source) (micros int64, offsetMinutes int64, err error) {
	b, err := s.Next(8)
	if err != nil {
		return 0, 0, err
	}
	micros = int64(binary.LittleEndian.Uint64(b))
	offsetMinutes, wide, err := ReadVarint(s)
	if err != nil {
		return 0, 0, err
	}
	if wide != nil {
		return 0, 0, ErrInvalidPayload
	}
	return micros, offsetMinutes, nil
}
