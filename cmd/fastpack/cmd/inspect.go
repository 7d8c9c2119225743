package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zoobzio/fastpack/wire"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Dump the tag structure of fastpack bytes",
		Long: `Print one line per encoded value with its byte offset, tag and payload.
Containers indent their children. Concatenated values are dumped in order.

Example:
  fastpack inspect ana.fp
  0000  map count=3
  0002    string "name"
  ...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			maxDepth, _ := cmd.Flags().GetInt("max-depth")
			return inspect(cmd.OutOrStdout(), input, maxDepth)
		},
	}
	return cmd
}

// inspect writes a structural dump of every value in data.
func inspect(w io.Writer, data []byte, maxDepth int) error {
	d := &dumper{w: w, src: wire.NewBuffer(data), maxDepth: maxDepth}
	for d.src.Remaining() > 0 {
		if err := d.value(0, ""); err != nil {
			return fmt.Errorf("offset %d: %w", d.src.Offset(), err)
		}
	}
	return nil
}

type dumper struct {
	w        io.Writer
	src      *wire.Buffer
	maxDepth int
}

func (d *dumper) line(off, depth int, label, text string) {
	fmt.Fprintf(d.w, "%04x  %s%s%s\n", off, strings.Repeat("  ", depth), label, text)
}

func (d *dumper) value(depth int, label string) error {
	off := d.src.Offset()
	b, err := d.src.ReadByte()
	if err != nil {
		return err
	}
	tag := wire.Tag(b)
	if !wire.IsValid(tag) {
		return fmt.Errorf("%w: 0x%02x", wire.ErrMalformedTag, b)
	}
	// Same accounting as the decoder: only containers open a level.
	if wire.IsContainer(tag) && d.maxDepth > 0 && depth >= d.maxDepth {
		return fmt.Errorf("%w: %s at depth %d", wire.ErrDepthExceeded, tag, depth+1)
	}

	switch tag {
	case wire.Null, wire.False, wire.True:
		d.line(off, depth, label, tag.String())
	case wire.Int:
		n, wide, err := wire.ReadVarint(d.src)
		if err != nil {
			return err
		}
		text := strconv.FormatInt(n, 10)
		if wide != nil {
			text = wide.String()
		}
		d.line(off, depth, label, "int "+text)
	case wire.Float:
		f, err := wire.ReadFloat64(d.src)
		if err != nil {
			return err
		}
		d.line(off, depth, label, "float "+strconv.FormatFloat(f, 'g', -1, 64))
	case wire.String:
		s, err := wire.ReadString(d.src)
		if err != nil {
			return err
		}
		d.line(off, depth, label, "string "+strconv.Quote(s))
	case wire.Bytes:
		n, err := wire.ReadLength(d.src)
		if err != nil {
			return err
		}
		raw, err := d.src.Next(n)
		if err != nil {
			return err
		}
		d.line(off, depth, label, fmt.Sprintf("bytes len=%d %s", n, preview(raw)))
	case wire.Decimal:
		s, err := wire.ReadString(d.src)
		if err != nil {
			return err
		}
		d.line(off, depth, label, "decimal "+s)
	case wire.UUID:
		raw, err := d.src.Next(16)
		if err != nil {
			return err
		}
		id, _ := uuid.FromBytes(raw)
		d.line(off, depth, label, "uuid "+id.String())
	case wire.Timestamp:
		micros, offset, err := wire.ReadTimestamp(d.src)
		if err != nil {
			return err
		}
		ts := time.UnixMicro(micros).UTC()
		d.line(off, depth, label, fmt.Sprintf("timestamp %s offset=%+dm", ts.Format(time.RFC3339Nano), offset))
	case wire.List, wire.Set, wire.FrozenSet, wire.Tuple:
		n, err := wire.ReadUvarint(d.src)
		if err != nil {
			return err
		}
		d.line(off, depth, label, fmt.Sprintf("%s count=%d", tag, n))
		for i := uint64(0); i < n; i++ {
			if err := d.value(depth+1, ""); err != nil {
				return err
			}
		}
	case wire.Map:
		n, err := wire.ReadUvarint(d.src)
		if err != nil {
			return err
		}
		d.line(off, depth, label, fmt.Sprintf("map count=%d", n))
		for i := uint64(0); i < n; i++ {
			if err := d.value(depth+1, "key: "); err != nil {
				return err
			}
			if err := d.value(depth+1, "val: "); err != nil {
				return err
			}
		}
	case wire.Record:
		ns, err := wire.ReadString(d.src)
		if err != nil {
			return err
		}
		name, err := wire.ReadString(d.src)
		if err != nil {
			return err
		}
		n, err := wire.ReadUvarint(d.src)
		if err != nil {
			return err
		}
		d.line(off, depth, label, fmt.Sprintf("record %s.%s fields=%d", ns, name, n))
		for i := uint64(0); i < n; i++ {
			if err := d.value(depth+1, "field: "); err != nil {
				return err
			}
			if err := d.value(depth+1, "val: "); err != nil {
				return err
			}
		}
	}
	return nil
}

// preview renders up to 16 bytes as hex.
func preview(b []byte) string {
	if len(b) > 16 {
		return hex.EncodeToString(b[:16]) + "..."
	}
	return hex.EncodeToString(b)
}
