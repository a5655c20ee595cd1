package fixtures

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yamaru/paradox-db-tool/internal/types"
)

// CellNull returns an all-zero cell, the Null encoding for every type.
func CellNull(size int) []byte {
	return make([]byte, size)
}

// CellAlpha encodes a text cell: bytes right-padded with NULs.
func CellAlpha(s string, size int) []byte {
	return CellAlphaBytes([]byte(s), size)
}

// CellAlphaBytes encodes a text cell from raw codepage bytes.
func CellAlphaBytes(raw []byte, size int) []byte {
	if len(raw) > size {
		panic(fmt.Sprintf("fixtures: alpha value %d bytes exceeds cell size %d", len(raw), size))
	}
	cell := make([]byte, size)
	copy(cell, raw)
	return cell
}

// CellShort encodes a 16-bit integer with the offset-binary transform.
func CellShort(v int16) []byte {
	cell := make([]byte, 2)
	binary.BigEndian.PutUint16(cell, uint16(v)^0x8000)
	return cell
}

// CellLong encodes a 32-bit integer with the offset-binary transform.
func CellLong(v int32) []byte {
	cell := make([]byte, 4)
	binary.BigEndian.PutUint32(cell, uint32(v)^0x80000000)
	return cell
}

// CellDate encodes a calendar date as days since 0001-01-01.
func CellDate(t time.Time) []byte {
	days := int32(t.Unix()/86400) + types.EpochShiftDays
	return CellLong(days)
}

// CellRawDate encodes a raw day count, for sanity-bound tests.
func CellRawDate(days int32) []byte {
	return CellLong(days)
}

// CellTime encodes a time of day as milliseconds since midnight.
func CellTime(hour, min, sec, ms int) []byte {
	total := ((hour*60+min)*60+sec)*1000 + ms
	return CellLong(int32(total))
}

// CellNumber encodes an 8-byte double with the sign-bit protocol: the
// stored sign bit is set for positive values; negative values are
// written fully inverted.
func CellNumber(v float64) []byte {
	cell := make([]byte, 8)
	binary.BigEndian.PutUint64(cell, math.Float64bits(v))
	if cell[0]&0x80 == 0 {
		cell[0] |= 0x80
	} else {
		for i := range cell {
			cell[i] = ^cell[i]
		}
	}
	return cell
}

// CellTimestamp encodes an instant as milliseconds since 0001-01-01.
func CellTimestamp(t time.Time) []byte {
	ms := (float64(t.Unix()) + float64(t.Nanosecond())/1e9 + types.EpochShiftDays*86400) * 1000
	return CellNumber(ms)
}

// CellLogical encodes a boolean; the MSB is the non-null marker.
func CellLogical(v bool) []byte {
	if v {
		return []byte{0x81}
	}
	return []byte{0x80}
}

// CellBytes encodes a raw byte cell, right-padded with NULs.
func CellBytes(raw []byte, size int) []byte {
	cell := make([]byte, size)
	copy(cell, raw)
	return cell
}

// CellBCD encodes a decimal string like "-123.45" into a 17-byte packed
// BCD cell with prec fractional digits.
func CellBCD(text string, prec int) []byte {
	neg := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")
	intPart, fracPart := text, ""
	if i := strings.IndexByte(text, '.'); i >= 0 {
		intPart, fracPart = text[:i], text[i+1:]
	}
	if len(fracPart) > prec {
		panic("fixtures: more fractional digits than precision")
	}
	digits := strings.Repeat("0", 32-prec-len(intPart)) + intPart +
		fracPart + strings.Repeat("0", prec-len(fracPart))

	cell := make([]byte, 17)
	cell[0] = 0x80 | byte(prec)
	for i := 0; i < 32; i += 2 {
		cell[1+i/2] = (digits[i]-'0')<<4 | (digits[i+1] - '0')
	}
	if neg {
		for i := range cell {
			cell[i] = ^cell[i]
		}
	}
	return cell
}

// CellBCDSentinel encodes the all-invalid-digit corruption sentinel.
func CellBCDSentinel(prec int) []byte {
	cell := make([]byte, 17)
	cell[0] = 0x80 | byte(prec)
	for i := 1; i < 17; i++ {
		cell[i] = 0xFF
	}
	for i := range cell {
		cell[i] = ^cell[i]
	}
	return cell
}

// CellBlobInline encodes a blob cell whose payload fits the inline
// tail: tail bytes, then offset descriptor (0), length, modifier.
func CellBlobInline(payload []byte, cellSize int, modifier uint16) []byte {
	tail := cellSize - 10
	if len(payload) > tail {
		panic(fmt.Sprintf("fixtures: inline payload %d bytes exceeds tail %d", len(payload), tail))
	}
	cell := make([]byte, cellSize)
	copy(cell, payload)
	binary.LittleEndian.PutUint32(cell[tail+4:], uint32(len(payload)))
	binary.LittleEndian.PutUint16(cell[tail+8:], modifier)
	return cell
}

// CellBlobExternal encodes a blob cell referencing the .MB file with
// the descriptor returned by an MBBuilder.
func CellBlobExternal(desc BlobDesc, cellSize int) []byte {
	cell := make([]byte, cellSize)
	tail := cellSize - 10
	binary.LittleEndian.PutUint32(cell[tail:], desc.Offset)
	binary.LittleEndian.PutUint32(cell[tail+4:], desc.Length)
	binary.LittleEndian.PutUint16(cell[tail+8:], desc.Modifier)
	return cell
}
