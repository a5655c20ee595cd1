package parser

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/yamaru/paradox-db-tool/internal/codepage"
	"github.com/yamaru/paradox-db-tool/internal/reader"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

// Date cells count days since 0001-01-01. Values outside (0, maxDateDays]
// are sentinel or corrupt data and decode to Null.
const maxDateDays = 3_000_000

// FieldDecoder converts raw record cells into neutral values.
//
// Fixed-width numeric cells share a non-null protocol: the most
// significant bit of the first stored byte marks a live value and is
// cleared (integers) or drives a sign transform (doubles) before
// interpretation. An all-zero cell is Null for every type.
type FieldDecoder struct {
	cpLabel string
	blobs   BlobResolver
	sink    WarningSink

	blobWarned   bool
	unknownTypes map[types.FieldType]bool
}

// NewFieldDecoder creates a decoder for one table. blobs may be nil when
// no .MB file is attached; blob cells then decode to Null with a single
// MissingBlob warning.
func NewFieldDecoder(cpLabel string, blobs BlobResolver, sink WarningSink) *FieldDecoder {
	return &FieldDecoder{
		cpLabel:      cpLabel,
		blobs:        blobs,
		sink:         sink,
		unknownTypes: make(map[types.FieldType]bool),
	}
}

// Decode converts one cell into a Value. Blob resolution failures of the
// mismatch kind degrade to Null plus a warning; only I/O errors
// propagate.
func (d *FieldDecoder) Decode(cell []byte, f types.FieldDesc) (types.Value, error) {
	switch f.Type {
	case types.FieldAlpha:
		return d.decodeAlpha(cell), nil
	case types.FieldShort:
		return decodeShort(cell), nil
	case types.FieldLong, types.FieldAutoInc:
		return decodeLong(cell), nil
	case types.FieldDate:
		return decodeDate(cell), nil
	case types.FieldTime:
		return decodeTime(cell), nil
	case types.FieldNumber, types.FieldCurrency:
		return decodeDouble(cell), nil
	case types.FieldTimestamp:
		return decodeTimestamp(cell), nil
	case types.FieldLogical:
		return decodeLogical(cell), nil
	case types.FieldBcd:
		return d.decodeBcd(cell), nil
	case types.FieldBytes:
		return decodeBytes(cell), nil
	case types.FieldMemoBlob, types.FieldFmtMemo:
		return d.decodeBlob(cell, f, true)
	case types.FieldBinary, types.FieldOle, types.FieldGraphic:
		return d.decodeBlob(cell, f, false)
	default:
		if !d.unknownTypes[f.Type] {
			d.unknownTypes[f.Type] = true
			d.sink.Warn(types.Warning{
				Kind:    types.WarnUnknownField,
				Message: fmt.Sprintf("field %q has unknown type code 0x%02X, values read as null", f.Name, uint8(f.Type)),
			})
		}
		return types.Null(), nil
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// decodeAlpha strips the right NUL padding and recodes to UTF-8.
func (d *FieldDecoder) decodeAlpha(cell []byte) types.Value {
	if allZero(cell) {
		return types.Null()
	}
	trimmed := bytes.TrimRight(cell, "\x00")
	return types.TextValue(codepage.Decode(trimmed, d.cpLabel))
}

// decodeShort undoes the offset-binary transform: live values store the
// sign bit flipped, so 0x8000 is zero and 0x7FFF is -1.
func decodeShort(cell []byte) types.Value {
	if allZero(cell) {
		return types.Null()
	}
	raw := binary.BigEndian.Uint16(cell)
	return types.IntValue(int64(int16(raw ^ 0x8000)))
}

func decodeLong(cell []byte) types.Value {
	if allZero(cell) {
		return types.Null()
	}
	raw := binary.BigEndian.Uint32(cell)
	return types.IntValue(int64(int32(raw ^ 0x80000000)))
}

func decodeDate(cell []byte) types.Value {
	if allZero(cell) {
		return types.Null()
	}
	raw := int64(int32(binary.BigEndian.Uint32(cell) ^ 0x80000000))
	if raw <= 0 || raw > maxDateDays {
		return types.Null()
	}
	return types.DateValue(raw - types.EpochShiftDays)
}

func decodeTime(cell []byte) types.Value {
	if allZero(cell) {
		return types.Null()
	}
	ms := int64(int32(binary.BigEndian.Uint32(cell) ^ 0x80000000))
	if ms < 0 {
		return types.Null()
	}
	return types.TimeValue(float64(ms) / 1000.0)
}

// signBitDouble undoes the sign protocol of Number, Currency and
// Timestamp cells: a set sign bit means positive (clear it), a clear
// sign bit means negative (invert every bit).
func signBitDouble(cell []byte) float64 {
	var b [8]byte
	copy(b[:], cell)
	if b[0]&0x80 != 0 {
		b[0] &^= 0x80
	} else {
		for i := range b {
			b[i] = ^b[i]
		}
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:]))
}

func decodeDouble(cell []byte) types.Value {
	if allZero(cell) {
		return types.Null()
	}
	return types.FloatValue(signBitDouble(cell))
}

func decodeTimestamp(cell []byte) types.Value {
	if allZero(cell) {
		return types.Null()
	}
	ms := signBitDouble(cell)
	if ms <= 0 {
		return types.Null()
	}
	return types.TimestampValue(ms/1000.0 - types.EpochShiftDays*86400)
}

func decodeLogical(cell []byte) types.Value {
	if cell[0] == 0 {
		return types.Null()
	}
	return types.BoolValue(cell[0]&0x7F != 0)
}

func decodeBytes(cell []byte) types.Value {
	out := make([]byte, len(cell))
	copy(out, cell)
	return types.BytesValue(out)
}

// decodeBlob materializes a memo or binary blob cell, consulting the
// .MB resolver for payloads that do not fit the inline tail.
func (d *FieldDecoder) decodeBlob(cell []byte, f types.FieldDesc, text bool) (types.Value, error) {
	ref, ok := splitBlobCell(cell)
	if !ok || ref.Length == 0 {
		return types.Null(), nil
	}

	var payload []byte
	if ref.IsInline() {
		payload = append([]byte(nil), ref.Inline[:ref.Length]...)
	} else {
		if d.blobs == nil {
			if !d.blobWarned {
				d.blobWarned = true
				d.sink.Warn(types.Warning{
					Kind:    types.WarnMissingBlob,
					Message: "table declares blob fields but no .MB file was found, blob values read as null",
				})
			}
			return types.Null(), nil
		}
		var err error
		payload, err = d.blobs.Resolve(ref)
		if err != nil {
			if errors.Is(err, reader.ErrBlobMismatch) {
				d.sink.Warn(types.Warning{
					Kind:    types.WarnBlobMismatch,
					Message: fmt.Sprintf("field %q: %v", f.Name, err),
				})
				return types.Null(), nil
			}
			return types.Null(), err
		}
	}

	if text {
		return types.TextValue(codepage.Decode(payload, d.cpLabel)), nil
	}
	return types.BytesValue(payload), nil
}

// splitBlobCell splits a blob cell into its payload tail and the
// trailing 10-byte reference: offset descriptor (4), length (4),
// modifier (2).
func splitBlobCell(cell []byte) (types.BlobRef, bool) {
	if len(cell) < 10 {
		return types.BlobRef{}, false
	}
	tail := len(cell) - 10
	return types.BlobRef{
		Inline:   cell[:tail],
		Offset:   binary.LittleEndian.Uint32(cell[tail:]),
		Length:   binary.LittleEndian.Uint32(cell[tail+4:]),
		Modifier: binary.LittleEndian.Uint16(cell[tail+8:]),
	}, true
}
