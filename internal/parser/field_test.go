package parser

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/yamaru/paradox-db-tool/internal/reader"
	"github.com/yamaru/paradox-db-tool/internal/types"
	"github.com/yamaru/paradox-db-tool/test/fixtures"
)

// recordingSink collects warnings for assertions
type recordingSink struct {
	warnings []types.Warning
}

func (s *recordingSink) Warn(w types.Warning) {
	s.warnings = append(s.warnings, w)
}

// cannedResolver serves a fixed payload or error for every reference
type cannedResolver struct {
	payload []byte
	err     error
}

func (r *cannedResolver) Resolve(ref types.BlobRef) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.payload, nil
}

func newDecoder(label string, blobs BlobResolver) (*FieldDecoder, *recordingSink) {
	sink := &recordingSink{}
	return NewFieldDecoder(label, blobs, sink), sink
}

func decode(t *testing.T, d *FieldDecoder, cell []byte, ft types.FieldType) types.Value {
	t.Helper()
	v, err := d.Decode(cell, types.FieldDesc{Name: "f", Type: ft, Size: uint16(len(cell))})
	require.NoError(t, err)
	return v
}

func TestDecodeAlpha(t *testing.T) {
	d, _ := newDecoder("CP1252", nil)

	v := decode(t, d, fixtures.CellAlpha("Bolivia", 24), types.FieldAlpha)
	assert.Equal(t, types.TextValue("Bolivia"), v)

	assert.True(t, decode(t, d, fixtures.CellNull(24), types.FieldAlpha).IsNull())

	umlaut := decode(t, d, fixtures.CellAlphaBytes(
		fixtures.EncodeCP("Währung", charmap.Windows1252), 24), types.FieldAlpha)
	assert.Equal(t, "Währung", umlaut.Str)
}

func TestDecodeIntegers(t *testing.T) {
	d, _ := newDecoder("", nil)

	assert.Equal(t, int64(12), decode(t, d, fixtures.CellShort(12), types.FieldShort).Int)
	assert.Equal(t, int64(-42), decode(t, d, fixtures.CellShort(-42), types.FieldShort).Int)
	assert.Equal(t, int64(0), decode(t, d, fixtures.CellShort(0), types.FieldShort).Int)
	assert.True(t, decode(t, d, fixtures.CellNull(2), types.FieldShort).IsNull())

	assert.Equal(t, int64(123456), decode(t, d, fixtures.CellLong(123456), types.FieldLong).Int)
	assert.Equal(t, int64(-70000), decode(t, d, fixtures.CellLong(-70000), types.FieldLong).Int)
	assert.True(t, decode(t, d, fixtures.CellNull(4), types.FieldLong).IsNull())

	assert.Equal(t, int64(7), decode(t, d, fixtures.CellLong(7), types.FieldAutoInc).Int)
}

func TestDecodeDate(t *testing.T) {
	d, _ := newDecoder("", nil)

	day := time.Date(1995, 7, 26, 0, 0, 0, 0, time.UTC)
	v := decode(t, d, fixtures.CellDate(day), types.FieldDate)
	require.Equal(t, types.KindDate, v.Kind)
	assert.Equal(t, day.Unix()/86400, v.Int)
	assert.Equal(t, day, v.Date())

	t.Run("sanity bounds", func(t *testing.T) {
		assert.True(t, decode(t, d, fixtures.CellRawDate(5_000_000), types.FieldDate).IsNull())
		assert.True(t, decode(t, d, fixtures.CellRawDate(0), types.FieldDate).IsNull())
		assert.True(t, decode(t, d, fixtures.CellRawDate(-5), types.FieldDate).IsNull())
		assert.True(t, decode(t, d, fixtures.CellNull(4), types.FieldDate).IsNull())
	})
}

func TestDecodeTime(t *testing.T) {
	d, _ := newDecoder("", nil)

	v := decode(t, d, fixtures.CellTime(12, 30, 45, 500), types.FieldTime)
	require.Equal(t, types.KindTime, v.Kind)
	assert.Equal(t, 45045.5, v.Float)
	assert.Equal(t, "12:30:45.500", v.String())

	assert.Equal(t, 0.0, decode(t, d, fixtures.CellTime(0, 0, 0, 0), types.FieldTime).Float)
	assert.True(t, decode(t, d, fixtures.CellNull(4), types.FieldTime).IsNull())
}

func TestDecodeNumber(t *testing.T) {
	d, _ := newDecoder("", nil)

	assert.Equal(t, 3.14159, decode(t, d, fixtures.CellNumber(3.14159), types.FieldNumber).Float)
	assert.Equal(t, -273.15, decode(t, d, fixtures.CellNumber(-273.15), types.FieldNumber).Float)
	assert.Equal(t, 19.99, decode(t, d, fixtures.CellNumber(19.99), types.FieldCurrency).Float)

	t.Run("zero is a live value", func(t *testing.T) {
		v := decode(t, d, fixtures.CellNumber(0), types.FieldNumber)
		assert.False(t, v.IsNull())
		assert.Equal(t, 0.0, v.Float)
	})

	assert.True(t, decode(t, d, fixtures.CellNull(8), types.FieldNumber).IsNull())
}

func TestDecodeTimestamp(t *testing.T) {
	d, _ := newDecoder("", nil)

	at := time.Date(1995, 7, 26, 12, 30, 45, 0, time.UTC)
	v := decode(t, d, fixtures.CellTimestamp(at), types.FieldTimestamp)
	require.Equal(t, types.KindTimestamp, v.Kind)
	assert.InDelta(t, float64(at.Unix()), v.Float, 1e-3)
	assert.Equal(t, "1995-07-26 12:30:45", v.String())

	assert.True(t, decode(t, d, fixtures.CellNull(8), types.FieldTimestamp).IsNull())
}

func TestDecodeLogical(t *testing.T) {
	d, _ := newDecoder("", nil)

	assert.Equal(t, types.BoolValue(true), decode(t, d, fixtures.CellLogical(true), types.FieldLogical))
	assert.Equal(t, types.BoolValue(false), decode(t, d, fixtures.CellLogical(false), types.FieldLogical))
	assert.True(t, decode(t, d, fixtures.CellNull(1), types.FieldLogical).IsNull())
}

func TestDecodeBCD(t *testing.T) {
	d, _ := newDecoder("", nil)

	assert.Equal(t, "12345.678901",
		decode(t, d, fixtures.CellBCD("12345.678901", 6), types.FieldBcd).Str)
	assert.Equal(t, "-99.500000",
		decode(t, d, fixtures.CellBCD("-99.500000", 6), types.FieldBcd).Str)
	assert.Equal(t, "42", decode(t, d, fixtures.CellBCD("42", 0), types.FieldBcd).Str)

	t.Run("corruption sentinel decodes to null", func(t *testing.T) {
		assert.True(t, decode(t, d, fixtures.CellBCDSentinel(6), types.FieldBcd).IsNull())
	})
	assert.True(t, decode(t, d, fixtures.CellNull(17), types.FieldBcd).IsNull())
}

func TestDecodeBytes(t *testing.T) {
	d, _ := newDecoder("", nil)

	v := decode(t, d, fixtures.CellBytes([]byte{1, 2, 3}, 10), types.FieldBytes)
	require.Equal(t, types.KindBytes, v.Kind)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0, 0, 0}, v.Bytes)
}

func TestDecodeUnknownType(t *testing.T) {
	d, sink := newDecoder("", nil)

	v := decode(t, d, []byte{1, 2, 3, 4}, types.FieldType(0x55))
	assert.True(t, v.IsNull())
	require.Len(t, sink.warnings, 1)
	assert.Equal(t, types.WarnUnknownField, sink.warnings[0].Kind)

	// Repeated cells of the same type warn only once.
	decode(t, d, []byte{1, 2, 3, 4}, types.FieldType(0x55))
	assert.Len(t, sink.warnings, 1)
}

func TestDecodeBlobInline(t *testing.T) {
	d, sink := newDecoder("", nil)

	cell := fixtures.CellBlobInline([]byte("hi"), 20, 3)
	v := decode(t, d, cell, types.FieldMemoBlob)
	assert.Equal(t, "hi", v.Str)
	assert.Empty(t, sink.warnings)
}

func TestDecodeBlobZeroLength(t *testing.T) {
	d, _ := newDecoder("", nil)

	assert.True(t, decode(t, d, fixtures.CellBlobInline(nil, 11, 0), types.FieldMemoBlob).IsNull())
	assert.True(t, decode(t, d, fixtures.CellBlobInline(nil, 10, 0), types.FieldGraphic).IsNull())
}

func TestDecodeBlobMissingFile(t *testing.T) {
	d, sink := newDecoder("", nil)
	desc := fixtures.BlobDesc{Offset: 4096, Length: 100, Modifier: 1}

	v := decode(t, d, fixtures.CellBlobExternal(desc, 11), types.FieldMemoBlob)
	assert.True(t, v.IsNull())
	require.Len(t, sink.warnings, 1)
	assert.Equal(t, types.WarnMissingBlob, sink.warnings[0].Kind)

	// The warning is raised once per document, not per cell.
	decode(t, d, fixtures.CellBlobExternal(desc, 11), types.FieldMemoBlob)
	assert.Len(t, sink.warnings, 1)
}

func TestDecodeBlobExternal(t *testing.T) {
	payload := []byte("external payload")
	d, sink := newDecoder("", &cannedResolver{payload: payload})
	desc := fixtures.BlobDesc{Offset: 4096, Length: uint32(len(payload)), Modifier: 1}

	memo := decode(t, d, fixtures.CellBlobExternal(desc, 11), types.FieldMemoBlob)
	assert.Equal(t, string(payload), memo.Str)

	bin := decode(t, d, fixtures.CellBlobExternal(desc, 10), types.FieldGraphic)
	assert.Equal(t, payload, bin.Bytes)
	assert.Empty(t, sink.warnings)
}

func TestDecodeBlobMismatchWarns(t *testing.T) {
	mismatch := errors.Mark(errors.New("modifier 2 does not match cell modifier 1"), reader.ErrBlobMismatch)
	d, sink := newDecoder("", &cannedResolver{err: mismatch})
	desc := fixtures.BlobDesc{Offset: 4096, Length: 100, Modifier: 1}

	v := decode(t, d, fixtures.CellBlobExternal(desc, 10), types.FieldBinary)
	assert.True(t, v.IsNull())
	require.Len(t, sink.warnings, 1)
	assert.Equal(t, types.WarnBlobMismatch, sink.warnings[0].Kind)
}

func TestDecodeBlobIOErrorPropagates(t *testing.T) {
	d, _ := newDecoder("", &cannedResolver{err: errors.New("disk gone")})
	desc := fixtures.BlobDesc{Offset: 4096, Length: 100, Modifier: 1}

	_, err := d.Decode(fixtures.CellBlobExternal(desc, 10),
		types.FieldDesc{Name: "f", Type: types.FieldBinary, Size: 10})
	require.Error(t, err)
}
