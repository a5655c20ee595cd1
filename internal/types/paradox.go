package types

import (
	"fmt"
)

// FieldType represents the Paradox field type code from a field descriptor
type FieldType uint8

const (
	// Field type codes as stored in the .DB field descriptor table
	FieldAlpha     FieldType = 0x01
	FieldDate      FieldType = 0x02
	FieldShort     FieldType = 0x03
	FieldLong      FieldType = 0x04
	FieldCurrency  FieldType = 0x05
	FieldNumber    FieldType = 0x06
	FieldLogical   FieldType = 0x09
	FieldMemoBlob  FieldType = 0x0C
	FieldBinary    FieldType = 0x0D
	FieldFmtMemo   FieldType = 0x0E
	FieldOle       FieldType = 0x0F
	FieldGraphic   FieldType = 0x10
	FieldTime      FieldType = 0x14
	FieldTimestamp FieldType = 0x15
	FieldAutoInc   FieldType = 0x16
	FieldBcd       FieldType = 0x17
	FieldBytes     FieldType = 0x18
)

// FieldDesc describes one column of a Paradox table
type FieldDesc struct {
	Name string    // field name, recoded to UTF-8
	Type FieldType // type code from the descriptor table
	Size uint16    // declared byte length of the cell
}

// Schema is the ordered field descriptor sequence of a table.
// The sum of declared sizes equals the record byte width.
type Schema struct {
	Fields     []FieldDesc
	RecordSize uint16
}

// Header represents the fixed .DB file header
type Header struct {
	RecordSize     uint16 // offset 0x00: record byte width
	HeaderSize     uint16 // offset 0x02: header region size in bytes
	FileType       uint8  // offset 0x04: file kind (data, index, blob)
	MaxTableSize   uint8  // offset 0x05: block size selector, 1..32
	NumRecords     uint32 // offset 0x06: declared record count
	NextBlock      uint16 // offset 0x0A
	FileBlocks     uint16 // offset 0x0C: total blocks allocated
	FirstBlock     uint16 // offset 0x0E: head of the data block list
	LastBlock      uint16 // offset 0x10
	ModifyCount    uint16 // offset 0x14
	FileVersionID  uint8  // offset 0x21
	EncryptionWord uint32 // offset 0x22: 0 means not encrypted
	AutoIncFlag    uint8  // offset 0x2B
	IndexFields    uint8  // offset 0x2E
	HeaderVersion  uint16 // offset 0x30: >=4 extended layout, >=5 carries codepage
	FieldCount     uint8  // offset 0x38
	PrimaryKeys    uint8  // offset 0x39
	Codepage       uint16 // offset 0x3C: DOS codepage id, 0 means unknown
}

// File type codes stored at header offset 0x04
const (
	FileTypeData     = 0x00 // keyed data file
	FileTypeIndex    = 0x01 // primary index (.PX)
	FileTypeDataBlob = 0x02 // data file with companion blob file (.MB)
)

// BlockSize returns the data block size in bytes, 1024 x the selector.
func (h *Header) BlockSize() int {
	return 1024 * int(h.MaxTableSize)
}

// RecordsPerBlock returns how many record slots fit in one data block
// after the 6-byte block header.
func (h *Header) RecordsPerBlock() int {
	if h.RecordSize == 0 {
		return 0
	}
	return (h.BlockSize() - BlockHeaderSize) / int(h.RecordSize)
}

// Encrypted reports whether the file's data blocks are obfuscated.
func (h *Header) Encrypted() bool {
	return h.EncryptionWord != 0
}

// BlockHeaderSize is the fixed per-block header: next (2), prev (2),
// add-data-size (2).
const BlockHeaderSize = 6

// BlobRef is a blob field cell reference into the companion .MB file
type BlobRef struct {
	Offset   uint32 // offset descriptor; low byte selects the entry in a suballocated block
	Length   uint32 // declared payload length
	Modifier uint16 // identity check against the .MB entry
	Inline   []byte // payload tail carried in the .DB cell
}

// Index returns the entry index within a suballocated blob block.
func (r BlobRef) Index() int {
	return int(r.Offset & 0xFF)
}

// BlockOffset returns the byte offset of the referenced block in the .MB file.
func (r BlobRef) BlockOffset() int64 {
	return int64(r.Offset &^ 0xFF)
}

// IsInline reports whether the whole payload fits in the cell tail.
func (r BlobRef) IsInline() bool {
	return int(r.Length) <= len(r.Inline)
}

// String returns the string representation of FieldType
func (t FieldType) String() string {
	switch t {
	case FieldAlpha:
		return "Alpha"
	case FieldDate:
		return "Date"
	case FieldShort:
		return "Short"
	case FieldLong:
		return "Long"
	case FieldCurrency:
		return "Currency"
	case FieldNumber:
		return "Number"
	case FieldLogical:
		return "Logical"
	case FieldMemoBlob:
		return "Memo"
	case FieldBinary:
		return "Binary"
	case FieldFmtMemo:
		return "FmtMemo"
	case FieldOle:
		return "Ole"
	case FieldGraphic:
		return "Graphic"
	case FieldTime:
		return "Time"
	case FieldTimestamp:
		return "Timestamp"
	case FieldAutoInc:
		return "Autoincrement"
	case FieldBcd:
		return "BCD"
	case FieldBytes:
		return "Bytes"
	default:
		return fmt.Sprintf("TYPE_0x%02X", uint8(t))
	}
}

// IsBlob reports whether cells of this type reference the .MB file.
func (t FieldType) IsBlob() bool {
	switch t {
	case FieldMemoBlob, FieldFmtMemo, FieldBinary, FieldOle, FieldGraphic:
		return true
	}
	return false
}

// IsText reports whether values of this type are recoded through the
// table codepage.
func (t FieldType) IsText() bool {
	switch t {
	case FieldAlpha, FieldMemoBlob, FieldFmtMemo:
		return true
	}
	return false
}

// FixedSize returns the mandatory cell width for fixed-width types, or 0
// when the width comes from the field descriptor.
func (t FieldType) FixedSize() uint16 {
	switch t {
	case FieldShort:
		return 2
	case FieldLong, FieldAutoInc, FieldDate, FieldTime:
		return 4
	case FieldNumber, FieldCurrency, FieldTimestamp:
		return 8
	case FieldLogical:
		return 1
	case FieldBcd:
		return 17
	}
	return 0
}

// WarningKind categorizes non-fatal conditions attached to an open document
type WarningKind int

const (
	// WarnMissingBlob: blob fields present but no .MB file attached
	WarnMissingBlob WarningKind = iota
	// WarnBlobMismatch: a .MB entry did not match the cell reference
	WarnBlobMismatch
	// WarnRecordCountMismatch: iterated count differs from the header count
	WarnRecordCountMismatch
	// WarnUnknownField: unrecognized field type code, cells become Null
	WarnUnknownField
)

// Warning is a non-fatal condition recorded while reading a table
type Warning struct {
	Kind    WarningKind
	Message string
}

// String returns the string representation of WarningKind
func (k WarningKind) String() string {
	switch k {
	case WarnMissingBlob:
		return "MISSING_BLOB"
	case WarnBlobMismatch:
		return "BLOB_MISMATCH"
	case WarnRecordCountMismatch:
		return "RECORD_COUNT_MISMATCH"
	case WarnUnknownField:
		return "UNKNOWN_FIELD"
	default:
		return fmt.Sprintf("WARNING_%d", int(k))
	}
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
