package reader

import (
	"bytes"
	"encoding/binary"

	"github.com/yamaru/paradox-db-tool/internal/codepage"
	"github.com/yamaru/paradox-db-tool/internal/errs"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

// Paradox .DB header layout constants. All multi-byte fields are
// little-endian; offsets are bytes from the start of the file.
const (
	HdrRecordSize    = 0x00 // record byte width (2 bytes)
	HdrHeaderSize    = 0x02 // header region size (2 bytes)
	HdrFileType      = 0x04 // file kind (1 byte)
	HdrMaxTableSize  = 0x05 // block size selector (1 byte)
	HdrNumRecords    = 0x06 // record count (4 bytes)
	HdrNextBlock     = 0x0A // next block (2 bytes)
	HdrFileBlocks    = 0x0C // allocated blocks (2 bytes)
	HdrFirstBlock    = 0x0E // head of block list (2 bytes)
	HdrLastBlock     = 0x10 // tail of block list (2 bytes)
	HdrModifyCount   = 0x14 // modification counter (2 bytes)
	HdrFileVersionID = 0x21 // file version id (1 byte)
	HdrEncryption    = 0x22 // password checksum, 0 = plaintext (4 bytes)
	HdrAutoIncFlag   = 0x2B // auto-increment refinement (1 byte)
	HdrIndexFields   = 0x2E // indexed field count (1 byte)
	HdrHeaderVersion = 0x30 // header version (2 bytes)
	HdrFieldCount    = 0x38 // field count (1 byte)
	HdrPrimaryKeys   = 0x39 // primary key field count (1 byte)
	HdrCodepage      = 0x3C // DOS codepage id, header version >= 5 (2 bytes)

	// Field descriptor table offsets. Header version >= 4 inserts an
	// extended header page before the descriptors.
	FieldInfoBase   = 0x58
	FieldInfoBaseV4 = 0x78

	// FixedHeaderSize is the minimum readable header prefix.
	FixedHeaderSize = 0x58

	// Header versions with layout significance
	HeaderVersionExtended = 4 // descriptors move to FieldInfoBaseV4
	HeaderVersionCodepage = 5 // HdrCodepage becomes meaningful

	// Block size selector bounds; block size is 1024 x the selector.
	MinMaxTableSize = 1
	MaxMaxTableSize = 32
)

// ParseHeader decodes the fixed header prefix of a .DB byte source.
func ParseHeader(src ByteSource) (*types.Header, error) {
	if src.Size() < FixedHeaderSize {
		return nil, errs.BadFormatf(0, "file too small for a table header: %d bytes", src.Size())
	}
	buf := make([]byte, FixedHeaderSize)
	if err := src.ReadAt(buf, 0); err != nil {
		return nil, err
	}

	h := &types.Header{
		RecordSize:     binary.LittleEndian.Uint16(buf[HdrRecordSize:]),
		HeaderSize:     binary.LittleEndian.Uint16(buf[HdrHeaderSize:]),
		FileType:       buf[HdrFileType],
		MaxTableSize:   buf[HdrMaxTableSize],
		NumRecords:     binary.LittleEndian.Uint32(buf[HdrNumRecords:]),
		NextBlock:      binary.LittleEndian.Uint16(buf[HdrNextBlock:]),
		FileBlocks:     binary.LittleEndian.Uint16(buf[HdrFileBlocks:]),
		FirstBlock:     binary.LittleEndian.Uint16(buf[HdrFirstBlock:]),
		LastBlock:      binary.LittleEndian.Uint16(buf[HdrLastBlock:]),
		ModifyCount:    binary.LittleEndian.Uint16(buf[HdrModifyCount:]),
		FileVersionID:  buf[HdrFileVersionID],
		EncryptionWord: binary.LittleEndian.Uint32(buf[HdrEncryption:]),
		AutoIncFlag:    buf[HdrAutoIncFlag],
		IndexFields:    buf[HdrIndexFields],
		HeaderVersion:  binary.LittleEndian.Uint16(buf[HdrHeaderVersion:]),
		FieldCount:     buf[HdrFieldCount],
		PrimaryKeys:    buf[HdrPrimaryKeys],
	}
	if h.HeaderVersion >= HeaderVersionCodepage {
		h.Codepage = binary.LittleEndian.Uint16(buf[HdrCodepage:])
	}

	switch h.FileType {
	case types.FileTypeData, types.FileTypeDataBlob:
	case types.FileTypeIndex:
		return nil, errs.BadFormatf(HdrFileType, "index file opened as a data table")
	default:
		return nil, errs.BadFormatf(HdrFileType, "unrecognized file type 0x%02X", h.FileType)
	}
	if h.MaxTableSize < MinMaxTableSize || h.MaxTableSize > MaxMaxTableSize {
		return nil, errs.BadFormatf(HdrMaxTableSize, "block size selector %d out of range", h.MaxTableSize)
	}
	if h.RecordSize == 0 {
		return nil, errs.BadFormatf(HdrRecordSize, "record width is zero")
	}
	if int(h.RecordSize)+types.BlockHeaderSize > h.BlockSize() {
		return nil, errs.BadFormatf(HdrRecordSize,
			"record width %d does not fit a %d byte block", h.RecordSize, h.BlockSize())
	}
	if h.FieldCount == 0 {
		return nil, errs.BadFormatf(HdrFieldCount, "table declares no fields")
	}
	if int64(h.HeaderSize) > src.Size() {
		return nil, errs.BadFormatf(HdrHeaderSize,
			"declared header size %d exceeds file size %d", h.HeaderSize, src.Size())
	}

	return h, nil
}

// fieldInfoOffset returns where the field descriptor table starts for
// the given header version.
func fieldInfoOffset(h *types.Header) int {
	if h.HeaderVersion >= HeaderVersionExtended {
		return FieldInfoBaseV4
	}
	return FieldInfoBase
}

// ParseSchema decodes the field descriptor table that follows the fixed
// header: FieldCount (type, length) pairs, then FieldCount NUL-terminated
// field names in raw codepage bytes. Index and sort-order metadata after
// the names is not retained. Field names are recoded with cpLabel.
func ParseSchema(src ByteSource, h *types.Header, cpLabel string) (*types.Schema, error) {
	base := fieldInfoOffset(h)
	count := int(h.FieldCount)
	if base+2*count > int(h.HeaderSize) {
		return nil, errs.BadFormatf(int64(base),
			"field descriptor table for %d fields exceeds header size %d", count, h.HeaderSize)
	}

	region := make([]byte, int(h.HeaderSize)-base)
	if err := src.ReadAt(region, int64(base)); err != nil {
		return nil, err
	}

	schema := &types.Schema{
		Fields:     make([]types.FieldDesc, 0, count),
		RecordSize: h.RecordSize,
	}
	widthSum := 0
	for i := 0; i < count; i++ {
		ft := types.FieldType(region[2*i])
		size := uint16(region[2*i+1])
		if fixed := ft.FixedSize(); fixed != 0 && size != fixed {
			return nil, errs.BadFormatf(int64(base+2*i),
				"field %d: type %s requires length %d, descriptor declares %d", i, ft, fixed, size)
		}
		if size == 0 {
			return nil, errs.BadFormatf(int64(base+2*i), "field %d: zero length", i)
		}
		widthSum += int(size)
		schema.Fields = append(schema.Fields, types.FieldDesc{Type: ft, Size: size})
	}
	if widthSum != int(h.RecordSize) {
		return nil, errs.BadFormatf(HdrRecordSize,
			"field lengths sum to %d, header declares record width %d", widthSum, h.RecordSize)
	}

	// Field names: C strings packed after the descriptor pairs. The name
	// region must end inside the declared header.
	names := region[2*count:]
	pos := 0
	for i := 0; i < count; i++ {
		end := bytes.IndexByte(names[pos:], 0)
		if end < 0 {
			return nil, errs.BadFormatf(int64(base+2*count+pos),
				"field name %d runs past the header region", i)
		}
		schema.Fields[i].Name = codepage.Decode(names[pos:pos+end], cpLabel)
		pos += end + 1
	}

	return schema, nil
}
