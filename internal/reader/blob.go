package reader

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"

	"github.com/yamaru/paradox-db-tool/internal/types"
)

// Companion .MB blob file layout constants.
const (
	MBBlockSize = 4096

	// Blob block type codes, first byte of every .MB block
	MBBlockSingle = 2 // whole block holds one payload
	MBBlockSub    = 3 // suballocated block with an entry index table
	MBBlockFree   = 4 // free block, a reference here is corruption

	// Single-blob block header: [type:1][blocks:2][length:4][modifier:2]
	mbSingleLength   = 3
	mbSingleModifier = 7
	mbSingleHeader   = 9

	// Suballocated block: [type:1][blocks:2] then 8-byte index entries
	// of [offset:2][length:4][modifier:2]
	mbSubTable     = 3
	mbSubEntrySize = 8
)

// ErrBlobMismatch marks a blob reference whose .MB entry does not match
// the cell. Resolution failures of this kind surface as per-cell
// warnings, not fatal errors.
var ErrBlobMismatch = errors.New("blob entry mismatch")

// MBFile resolves blob references against a companion .MB byte source.
type MBFile struct {
	src ByteSource
}

// NewMBFile wraps an opened .MB byte source.
func NewMBFile(src ByteSource) *MBFile {
	return &MBFile{src: src}
}

// Close releases the underlying file handle.
func (m *MBFile) Close() error {
	return m.src.Close()
}

// Path returns the blob file path.
func (m *MBFile) Path() string {
	return m.src.Path()
}

// Resolve returns the payload bytes for an external blob reference.
// Inline references are the caller's concern; Resolve always reads the
// .MB file. Errors marked ErrBlobMismatch identify corrupt or stale
// references that a reader downgrades to warnings.
func (m *MBFile) Resolve(ref types.BlobRef) ([]byte, error) {
	off := ref.BlockOffset()
	if off+MBBlockSize > m.src.Size() {
		return nil, errors.Mark(
			errors.Newf("blob block at offset 0x%X past end of %s", off, m.src.Path()),
			ErrBlobMismatch)
	}

	head := make([]byte, mbSubTable)
	if err := m.src.ReadAt(head, off); err != nil {
		return nil, err
	}

	switch head[0] {
	case MBBlockSingle:
		return m.resolveSingle(ref, off)
	case MBBlockSub:
		return m.resolveSub(ref, off)
	case MBBlockFree:
		return nil, errors.Mark(
			errors.Newf("blob reference into free block at offset 0x%X", off),
			ErrBlobMismatch)
	default:
		return nil, errors.Mark(
			errors.Newf("unknown blob block type %d at offset 0x%X", head[0], off),
			ErrBlobMismatch)
	}
}

// resolveSingle reads the payload of a single-blob block: the recorded
// modifier must match the cell reference and the recorded length must be
// at least the length the cell declares.
func (m *MBFile) resolveSingle(ref types.BlobRef, off int64) ([]byte, error) {
	head := make([]byte, mbSingleHeader)
	if err := m.src.ReadAt(head, off); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(head[mbSingleLength:])
	modifier := binary.LittleEndian.Uint16(head[mbSingleModifier:])
	if modifier != ref.Modifier {
		return nil, errors.Mark(
			errors.Newf("blob modifier %d does not match cell modifier %d", modifier, ref.Modifier),
			ErrBlobMismatch)
	}
	if length < ref.Length {
		return nil, errors.Mark(
			errors.Newf("blob block holds %d bytes, cell declares %d", length, ref.Length),
			ErrBlobMismatch)
	}
	return m.copyPayload(off+mbSingleHeader, ref.Length)
}

// resolveSub picks the index entry selected by the low byte of the cell's
// offset descriptor and reads the payload from inside the block.
func (m *MBFile) resolveSub(ref types.BlobRef, off int64) ([]byte, error) {
	entryOff := off + mbSubTable + int64(ref.Index())*mbSubEntrySize
	entry := make([]byte, mbSubEntrySize)
	if err := m.src.ReadAt(entry, entryOff); err != nil {
		return nil, err
	}
	payloadOff := binary.LittleEndian.Uint16(entry[0:])
	length := binary.LittleEndian.Uint32(entry[2:])
	modifier := binary.LittleEndian.Uint16(entry[6:])
	if modifier != ref.Modifier {
		return nil, errors.Mark(
			errors.Newf("blob entry %d modifier %d does not match cell modifier %d",
				ref.Index(), modifier, ref.Modifier),
			ErrBlobMismatch)
	}
	if length != ref.Length {
		return nil, errors.Mark(
			errors.Newf("blob entry %d holds %d bytes, cell declares %d",
				ref.Index(), length, ref.Length),
			ErrBlobMismatch)
	}
	if int(payloadOff)+int(length) > MBBlockSize {
		return nil, errors.Mark(
			errors.Newf("blob entry %d overruns its block", ref.Index()),
			ErrBlobMismatch)
	}
	return m.copyPayload(off+int64(payloadOff), length)
}

// copyPayload allocates and fills a fresh payload buffer.
func (m *MBFile) copyPayload(off int64, length uint32) ([]byte, error) {
	payload := make([]byte, length)
	if err := m.src.ReadAt(payload, off); err != nil {
		return nil, err
	}
	return payload, nil
}
