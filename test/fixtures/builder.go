// Package fixtures synthesizes Paradox .DB and .MB files for tests.
//
// The builders encode the on-disk layout independently of the decoder
// under test: header offsets, cell transforms and the obfuscation
// stream are written out by hand here.
package fixtures

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/yamaru/paradox-db-tool/internal/types"
)

// Field declares one column for a synthetic table. NameBytes, when set,
// overrides Name with raw codepage bytes.
type Field struct {
	Name      string
	NameBytes []byte
	Type      types.FieldType
	Size      int
}

// TableBuilder assembles a .DB byte image
type TableBuilder struct {
	Fields        []Field
	MaxTableSize  byte   // block size selector, default 2 (2 KiB blocks)
	HeaderVersion uint16 // default 5
	Codepage      uint16 // header codepage id, 0 = unknown
	FileType      byte   // default: data, or data-with-blob when blob fields exist
	Password      string // non-empty obfuscates the data blocks

	// RecordCountOverride forces the header record count for
	// mismatch tests; nil means the real count.
	RecordCountOverride *uint32

	rows [][]byte
}

const fixtureHeaderSize = 0x800

// AddRecord appends one record from per-field cells. Cell widths must
// match the declared field sizes.
func (b *TableBuilder) AddRecord(cells ...[]byte) {
	if len(cells) != len(b.Fields) {
		panic(fmt.Sprintf("fixtures: %d cells for %d fields", len(cells), len(b.Fields)))
	}
	var rec []byte
	for i, c := range cells {
		if len(c) != b.Fields[i].Size {
			panic(fmt.Sprintf("fixtures: field %d cell is %d bytes, declared %d", i, len(c), b.Fields[i].Size))
		}
		rec = append(rec, c...)
	}
	b.rows = append(b.rows, rec)
}

func (b *TableBuilder) recordSize() int {
	sum := 0
	for _, f := range b.Fields {
		sum += f.Size
	}
	return sum
}

func (b *TableBuilder) hasBlobField() bool {
	for _, f := range b.Fields {
		if f.Type.IsBlob() {
			return true
		}
	}
	return false
}

// Build assembles the complete .DB image.
func (b *TableBuilder) Build() []byte {
	maxTableSize := b.MaxTableSize
	if maxTableSize == 0 {
		maxTableSize = 2
	}
	headerVersion := b.HeaderVersion
	if headerVersion == 0 {
		headerVersion = 5
	}
	fileType := b.FileType
	if fileType == 0 && b.hasBlobField() {
		fileType = types.FileTypeDataBlob
	}

	blockSize := 1024 * int(maxTableSize)
	recordSize := b.recordSize()
	perBlock := (blockSize - types.BlockHeaderSize) / recordSize
	numBlocks := (len(b.rows) + perBlock - 1) / perBlock

	numRecords := uint32(len(b.rows))
	if b.RecordCountOverride != nil {
		numRecords = *b.RecordCountOverride
	}

	header := make([]byte, fixtureHeaderSize)
	binary.LittleEndian.PutUint16(header[0x00:], uint16(recordSize))
	binary.LittleEndian.PutUint16(header[0x02:], fixtureHeaderSize)
	header[0x04] = fileType
	header[0x05] = maxTableSize
	binary.LittleEndian.PutUint32(header[0x06:], numRecords)
	binary.LittleEndian.PutUint16(header[0x0A:], uint16(numBlocks+1)) // next free block
	binary.LittleEndian.PutUint16(header[0x0C:], uint16(numBlocks))
	if numBlocks > 0 {
		binary.LittleEndian.PutUint16(header[0x0E:], 1)
		binary.LittleEndian.PutUint16(header[0x10:], uint16(numBlocks))
	}
	binary.LittleEndian.PutUint16(header[0x14:], 1) // modify count
	header[0x21] = 0x0C                             // file version id
	if b.Password != "" {
		binary.LittleEndian.PutUint32(header[0x22:], PasswordChecksum(b.Password))
	}
	binary.LittleEndian.PutUint16(header[0x30:], headerVersion)
	header[0x38] = byte(len(b.Fields))
	if headerVersion >= 5 {
		binary.LittleEndian.PutUint16(header[0x3C:], b.Codepage)
	}

	// Field descriptor table: (type, length) pairs then NUL-terminated
	// names in raw codepage bytes.
	pos := 0x58
	if headerVersion >= 4 {
		pos = 0x78
	}
	for _, f := range b.Fields {
		header[pos] = byte(f.Type)
		header[pos+1] = byte(f.Size)
		pos += 2
	}
	for _, f := range b.Fields {
		name := f.NameBytes
		if name == nil {
			name = []byte(f.Name)
		}
		pos += copy(header[pos:], name)
		header[pos] = 0
		pos++
	}

	out := header
	for blk := 0; blk < numBlocks; blk++ {
		block := make([]byte, blockSize)
		next := blk + 2
		if blk == numBlocks-1 {
			next = 0
		}
		binary.LittleEndian.PutUint16(block[0:], uint16(next))
		binary.LittleEndian.PutUint16(block[2:], uint16(blk))

		lo := blk * perBlock
		hi := lo + perBlock
		if hi > len(b.rows) {
			hi = len(b.rows)
		}
		used := hi - lo
		binary.LittleEndian.PutUint16(block[4:], uint16((used-1)*recordSize))
		at := types.BlockHeaderSize
		for _, rec := range b.rows[lo:hi] {
			at += copy(block[at:], rec)
		}
		if b.Password != "" {
			CryptBlock(block, blk+1, PasswordChecksum(b.Password))
		}
		out = append(out, block...)
	}
	return out
}

// WriteFile builds the table and writes it under dir.
func (b *TableBuilder) WriteFile(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Build(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write fixture table: %w", err)
	}
	return path, nil
}

// PasswordChecksum mirrors the header checksum: rotate each password
// byte by a 1,2,3 cycle, XOR into the accumulator, rotate the
// accumulator left by 5.
func PasswordChecksum(password string) uint32 {
	var sum uint32
	shift := 1
	for i := 0; i < len(password); i++ {
		sum ^= uint32(bits.RotateLeft8(password[i], shift))
		sum = bits.RotateLeft32(sum, 5)
		shift++
		if shift > 3 {
			shift = 1
		}
	}
	return sum
}

// CryptBlock applies the involutive block obfuscation for the given
// 1-based block sequence number.
func CryptBlock(block []byte, blockNo int, sum uint32) {
	w0 := uint16(sum)
	w1 := uint16(sum >> 16)
	w2 := w0 ^ w1
	key := [types.BlockHeaderSize]byte{
		byte(w0), byte(w0 >> 8),
		byte(w1), byte(w1 >> 8),
		byte(w2), byte(w2 >> 8),
	}
	for i := 0; i < types.BlockHeaderSize && i < len(block); i++ {
		block[i] ^= key[i]
	}
	stream := bits.RotateLeft32(sum, blockNo%32)
	for i := types.BlockHeaderSize; i < len(block); i++ {
		block[i] ^= byte(bits.RotateLeft32(stream, i%31))
	}
}
