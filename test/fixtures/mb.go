package fixtures

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const mbBlockSize = 4096

// BlobDesc is the cell-side reference to a payload placed in an
// MBBuilder: offset descriptor, declared length, modifier.
type BlobDesc struct {
	Offset   uint32
	Length   uint32
	Modifier uint16
}

// MBBuilder assembles a companion .MB byte image. Block 0 is reserved
// as the file header block, so the first payload block sits at offset
// 4096.
type MBBuilder struct {
	data []byte
}

// NewMBBuilder creates a builder with the reserved header block.
func NewMBBuilder() *MBBuilder {
	return &MBBuilder{data: make([]byte, mbBlockSize)}
}

// AddSingleBlob stores payload in its own single-blob block (type 2)
// and returns the cell descriptor.
func (m *MBBuilder) AddSingleBlob(payload []byte, modifier uint16) BlobDesc {
	off := uint32(len(m.data))
	blocks := (9 + len(payload) + mbBlockSize - 1) / mbBlockSize
	block := make([]byte, blocks*mbBlockSize)
	block[0] = 2
	binary.LittleEndian.PutUint16(block[1:], uint16(blocks))
	binary.LittleEndian.PutUint32(block[3:], uint32(len(payload)))
	binary.LittleEndian.PutUint16(block[7:], modifier)
	copy(block[9:], payload)
	m.data = append(m.data, block...)
	return BlobDesc{Offset: off, Length: uint32(len(payload)), Modifier: modifier}
}

// AddSubBlock stores several small payloads in one suballocated block
// (type 3) and returns one descriptor per payload. The low byte of each
// descriptor selects the index entry.
func (m *MBBuilder) AddSubBlock(payloads [][]byte, modifiers []uint16) []BlobDesc {
	if len(payloads) != len(modifiers) {
		panic("fixtures: payload and modifier counts differ")
	}
	off := uint32(len(m.data))
	block := make([]byte, mbBlockSize)
	block[0] = 3
	binary.LittleEndian.PutUint16(block[1:], 1)

	table := 3
	at := table + 8*len(payloads)
	descs := make([]BlobDesc, len(payloads))
	for i, p := range payloads {
		if at+len(p) > mbBlockSize {
			panic("fixtures: suballocated payloads exceed one block")
		}
		entry := table + 8*i
		binary.LittleEndian.PutUint16(block[entry:], uint16(at))
		binary.LittleEndian.PutUint32(block[entry+2:], uint32(len(p)))
		binary.LittleEndian.PutUint16(block[entry+6:], modifiers[i])
		copy(block[at:], p)
		descs[i] = BlobDesc{
			Offset:   off | uint32(i),
			Length:   uint32(len(p)),
			Modifier: modifiers[i],
		}
		at += len(p)
	}
	m.data = append(m.data, block...)
	return descs
}

// AddFreeBlock appends a free block (type 4) and returns a descriptor
// pointing into it, for corruption tests.
func (m *MBBuilder) AddFreeBlock() BlobDesc {
	off := uint32(len(m.data))
	block := make([]byte, mbBlockSize)
	block[0] = 4
	m.data = append(m.data, block...)
	return BlobDesc{Offset: off, Length: 100, Modifier: 1}
}

// Bytes returns the assembled .MB image.
func (m *MBBuilder) Bytes() []byte {
	return m.data
}

// WriteFile writes the image under dir.
func (m *MBBuilder) WriteFile(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, m.data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write fixture blob file: %w", err)
	}
	return path, nil
}
