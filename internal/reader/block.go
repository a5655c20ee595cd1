package reader

import (
	"encoding/binary"

	"github.com/yamaru/paradox-db-tool/internal/errs"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

// Block header layout: the first 6 bytes of every data block.
const (
	BlockNext    = 0 // next block number (2 bytes)
	BlockPrev    = 2 // previous block number (2 bytes)
	BlockAddSize = 4 // (records used - 1) x record width (2 bytes)

	// emptyBlockMarker in the add-size word flags a block with no live
	// records; any value with the sign bit set reads the same way.
	emptyBlockMarker = 0xFFFF
)

// BlockIterator walks the linked list of data blocks starting at
// header.FirstBlock and yields records as raw byte slices of the record
// width. It holds at most one block buffer; a yielded record slice is
// valid only until the next call to Next.
type BlockIterator struct {
	src     ByteSource
	header  *types.Header
	dec     *Decryptor
	buf     []byte
	visited map[uint16]bool

	nextBlock uint16 // block to fetch when the current one is drained
	inBlock   int    // records remaining in the current block
	pos       int    // byte offset of the next record in buf
	yielded   uint32 // records yielded so far
	seq       int    // 1-based fetch sequence, keys the deobfuscation stream
	err       error
	done      bool
}

// NewBlockIterator creates an iterator over the data blocks of src.
// dec may be nil for plaintext files.
func NewBlockIterator(src ByteSource, h *types.Header, dec *Decryptor) *BlockIterator {
	return &BlockIterator{
		src:       src,
		header:    h,
		dec:       dec,
		buf:       make([]byte, h.BlockSize()),
		visited:   make(map[uint16]bool),
		nextBlock: h.FirstBlock,
	}
}

// Next returns the next record slice, or false when iteration is
// complete or failed. Check Err after the final Next.
func (it *BlockIterator) Next() ([]byte, bool) {
	for {
		if it.err != nil || it.done {
			return nil, false
		}
		if it.inBlock > 0 {
			rec := it.buf[it.pos : it.pos+int(it.header.RecordSize)]
			it.pos += int(it.header.RecordSize)
			it.inBlock--
			it.yielded++
			return rec, true
		}
		if it.nextBlock == 0 {
			it.done = true
			return nil, false
		}
		if err := it.fetch(it.nextBlock); err != nil {
			it.err = err
			return nil, false
		}
	}
}

// Err returns the error that terminated iteration, if any.
func (it *BlockIterator) Err() error {
	return it.err
}

// Count returns the number of records yielded so far.
func (it *BlockIterator) Count() uint32 {
	return it.yielded
}

// Done reports whether the block list has been fully traversed.
func (it *BlockIterator) Done() bool {
	return it.done
}

// fetch reads block number no (1-based) into the buffer, deobfuscates
// it, and primes the record cursor.
func (it *BlockIterator) fetch(no uint16) error {
	if it.visited[no] {
		return errs.BadFormatf(it.blockOffset(no), "cycle in block list at block %d", no)
	}
	it.visited[no] = true
	it.seq++

	off := it.blockOffset(no)
	if off+int64(len(it.buf)) > it.src.Size() {
		return errs.BadFormatf(off, "block %d extends past end of file", no)
	}
	if err := it.src.ReadAt(it.buf, off); err != nil {
		return err
	}
	it.dec.CryptBlock(it.buf, it.seq)

	it.nextBlock = binary.LittleEndian.Uint16(it.buf[BlockNext:])
	addSize := binary.LittleEndian.Uint16(it.buf[BlockAddSize:])
	it.pos = types.BlockHeaderSize

	if addSize == emptyBlockMarker || addSize&0x8000 != 0 {
		it.inBlock = 0
		return nil
	}
	if addSize%it.header.RecordSize != 0 {
		return errs.BadFormatf(off+BlockAddSize,
			"block %d: add-data size %d is not a multiple of record width %d",
			no, addSize, it.header.RecordSize)
	}
	used := int(addSize/it.header.RecordSize) + 1
	if used > it.header.RecordsPerBlock() {
		return errs.BadFormatf(off+BlockAddSize,
			"block %d declares %d records, capacity is %d", no, used, it.header.RecordsPerBlock())
	}
	it.inBlock = used
	return nil
}

// blockOffset returns the absolute byte offset of a 1-based block number.
func (it *BlockIterator) blockOffset(no uint16) int64 {
	return int64(it.header.HeaderSize) + int64(no-1)*int64(it.header.BlockSize())
}
