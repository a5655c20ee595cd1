package reader

import (
	"math/bits"

	"github.com/cockroachdb/errors"

	"github.com/yamaru/paradox-db-tool/internal/errs"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

// PasswordChecksum computes the 32-bit checksum stored in the header
// encryption word. Each password byte is rotated left by a shift count
// cycling 1, 2, 3 and XORed into the low byte of the accumulator, then
// the accumulator rotates left by 5.
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

// Decryptor transforms obfuscated data blocks in place. A nil Decryptor
// means the file is plaintext.
type Decryptor struct {
	sum uint32
}

// NewDecryptor validates password against the header encryption word and
// returns a block transformer keyed by the checksum.
func NewDecryptor(h *types.Header, password string) (*Decryptor, error) {
	if !h.Encrypted() {
		return nil, nil
	}
	if password == "" {
		return nil, errors.Mark(
			errors.Newf("table is password protected"), errs.ErrEncrypted)
	}
	sum := PasswordChecksum(password)
	if sum != h.EncryptionWord {
		return nil, errs.ErrBadPassword
	}
	return &Decryptor{sum: sum}, nil
}

// CryptBlock XORs a data block with the key stream for its 1-based block
// number. The transform is an involution: applying it to cleartext
// produces the obfuscated block and vice versa.
//
// The 6-byte block header is XORed with three 16-bit words derived from
// the checksum; the payload with a stream obtained by rotating the
// checksum word against the block number and byte position.
func (d *Decryptor) CryptBlock(block []byte, blockNo int) {
	if d == nil {
		return
	}
	w0 := uint16(d.sum)
	w1 := uint16(d.sum >> 16)
	w2 := w0 ^ w1
	key := [types.BlockHeaderSize]byte{
		byte(w0), byte(w0 >> 8),
		byte(w1), byte(w1 >> 8),
		byte(w2), byte(w2 >> 8),
	}
	n := len(block)
	for i := 0; i < types.BlockHeaderSize && i < n; i++ {
		block[i] ^= key[i]
	}
	stream := bits.RotateLeft32(d.sum, blockNo%32)
	for i := types.BlockHeaderSize; i < n; i++ {
		block[i] ^= byte(bits.RotateLeft32(stream, i%31))
	}
}
