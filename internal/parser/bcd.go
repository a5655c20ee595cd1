package parser

import (
	"strings"

	"github.com/yamaru/paradox-db-tool/internal/types"
)

// BCD cells are 17 bytes: a marker byte carrying the fractional digit
// count, then 32 packed decimal digits. The marker byte follows the
// shared sign protocol of the 8-byte doubles: MSB set means positive,
// MSB clear means negative with every bit inverted.
const (
	bcdCellSize = 17
	bcdDigits   = 32
	bcdPrecMask = 0x3F
	bcdMaxPrec  = 32
)

// decodeBcd renders a packed BCD cell as decimal text. Nibbles above 9
// render as '?'; a cell with no valid digit at all is the corruption
// sentinel and decodes to Null.
func (d *FieldDecoder) decodeBcd(cell []byte) types.Value {
	if len(cell) < bcdCellSize || allZero(cell) {
		return types.Null()
	}

	var b [bcdCellSize]byte
	copy(b[:], cell)
	neg := false
	if b[0]&0x80 != 0 {
		b[0] &^= 0x80
	} else {
		neg = true
		for i := range b {
			b[i] = ^b[i]
		}
		b[0] &^= 0x80
	}
	prec := int(b[0] & bcdPrecMask)
	if prec > bcdMaxPrec {
		prec = bcdMaxPrec
	}

	digits := make([]byte, 0, bcdDigits)
	valid := 0
	for _, c := range b[1:] {
		for _, nib := range []byte{c >> 4, c & 0x0F} {
			if nib <= 9 {
				digits = append(digits, '0'+nib)
				valid++
			} else {
				digits = append(digits, '?')
			}
		}
	}
	if valid == 0 {
		return types.Null()
	}

	intPart := strings.TrimLeft(string(digits[:bcdDigits-prec]), "0")
	if intPart == "" {
		intPart = "0"
	}

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	sb.WriteString(intPart)
	if prec > 0 {
		sb.WriteByte('.')
		sb.Write(digits[bcdDigits-prec:])
	}
	return types.TextValue(sb.String())
}
