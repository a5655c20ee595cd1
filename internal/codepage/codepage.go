// Package codepage recodes legacy DOS and Windows codepage bytes to UTF-8.
//
// Paradox headers carry a numeric DOS codepage id (866, 1252, ...). The
// recoder resolves ids and textual labels against the single-byte tables
// in golang.org/x/text and never fails: unknown labels and already valid
// UTF-8 pass through unchanged.
package codepage

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// tables maps a numeric codepage id to its x/text charmap.
var tables = map[int]*charmap.Charmap{
	437:  charmap.CodePage437,
	850:  charmap.CodePage850,
	852:  charmap.CodePage852,
	855:  charmap.CodePage855,
	860:  charmap.CodePage860,
	862:  charmap.CodePage862,
	863:  charmap.CodePage863,
	865:  charmap.CodePage865,
	866:  charmap.CodePage866,
	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
	1253: charmap.Windows1253,
	1254: charmap.Windows1254,
	1255: charmap.Windows1255,
	1256: charmap.Windows1256,
	1257: charmap.Windows1257,
	1258: charmap.Windows1258,
}

// Label returns the canonical label for a header codepage id, or "" when
// the id is zero (unknown).
func Label(id uint16) string {
	if id == 0 {
		return ""
	}
	return "CP" + strconv.Itoa(int(id))
}

// lookup resolves a label of the form "CP866", "cp866", "windows-1251"
// or a bare number to a charmap, or nil when unknown.
func lookup(label string) *charmap.Charmap {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimPrefix(s, "cp")
	s = strings.TrimPrefix(s, "windows-")
	s = strings.TrimPrefix(s, "ibm")
	id, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return tables[id]
}

// Known reports whether the label resolves to a supported codepage.
func Known(label string) bool {
	return lookup(label) != nil
}

// Decode recodes raw codepage bytes to a UTF-8 string. Input that is
// already valid UTF-8, an empty label, or an unknown label returns the
// bytes unchanged. Undecodable bytes become the Unicode replacement
// character; Decode never fails.
func Decode(raw []byte, label string) string {
	if len(raw) == 0 {
		return ""
	}
	cm := lookup(label)
	if cm == nil || utf8.Valid(raw) {
		return string(raw)
	}
	out, err := decodeWith(cm.NewDecoder(), raw)
	if err != nil {
		// Single-byte charmaps decode any input; fall back defensively.
		return string(raw)
	}
	return out
}

func decodeWith(dec *encoding.Decoder, raw []byte) (string, error) {
	b, err := dec.Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
