package codepage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func encode(t *testing.T, s string, cm *charmap.Charmap) []byte {
	t.Helper()
	out, err := cm.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "CP866", Label(866))
	assert.Equal(t, "CP1252", Label(1252))
	assert.Equal(t, "", Label(0))
}

func TestKnown(t *testing.T) {
	for _, label := range []string{"CP866", "cp866", "866", "windows-1251", "CP437", "ibm850"} {
		assert.True(t, Known(label), "label %q should resolve", label)
	}
	for _, label := range []string{"", "latin-1", "CP12345", "utf-8"} {
		assert.False(t, Known(label), "label %q should not resolve", label)
	}
}

func TestDecodeCyrillic(t *testing.T) {
	raw := encode(t, "Инвентарный номер", charmap.CodePage866)
	assert.Equal(t, "Инвентарный номер", Decode(raw, "CP866"))
	assert.Equal(t, "Инвентарный номер", Decode(raw, "cp866"))
}

func TestDecodeWindows1252(t *testing.T) {
	raw := encode(t, "Währung", charmap.Windows1252)
	assert.Equal(t, "Währung", Decode(raw, "CP1252"))
}

func TestDecodePassthrough(t *testing.T) {
	t.Run("valid utf-8 is returned unchanged", func(t *testing.T) {
		assert.Equal(t, "Währung", Decode([]byte("Währung"), "CP866"))
	})

	t.Run("unknown label is returned unchanged", func(t *testing.T) {
		raw := []byte{0x80, 0x81}
		assert.Equal(t, string(raw), Decode(raw, "klingon"))
	})

	t.Run("empty label is returned unchanged", func(t *testing.T) {
		raw := encode(t, "Инвентарный", charmap.CodePage866)
		assert.Equal(t, string(raw), Decode(raw, ""))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", Decode(nil, "CP866"))
	})
}

func TestDecodeNeverFails(t *testing.T) {
	// Every byte value must decode under every supported table.
	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(i)
	}
	for _, label := range []string{"CP437", "CP850", "CP852", "CP866", "CP1250", "CP1251", "CP1252"} {
		out := Decode(raw, label)
		assert.NotEmpty(t, out, "decoding with %s", label)
	}
}
