package fixtures

import (
	"fmt"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/yamaru/paradox-db-tool/internal/types"
)

// EncodeCP encodes a UTF-8 string into legacy codepage bytes for field
// names and text cells of non-ASCII fixtures.
func EncodeCP(s string, cm *charmap.Charmap) []byte {
	out, err := cm.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(fmt.Sprintf("fixtures: %q not encodable: %v", s, err))
	}
	return out
}

// CountryRow is the decoded form of one country fixture record
type CountryRow struct {
	Name, Capital, Continent string
	Area, Population         float64
}

// CountryData backs the country fixture table: 18 records, 5 fields.
var CountryData = []CountryRow{
	{"Argentina", "Buenos Aires", "South America", 2777815, 32300003},
	{"Bolivia", "La Paz", "South America", 1098575, 7300000},
	{"Brazil", "Brasilia", "South America", 8511196, 150400000},
	{"Canada", "Ottawa", "North America", 9976147, 26500000},
	{"Chile", "Santiago", "South America", 756943, 13200000},
	{"Colombia", "Bogota", "South America", 1138907, 33000000},
	{"Cuba", "Havana", "North America", 114524, 10600000},
	{"Ecuador", "Quito", "South America", 455502, 10600000},
	{"El Salvador", "San Salvador", "North America", 20865, 5300000},
	{"Guyana", "Georgetown", "South America", 214969, 800000},
	{"Jamaica", "Kingston", "North America", 11424, 2500000},
	{"Mexico", "Mexico City", "North America", 1967180, 88600000},
	{"Nicaragua", "Managua", "North America", 139000, 3900000},
	{"Paraguay", "Asuncion", "South America", 406576, 4660000},
	{"Peru", "Lima", "South America", 1285215, 21600000},
	{"United States of America", "Washington", "North America", 9363130, 249200000},
	{"Uruguay", "Montevideo", "South America", 176140, 3002000},
	{"Venezuela", "Caracas", "South America", 912047, 19700000},
}

// CountryBuilder assembles the country fixture, optionally obfuscated.
func CountryBuilder(password string) *TableBuilder {
	b := &TableBuilder{
		Fields: []Field{
			{Name: "Name", Type: types.FieldAlpha, Size: 24},
			{Name: "Capital", Type: types.FieldAlpha, Size: 24},
			{Name: "Continent", Type: types.FieldAlpha, Size: 24},
			{Name: "Area", Type: types.FieldNumber, Size: 8},
			{Name: "Population", Type: types.FieldNumber, Size: 8},
		},
		Codepage: 1252,
		Password: password,
	}
	for _, row := range CountryData {
		b.AddRecord(
			CellAlpha(row.Name, 24),
			CellAlpha(row.Capital, 24),
			CellAlpha(row.Continent, 24),
			CellNumber(row.Area),
			CellNumber(row.Population),
		)
	}
	return b
}

// GalleryFieldNames are the fixture column names of the full type
// gallery, one column per implemented field type.
var GalleryFieldNames = []string{
	"Alpha", "Numerisch", "Währung", "Integer kurz", "Integer lang",
	"BCD", "Datum", "Zeit", "Datum/Zeit", "Memo", "Logisch", "Zähler",
	"Binär", "Bytes",
}

// GallerySizes are the declared cell widths of the gallery columns.
var GallerySizes = []int{30, 8, 8, 2, 4, 17, 4, 4, 8, 11, 1, 4, 10, 255}

var galleryTypes = []types.FieldType{
	types.FieldAlpha, types.FieldNumber, types.FieldCurrency,
	types.FieldShort, types.FieldLong, types.FieldBcd, types.FieldDate,
	types.FieldTime, types.FieldTimestamp, types.FieldMemoBlob,
	types.FieldLogical, types.FieldAutoInc, types.FieldBinary,
	types.FieldBytes,
}

// Gallery blob payloads, shared between the .MB image and the
// assertions of blob round-trip tests.
var (
	GalleryMemo1   = []byte("Ein längeres Memo, das nicht in die Zelle passt.")
	GalleryMemo4   = []byte("kurz")
	GalleryBinary1 = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x01, 0x02, 0x03}
	GalleryBinary4 = []byte{0xDE, 0xAD, 0xBE, 0xEF}
)

// GalleryDate and friends pin the temporal cells of gallery row one.
var (
	GalleryDate      = time.Date(1995, 7, 26, 0, 0, 0, 0, time.UTC)
	GalleryTimestamp = time.Date(1995, 7, 26, 12, 30, 45, 0, time.UTC)
)

// TypeGalleryBuilder assembles the 14-type gallery table and its
// companion blob image: 5 records covering live values, an all-null
// record, negatives, and suballocated blobs.
func TypeGalleryBuilder() (*TableBuilder, *MBBuilder) {
	fields := make([]Field, len(GalleryFieldNames))
	for i, name := range GalleryFieldNames {
		fields[i] = Field{
			NameBytes: EncodeCP(name, charmap.Windows1252),
			Type:      galleryTypes[i],
			Size:      GallerySizes[i],
		}
	}
	b := &TableBuilder{Fields: fields, Codepage: 1252}
	mb := NewMBBuilder()

	memo1 := mb.AddSingleBlob(GalleryMemo1, 1)
	bin1 := mb.AddSingleBlob(GalleryBinary1, 2)
	sub := mb.AddSubBlock([][]byte{GalleryMemo4, GalleryBinary4}, []uint16{3, 4})

	b.AddRecord(
		CellAlphaBytes(EncodeCP("Vollständig", charmap.Windows1252), 30),
		CellNumber(3.14159),
		CellNumber(19.99),
		CellShort(12),
		CellLong(123456),
		CellBCD("12345.678901", 6),
		CellDate(GalleryDate),
		CellTime(12, 30, 45, 500),
		CellTimestamp(GalleryTimestamp),
		CellBlobExternal(memo1, 11),
		CellLogical(true),
		CellLong(1),
		CellBlobExternal(bin1, 10),
		CellBytes([]byte("drei"), 255),
	)
	// All cells null
	nulls := make([][]byte, len(fields))
	for i, f := range fields {
		nulls[i] = CellNull(f.Size)
	}
	b.AddRecord(nulls...)
	// Negative values
	b.AddRecord(
		CellAlpha("Negativ", 30),
		CellNumber(-273.15),
		CellNumber(-0.01),
		CellShort(-42),
		CellLong(-70000),
		CellBCD("-99.500000", 6),
		CellRawDate(5_000_000), // out of the sanity window, reads as null
		CellTime(0, 0, 0, 0),
		CellNull(8),
		CellNull(11),
		CellLogical(false),
		CellLong(2),
		CellNull(10),
		CellNull(255),
	)
	// Suballocated blobs
	b.AddRecord(
		CellAlpha("Unterbelegt", 30),
		CellNumber(2.71828),
		CellNumber(0.01),
		CellShort(-1),
		CellLong(-1),
		CellBCDSentinel(6),
		CellDate(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)),
		CellTime(23, 59, 59, 999),
		CellTimestamp(time.Date(2001, 1, 1, 0, 0, 1, 0, time.UTC)),
		CellBlobExternal(sub[0], 11),
		CellLogical(true),
		CellLong(3),
		CellBlobExternal(sub[1], 10),
		CellBytes([]byte{0x00, 0xFF}, 255),
	)
	// Zero-length blob reads as null
	b.AddRecord(
		CellAlpha("Leer", 30),
		CellNumber(0.0),
		CellNumber(100),
		CellShort(0),
		CellLong(0),
		CellBCD("0.000000", 6),
		CellDate(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)),
		CellTime(6, 0, 0, 0),
		CellTimestamp(time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC)),
		CellBlobInline(nil, 11, 0),
		CellLogical(false),
		CellLong(4),
		CellBlobInline(nil, 10, 0),
		CellBytes(nil, 255),
	)
	return b, mb
}

// EmptyBuilder assembles a table with seven fields and no records.
func EmptyBuilder() *TableBuilder {
	return &TableBuilder{
		Fields: []Field{
			{Name: "ID", Type: types.FieldAutoInc, Size: 4},
			{Name: "ScientificName", Type: types.FieldAlpha, Size: 40},
			{Name: "CommonName", Type: types.FieldAlpha, Size: 30},
			{Name: "Order", Type: types.FieldAlpha, Size: 20},
			{Name: "Genus", Type: types.FieldAlpha, Size: 20},
			{Name: "Notes", Type: types.FieldMemoBlob, Size: 11},
			{Name: "Picture", Type: types.FieldGraphic, Size: 10},
		},
		Codepage: 1252,
	}
}

// CP866Inventory holds the Cyrillic text cells of the CP866 fixture.
var CP866Inventory = []string{
	"Стол письменный", "Стул офисный", "Шкаф книжный", "Лампа настольная",
	"Сейф металлический", "Кресло кожаное", "Полка навесная", "Тумба выкатная",
}

// CP866Builder assembles a table whose names and values are CP866
// bytes. When declareCodepage is false the header leaves the codepage
// unset and decoding relies on an explicit encoding override.
func CP866Builder(declareCodepage bool) *TableBuilder {
	b := &TableBuilder{
		Fields: []Field{
			{NameBytes: EncodeCP("Инвентарный номер", charmap.CodePage866), Type: types.FieldAlpha, Size: 40},
			{NameBytes: EncodeCP("Количество", charmap.CodePage866), Type: types.FieldShort, Size: 2},
			{NameBytes: EncodeCP("Цена", charmap.CodePage866), Type: types.FieldNumber, Size: 8},
		},
	}
	if declareCodepage {
		b.Codepage = 866
	}
	for i, name := range CP866Inventory {
		b.AddRecord(
			CellAlphaBytes(EncodeCP(name, charmap.CodePage866), 40),
			CellShort(int16(i+1)),
			CellNumber(float64(i+1)*125.50),
		)
	}
	return b
}
