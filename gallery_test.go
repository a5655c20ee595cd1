package paradox_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	paradox "github.com/yamaru/paradox-db-tool"
	"github.com/yamaru/paradox-db-tool/internal/types"
	"github.com/yamaru/paradox-db-tool/test/fixtures"
)

// GalleryTestSuite drives the 14-type gallery table end to end,
// covering every field type and the blob file round trip.
type GalleryTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *GalleryTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "paradox_gallery_test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *GalleryTestSuite) TearDownTest() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *GalleryTestSuite) openGallery() (*paradox.Table, error) {
	path, err := fixtures.CreateTypeGallery(suite.tempDir)
	suite.Require().NoError(err)
	return paradox.ReadTable(path, nil)
}

func (suite *GalleryTestSuite) TestMetadata() {
	table, err := suite.openGallery()
	suite.Require().NoError(err)

	suite.Assert().Equal(uint32(5), table.Meta.RecordCount)
	suite.Require().Len(table.Meta.Fields, 14)
	for i, f := range table.Meta.Fields {
		suite.Assert().Equal(fixtures.GalleryFieldNames[i], f.Name)
		suite.Assert().Equal(uint16(fixtures.GallerySizes[i]), f.Size)
	}

	typs := make([]string, 0, 14)
	for _, f := range table.Meta.Fields {
		typs = append(typs, f.Type.String())
	}
	suite.Assert().Equal([]string{
		"Alpha", "Number", "Currency", "Short", "Long", "BCD", "Date",
		"Time", "Timestamp", "Memo", "Logical", "Autoincrement",
		"Binary", "Bytes",
	}, typs)
}

func (suite *GalleryTestSuite) TestFullRecord() {
	table, err := suite.openGallery()
	suite.Require().NoError(err)
	suite.Require().Len(table.Rows, 5)
	row := table.Rows[0]

	suite.Assert().Equal("Vollständig", row[0].Str)
	suite.Assert().Equal(3.14159, row[1].Float)
	suite.Assert().Equal(19.99, row[2].Float)
	suite.Assert().Equal(int64(12), row[3].Int)
	suite.Assert().Equal(int64(123456), row[4].Int)
	suite.Assert().Equal("12345.678901", row[5].Str)
	suite.Assert().Equal(fixtures.GalleryDate, row[6].Date())
	suite.Assert().Equal("12:30:45.500", row[7].String())
	suite.Assert().InDelta(float64(fixtures.GalleryTimestamp.Unix()), row[8].Float, 1e-3)
	suite.Assert().Equal(string(fixtures.GalleryMemo1), row[9].Str)
	suite.Assert().Equal(types.BoolValue(true), row[10])
	suite.Assert().Equal(int64(1), row[11].Int)
	suite.Assert().Equal(fixtures.GalleryBinary1, row[12].Bytes)
	suite.Assert().Equal("drei", string(row[13].Bytes[:4]))
}

func (suite *GalleryTestSuite) TestAllNullRecord() {
	table, err := suite.openGallery()
	suite.Require().NoError(err)

	for i, v := range table.Rows[1] {
		suite.Assert().True(v.IsNull(), "field %d should be null", i)
	}
}

func (suite *GalleryTestSuite) TestNegativeValues() {
	table, err := suite.openGallery()
	suite.Require().NoError(err)
	row := table.Rows[2]

	suite.Assert().Equal(-273.15, row[1].Float)
	suite.Assert().Equal(-0.01, row[2].Float)
	suite.Assert().Equal(int64(-42), row[3].Int)
	suite.Assert().Equal(int64(-70000), row[4].Int)
	suite.Assert().Equal("-99.500000", row[5].Str)
	suite.Assert().True(row[6].IsNull(), "out-of-window date reads as null")
	suite.Assert().Equal(0.0, row[7].Float)
	suite.Assert().Equal(types.BoolValue(false), row[10])
}

func (suite *GalleryTestSuite) TestSuballocatedBlobs() {
	table, err := suite.openGallery()
	suite.Require().NoError(err)
	row := table.Rows[3]

	suite.Assert().Equal(string(fixtures.GalleryMemo4), row[9].Str)
	suite.Assert().Equal(fixtures.GalleryBinary4, row[12].Bytes)
	suite.Assert().True(row[5].IsNull(), "BCD sentinel reads as null")
}

func (suite *GalleryTestSuite) TestZeroLengthBlobsAreNull() {
	table, err := suite.openGallery()
	suite.Require().NoError(err)
	row := table.Rows[4]

	suite.Assert().True(row[9].IsNull())
	suite.Assert().True(row[12].IsNull())
	suite.Assert().False(row[1].IsNull(), "a live zero is not null")
	suite.Assert().Equal(0.0, row[1].Float)
}

func (suite *GalleryTestSuite) TestMissingBlobFile() {
	path, err := fixtures.CreateTypeGalleryWithoutBlob(suite.tempDir)
	suite.Require().NoError(err)

	table, err := paradox.ReadTable(path, nil)
	suite.Require().NoError(err)

	suite.Assert().True(table.Rows[0][9].IsNull())
	suite.Assert().True(table.Rows[0][12].IsNull())
	suite.Assert().True(table.Rows[3][9].IsNull())

	missing := 0
	for _, w := range table.Warnings {
		if w.Kind == types.WarnMissingBlob {
			missing++
		}
	}
	suite.Assert().Equal(1, missing, "missing blob file warns exactly once")
}

func (suite *GalleryTestSuite) TestBlobModifierMismatch() {
	// Rewrite the blob image so the memo's single-blob modifier is stale.
	b, mb := fixtures.TypeGalleryBuilder()
	data := mb.Bytes()
	data[4096+7]++ // bump the modifier of the first single-blob block
	suite.Require().NoError(os.WriteFile(suite.tempDir+"/typgallery.MB", data, 0o644))
	path, err := b.WriteFile(suite.tempDir, "typgallery.DB")
	suite.Require().NoError(err)

	table, err := paradox.ReadTable(path, nil)
	suite.Require().NoError(err)

	suite.Assert().True(table.Rows[0][9].IsNull(), "mismatched memo reads as null")
	suite.Assert().Equal(fixtures.GalleryBinary1, table.Rows[0][12].Bytes,
		"other blobs still resolve")

	found := false
	for _, w := range table.Warnings {
		if w.Kind == types.WarnBlobMismatch {
			found = true
		}
	}
	suite.Assert().True(found)
}

func TestGallerySuite(t *testing.T) {
	suite.Run(t, new(GalleryTestSuite))
}
