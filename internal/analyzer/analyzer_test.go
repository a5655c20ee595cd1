package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamaru/paradox-db-tool/internal/types"
)

func testSchema() *types.Schema {
	return &types.Schema{
		Fields: []types.FieldDesc{
			{Name: "Name", Type: types.FieldAlpha, Size: 24},
			{Name: "Area", Type: types.FieldNumber, Size: 8},
			{Name: "Picture", Type: types.FieldGraphic, Size: 10},
		},
		RecordSize: 42,
	}
}

func TestAnalyzerStats(t *testing.T) {
	a := New(testSchema())
	a.Observe([]types.Value{types.TextValue("Chile"), types.FloatValue(756943), types.BytesValue([]byte{1, 2, 3})})
	a.Observe([]types.Value{types.TextValue("Peru"), types.FloatValue(1285215), types.Null()})
	a.Observe([]types.Value{types.Null(), types.Null(), types.BytesValue([]byte{4})})

	stats := a.Finish(nil)
	require.Equal(t, uint64(3), stats.RecordCount)
	require.Len(t, stats.Fields, 3)

	assert.Equal(t, uint64(1), stats.Fields[0].NullCount)
	assert.Equal(t, uint64(1), stats.Fields[1].NullCount)
	assert.True(t, stats.Fields[1].HasNum)
	assert.Equal(t, 756943.0, stats.Fields[1].MinNum)
	assert.Equal(t, 1285215.0, stats.Fields[1].MaxNum)
	assert.Equal(t, uint64(4), stats.Fields[2].BlobBytes)
}

func TestAnalyzerSummary(t *testing.T) {
	a := New(testSchema())
	a.Observe([]types.Value{types.TextValue("Cuba"), types.FloatValue(114524), types.Null()})

	warnings := []types.Warning{{Kind: types.WarnMissingBlob, Message: "no .MB file"}}
	summary := a.Finish(warnings).Summary()

	assert.Contains(t, summary, "1 records, 3 fields")
	assert.Contains(t, summary, "Area")
	assert.Contains(t, summary, "min=114524")
	assert.Contains(t, summary, "MISSING_BLOB")
}

func TestAnalyzerEmptyTable(t *testing.T) {
	stats := New(testSchema()).Finish(nil)
	assert.Equal(t, uint64(0), stats.RecordCount)
	summary := stats.Summary()
	assert.Contains(t, summary, "0 records, 3 fields")
	assert.Contains(t, summary, "nulls=0")
	assert.NotContains(t, summary, "warnings")
}
