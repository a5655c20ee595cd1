// Package analyzer derives summary statistics from a decoded table.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/yamaru/paradox-db-tool/internal/types"
)

// FieldStats aggregates per-column observations over all records
type FieldStats struct {
	Name      string
	Type      types.FieldType
	NullCount uint64
	// MinNum / MaxNum bound the numeric, date, time and timestamp values
	// of the column; HasNum reports whether any such value was seen.
	MinNum, MaxNum float64
	HasNum         bool
	BlobBytes      uint64 // total resolved payload bytes for blob columns
}

// TableStats is the complete analysis of one table
type TableStats struct {
	RecordCount uint64
	FieldCount  int
	Fields      []FieldStats
	Warnings    []types.Warning
}

// Analyzer accumulates statistics record by record so the caller can
// stream a table through it without materializing all rows.
type Analyzer struct {
	stats TableStats
}

// New creates an analyzer for the given schema.
func New(schema *types.Schema) *Analyzer {
	a := &Analyzer{}
	a.stats.FieldCount = len(schema.Fields)
	a.stats.Fields = make([]FieldStats, len(schema.Fields))
	for i, f := range schema.Fields {
		a.stats.Fields[i].Name = f.Name
		a.stats.Fields[i].Type = f.Type
	}
	return a
}

// Observe folds one decoded record into the statistics.
func (a *Analyzer) Observe(values []types.Value) {
	a.stats.RecordCount++
	for i, v := range values {
		if i >= len(a.stats.Fields) {
			break
		}
		fs := &a.stats.Fields[i]
		if v.IsNull() {
			fs.NullCount++
			continue
		}
		switch v.Kind {
		case types.KindInt, types.KindDate:
			fs.observeNum(float64(v.Int))
		case types.KindFloat, types.KindTime, types.KindTimestamp:
			fs.observeNum(v.Float)
		case types.KindBytes:
			if fs.Type.IsBlob() {
				fs.BlobBytes += uint64(len(v.Bytes))
			}
		case types.KindText:
			if fs.Type.IsBlob() {
				fs.BlobBytes += uint64(len(v.Str))
			}
		}
	}
}

func (fs *FieldStats) observeNum(n float64) {
	if !fs.HasNum || n < fs.MinNum {
		fs.MinNum = n
	}
	if !fs.HasNum || n > fs.MaxNum {
		fs.MaxNum = n
	}
	fs.HasNum = true
}

// Finish attaches the document warnings and returns the result.
func (a *Analyzer) Finish(warnings []types.Warning) *TableStats {
	a.stats.Warnings = warnings
	return &a.stats
}

// Summary renders a human-readable report.
func (s *TableStats) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d records, %d fields\n", s.RecordCount, s.FieldCount)
	for _, fs := range s.Fields {
		fmt.Fprintf(&sb, "  %-20s %-13s nulls=%d", fs.Name, fs.Type, fs.NullCount)
		if fs.HasNum {
			fmt.Fprintf(&sb, " min=%g max=%g", fs.MinNum, fs.MaxNum)
		}
		if fs.BlobBytes > 0 {
			fmt.Fprintf(&sb, " blob_bytes=%d", fs.BlobBytes)
		}
		sb.WriteByte('\n')
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintf(&sb, "%d warnings:\n", len(s.Warnings))
		for _, w := range s.Warnings {
			fmt.Fprintf(&sb, "  %s\n", w)
		}
	}
	return sb.String()
}
