package paradox

import (
	"fmt"

	"github.com/yamaru/paradox-db-tool/internal/errs"
	"github.com/yamaru/paradox-db-tool/internal/reader"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

// Iterator yields the records of a document in block-list order. It is
// finite and not restartable; call Document.Records for a fresh pass.
type Iterator struct {
	doc    *Document
	gen    int
	blocks *reader.BlockIterator
	index  int64
	err    error
	warned bool
}

// Record is one decoded table row. The raw bytes are a private copy, so
// a Record stays valid after the iterator advances.
type Record struct {
	doc   *Document
	raw   []byte
	Index int64
}

// Next returns the next record. It returns false when the table is
// exhausted or iteration failed; check Err afterwards.
func (it *Iterator) Next() (Record, bool) {
	if it.err != nil {
		return Record{}, false
	}
	if it.doc.closed {
		it.err = it.doc.closedErr("next")
		return Record{}, false
	}
	if it.gen != it.doc.iterGen {
		it.err = errs.InvalidArgumentf("iterator superseded by a newer Records call")
		return Record{}, false
	}

	raw, ok := it.blocks.Next()
	if !ok {
		if err := it.blocks.Err(); err != nil {
			it.err = err
		} else if !it.warned {
			it.warned = true
			if got, want := it.blocks.Count(), it.doc.header.NumRecords; got != want {
				it.doc.Warn(types.Warning{
					Kind:    types.WarnRecordCountMismatch,
					Message: warnCountMessage(got, want),
				})
			}
		}
		return Record{}, false
	}

	rec := Record{
		doc:   it.doc,
		raw:   append([]byte(nil), raw...),
		Index: it.index,
	}
	it.index++
	return rec, true
}

// Err returns the error that terminated iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

func warnCountMessage(got, want uint32) string {
	return fmt.Sprintf("header declares %d records, block list yielded %d", want, got)
}

// Value decodes the cell at field index i.
func (r Record) Value(i int) (types.Value, error) {
	if r.doc == nil {
		return types.Null(), errs.InvalidArgumentf("zero record")
	}
	if r.doc.closed {
		return types.Null(), r.doc.closedErr("value")
	}
	fields := r.doc.schema.Fields
	if i < 0 || i >= len(fields) {
		return types.Null(), errs.InvalidArgumentf("field index %d out of range [0, %d)", i, len(fields))
	}
	off := 0
	for _, f := range fields[:i] {
		off += int(f.Size)
	}
	return r.doc.decoder.Decode(r.raw[off:off+int(fields[i].Size)], fields[i])
}

// Values decodes every cell of the record in schema order.
func (r Record) Values() ([]types.Value, error) {
	if r.doc == nil {
		return nil, errs.InvalidArgumentf("zero record")
	}
	if r.doc.closed {
		return nil, r.doc.closedErr("values")
	}
	values := make([]types.Value, len(r.doc.schema.Fields))
	off := 0
	for i, f := range r.doc.schema.Fields {
		v, err := r.doc.decoder.Decode(r.raw[off:off+int(f.Size)], f)
		if err != nil {
			return nil, err
		}
		values[i] = v
		off += int(f.Size)
	}
	return values, nil
}

// Table is the one-shot view of a whole file
type Table struct {
	Meta     Metadata
	Rows     [][]types.Value
	Warnings []types.Warning
}

// ReadTable opens path, decodes every record, and closes the document.
func ReadTable(path string, opts *Options) (*Table, error) {
	doc, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	meta, err := doc.Metadata()
	if err != nil {
		return nil, err
	}
	it, err := doc.Records()
	if err != nil {
		return nil, err
	}

	table := &Table{Meta: meta, Rows: make([][]types.Value, 0, meta.RecordCount)}
	for rec, ok := it.Next(); ok; rec, ok = it.Next() {
		values, err := rec.Values()
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, values)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	table.Warnings = doc.Warnings()
	return table, nil
}
