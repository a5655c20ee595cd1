// Package paradox decodes legacy Paradox database tables.
//
// A table is a fixed-record .DB file, optionally paired with a .MB blob
// file holding memo and binary payloads, and optionally obfuscated by a
// password-derived XOR stream. The package exposes a handle API:
//
//	doc, err := paradox.Open("country.db", nil)
//	if err != nil { ... }
//	defer doc.Close()
//
//	meta, err := doc.Metadata()
//	it, err := doc.Records()
//	for rec, ok := it.Next(); ok; rec, ok = it.Next() {
//		values, err := rec.Values()
//		...
//	}
//
// and a one-shot ReadTable for callers that want the whole table at
// once. Field values decode to the neutral variants in internal/types;
// text cells are recoded from the table codepage to UTF-8.
package paradox

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/yamaru/paradox-db-tool/internal/codepage"
	"github.com/yamaru/paradox-db-tool/internal/errs"
	"github.com/yamaru/paradox-db-tool/internal/parser"
	"github.com/yamaru/paradox-db-tool/internal/reader"
	"github.com/yamaru/paradox-db-tool/internal/types"
)

// Options configures Open
type Options struct {
	// Encoding overrides the codepage detected in the header for all
	// text decoding, e.g. "cp866". Empty means use the header codepage.
	Encoding string

	// Password unlocks an encrypted table. Ignored for plaintext files.
	Password string
}

// Document is an open Paradox table handle
type Document struct {
	db     reader.ByteSource
	blobs  *reader.MBFile
	header *types.Header
	schema *types.Schema

	cpLabel  string
	dec      *reader.Decryptor
	decoder  *parser.FieldDecoder
	warnings []types.Warning

	iterGen int
	closed  bool
}

// FieldInfo describes one column in the metadata view
type FieldInfo struct {
	Name string
	Type types.FieldType
	Size uint16
}

// Metadata is the schema-level view of an open document
type Metadata struct {
	RecordCount uint32
	FieldCount  uint16
	Codepage    string
	Fields      []FieldInfo
}

// Open opens the .DB file at path and its companion .MB file when one
// exists next to it (case-insensitive extension match). The returned
// document stays valid until Close.
func Open(path string, opts *Options) (*Document, error) {
	if opts == nil {
		opts = &Options{}
	}
	if strings.TrimSpace(path) == "" {
		return nil, errs.InvalidArgumentf("empty table path")
	}

	db, err := reader.OpenFile(path)
	if err != nil {
		return nil, err
	}
	doc := &Document{db: db}
	if err := doc.init(path, opts); err != nil {
		doc.closeSources()
		return nil, err
	}
	return doc, nil
}

func (d *Document) init(path string, opts *Options) error {
	header, err := reader.ParseHeader(d.db)
	if err != nil {
		return err
	}
	d.header = header

	d.dec, err = reader.NewDecryptor(header, opts.Password)
	if err != nil {
		return err
	}

	d.cpLabel = codepage.Label(header.Codepage)
	if opts.Encoding != "" {
		d.cpLabel = opts.Encoding
	}

	d.schema, err = reader.ParseSchema(d.db, header, d.cpLabel)
	if err != nil {
		return err
	}

	// A missing companion file is not an open error: the field decoder
	// warns once and yields nulls when a blob cell is actually read.
	if d.expectBlobFile() {
		if mbPath, ok := findBlobFile(path); ok {
			src, err := reader.OpenFile(mbPath)
			if err != nil {
				return err
			}
			d.blobs = reader.NewMBFile(src)
		}
	}

	var resolver parser.BlobResolver
	if d.blobs != nil {
		resolver = d.blobs
	}
	d.decoder = parser.NewFieldDecoder(d.cpLabel, resolver, d)
	return nil
}

// expectBlobFile reports whether a companion .MB should exist.
func (d *Document) expectBlobFile() bool {
	if d.header.FileType == types.FileTypeDataBlob {
		return true
	}
	for _, f := range d.schema.Fields {
		if f.Type.IsBlob() {
			return true
		}
	}
	return false
}

// findBlobFile locates the companion blob file: same directory, same
// base name, .mb extension in any letter case.
func findBlobFile(dbPath string) (string, bool) {
	dir := filepath.Dir(dbPath)
	base := filepath.Base(dbPath)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		name := e.Name()
		if i := strings.LastIndexByte(name, '.'); i >= 0 &&
			strings.EqualFold(name[:i], base) && strings.EqualFold(name[i:], ".mb") {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// Warn records a non-fatal condition on the document. It implements
// parser.WarningSink.
func (d *Document) Warn(w types.Warning) {
	d.warnings = append(d.warnings, w)
}

// Warnings returns the warnings accumulated so far.
func (d *Document) Warnings() []types.Warning {
	out := make([]types.Warning, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// Metadata returns the schema-level view of the table. Safe to call any
// number of times; the result is a fresh copy.
func (d *Document) Metadata() (Metadata, error) {
	if d.closed {
		return Metadata{}, d.closedErr("metadata")
	}
	meta := Metadata{
		RecordCount: d.header.NumRecords,
		FieldCount:  uint16(d.header.FieldCount),
		Codepage:    d.cpLabel,
		Fields:      make([]FieldInfo, len(d.schema.Fields)),
	}
	for i, f := range d.schema.Fields {
		meta.Fields[i] = FieldInfo{Name: f.Name, Type: f.Type, Size: f.Size}
	}
	return meta, nil
}

// Schema exposes the parsed field descriptors.
func (d *Document) Schema() *types.Schema {
	return d.schema
}

// Header exposes the parsed file header.
func (d *Document) Header() *types.Header {
	return d.header
}

// Records starts an iteration over the table in block-list order.
// Starting a new iteration invalidates any previous iterator; the
// document supports one live iterator at a time.
func (d *Document) Records() (*Iterator, error) {
	if d.closed {
		return nil, d.closedErr("records")
	}
	d.iterGen++
	return &Iterator{
		doc:    d,
		gen:    d.iterGen,
		blocks: reader.NewBlockIterator(d.db, d.header, d.dec),
	}, nil
}

// Close releases the file handles. Further operations on the document
// fail with ErrInvalidHandle. Close is idempotent.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.closeSources()
}

func (d *Document) closeSources() error {
	err := d.db.Close()
	if d.blobs != nil {
		if mberr := d.blobs.Close(); err == nil {
			err = mberr
		}
	}
	return err
}

func (d *Document) closedErr(op string) error {
	return errors.Mark(
		errors.Newf("%s: operation on closed document handle", op),
		errs.ErrInvalidHandle)
}
