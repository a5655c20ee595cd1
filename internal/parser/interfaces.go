package parser

import "github.com/yamaru/paradox-db-tool/internal/types"

//go:generate mockgen -source=interfaces.go -destination=mocks/parser_mock.go -package=mocks

// BlobResolver fetches external blob payloads from a companion .MB file.
// Implemented by reader.MBFile; nil when the table has no blob file.
type BlobResolver interface {
	// Resolve returns the payload bytes for an external blob reference
	Resolve(ref types.BlobRef) ([]byte, error)
}

// WarningSink collects non-fatal conditions found while decoding cells
type WarningSink interface {
	// Warn records one warning on the document
	Warn(w types.Warning)
}
