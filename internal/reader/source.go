package reader

import (
	"io"
	"os"

	"github.com/yamaru/paradox-db-tool/internal/errs"
)

// fileSource implements ByteSource over an os.File.
//
// All reads go through ReadAt so the .DB and .MB sources never disturb
// each other's cursor even when blob reads interleave with block reads.
type fileSource struct {
	file *os.File
	path string
	size int64
}

// OpenFile opens path read-only as a ByteSource.
func OpenFile(path string) (ByteSource, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound(path)
		}
		return nil, errs.IO(path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errs.IO(path, err)
	}
	return &fileSource{file: file, path: path, size: info.Size()}, nil
}

// ReadAt fills p with the bytes at absolute offset off
func (s *fileSource) ReadAt(p []byte, off int64) error {
	n, err := s.file.ReadAt(p, off)
	if err != nil && !(err == io.EOF && n == len(p)) {
		return errs.IO(s.path, err)
	}
	return nil
}

// Size returns the total size of the source in bytes
func (s *fileSource) Size() int64 {
	return s.size
}

// Path returns the file path backing the source
func (s *fileSource) Path() string {
	return s.path
}

// Close releases the underlying file handle
func (s *fileSource) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
