// Package mmap provides memory-mapped reading of input documents
package mmap

import (
	"os"
	"sync"

	"github.com/ajitpratap0/rootflat/pkg/errors"
)

// Reader exposes a whole file as a read-only byte slice. On platforms
// without mmap the file is read into memory instead.
type Reader struct {
	file   *os.File
	data   []byte
	mapped bool

	mu     sync.Mutex
	closed bool
}

// NewReader maps filename into memory
func NewReader(filename string) (*Reader, error) {
	file, err := os.Open(filename) //nolint:gosec // G304: path is controlled by caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file")
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat file")
	}

	r := &Reader{file: file}
	if stat.Size() == 0 {
		// zero-length mappings are rejected by the kernel
		return r, nil
	}

	data, mapped, err := mapFile(file, int(stat.Size()))
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to map file")
	}
	r.data = data
	r.mapped = mapped
	return r, nil
}

// Bytes returns the file contents. The slice is invalid after Close.
func (r *Reader) Bytes() []byte {
	return r.data
}

// Len returns the file size
func (r *Reader) Len() int {
	return len(r.data)
}

// Mapped reports whether the contents are backed by a memory mapping
func (r *Reader) Mapped() bool {
	return r.mapped
}

// Close unmaps the data and closes the file. It is safe to call twice.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.mapped {
		err = unmapFile(r.data)
	}
	r.data = nil
	if cerr := r.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close mapped file")
	}
	return nil
}
