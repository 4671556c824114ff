// Package source reads component source files, memory-mapping them when the
// platform allows and falling back to a plain read otherwise.
package source

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/edsrzf/mmap-go"
)

// ErrUnavailable marks a source that is missing, unreadable or not a regular
// file.
var ErrUnavailable = errors.New("source unavailable")

// Reader opens source files. Implementations must be safe for concurrent use.
type Reader interface {
	Open(path string) (*File, error)
}

// File is an open source file. Data stays valid until Close.
type File struct {
	Path string
	Data []byte

	mapped mmap.MMap
	fd     *os.File
}

// Mapped reports whether Data is backed by a memory mapping.
func (f *File) Mapped() bool { return f.mapped != nil }

// Close unmaps the file and releases its descriptor. Safe to call twice.
func (f *File) Close() error {
	var errs []error
	if f.mapped != nil {
		errs = append(errs, f.mapped.Unmap())
		f.mapped = nil
	}
	if f.fd != nil {
		errs = append(errs, f.fd.Close())
		f.fd = nil
	}
	f.Data = nil
	return errors.Join(errs...)
}

// Stats are cumulative counters for a MmapReader.
type Stats struct {
	Opened       int64
	Failed       int64
	MmapFailures int64
	BytesRead    int64
}

// MmapReader is the default Reader. Files are mapped read-only; when mmap
// fails the whole file is read into memory instead.
type MmapReader struct {
	logger *slog.Logger

	opened, failed, mmapFailures, bytes atomic.Int64
}

// NewMmapReader creates a reader. A nil logger uses slog.Default.
func NewMmapReader(logger *slog.Logger) *MmapReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &MmapReader{logger: logger}
}

// Open maps path. Every error wraps ErrUnavailable.
func (r *MmapReader) Open(path string) (*File, error) {
	f, err := r.open(path)
	if err != nil {
		r.failed.Add(1)
		return nil, err
	}
	r.opened.Add(1)
	r.bytes.Add(int64(len(f.Data)))
	return f, nil
}

func (r *MmapReader) open(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	info, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("%w: stat %s: %w", ErrUnavailable, path, err)
	}
	if !info.Mode().IsRegular() {
		fd.Close()
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnavailable, path)
	}

	// Zero-length files cannot be mapped.
	if info.Size() == 0 {
		fd.Close()
		return &File{Path: path, Data: []byte{}}, nil
	}

	m, err := mmap.Map(fd, mmap.RDONLY, 0)
	if err != nil {
		r.mmapFailures.Add(1)
		r.logger.Warn("mmap failed, reading file", "file", path, "size", info.Size(), "error", err)
		fd.Close()

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, readErr)
		}
		return &File{Path: path, Data: data}, nil
	}
	return &File{Path: path, Data: m, mapped: m, fd: fd}, nil
}

// Stats returns a snapshot of the reader's counters.
func (r *MmapReader) Stats() Stats {
	return Stats{
		Opened:       r.opened.Load(),
		Failed:       r.failed.Load(),
		MmapFailures: r.mmapFailures.Load(),
		BytesRead:    r.bytes.Load(),
	}
}
