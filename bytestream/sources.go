package bytestream

import (
	"io"
	"os"
	"sync"
)

// MemorySource is a RawSource backed by an in-memory byte slice, useful for
// tests and for small WXR fixtures.
type MemorySource struct {
	data []byte
}

// NewMemorySource wraps p as a RawSource. p is not copied.
func NewMemorySource(p []byte) *MemorySource {
	return &MemorySource{data: p}
}

func (m *MemorySource) Len() int64 { return int64(len(m.data)) }

func (m *MemorySource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, &ByteStreamError{Reason: "invalid_offset"}
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemorySource) Close() error { return nil }

// FileSource is a RawSource backed by an *os.File, seekable for free
// within the OS page cache and beyond the Source's own retained window.
type FileSource struct {
	f    *os.File
	size int64
}

// NewFileSource opens path for reading.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ByteStreamError{Reason: "io", Err: err}
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &ByteStreamError{Reason: "io", Err: err}
	}
	return &FileSource{f: f, size: fi.Size()}, nil
}

func (fs *FileSource) Len() int64 { return fs.size }

func (fs *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return fs.f.ReadAt(p, off)
}

func (fs *FileSource) Close() error { return fs.f.Close() }

// AppendSource is a RawSource for producer/consumer streaming: a caller
// calls Append as more bytes of the upstream document arrive (over a
// network connection, say) and MarkFinished once the document is
// complete. Len reports -1 until MarkFinished is called, matching §4.1's
// "length() may be unknown".
type AppendSource struct {
	mu       sync.Mutex
	data     []byte
	finished bool
}

// NewAppendSource returns an empty, unfinished AppendSource.
func NewAppendSource() *AppendSource {
	return &AppendSource{}
}

// Append adds more bytes to the end of the source.
func (a *AppendSource) Append(p []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = append(a.data, p...)
}

// MarkFinished records that no more bytes will ever be appended.
func (a *AppendSource) MarkFinished() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished = true
}

func (a *AppendSource) Len() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.finished {
		return -1
	}
	return int64(len(a.data))
}

func (a *AppendSource) ReadAt(p []byte, off int64) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if off < 0 || off > int64(len(a.data)) {
		return 0, &ByteStreamError{Reason: "invalid_offset"}
	}
	n := copy(p, a.data[off:])
	if n < len(p) {
		if a.finished {
			return n, io.EOF
		}
		// Not finished: report a short read without EOF so Pull's
		// NoMoreThan mode can distinguish "wait for more" from
		// end-of-stream.
		return n, nil
	}
	return n, nil
}

func (a *AppendSource) Close() error { return nil }
