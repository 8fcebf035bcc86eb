// Package multipart encodes multipart/form-data request bodies as a
// lazily produced stream. File contents are read from the filesystem
// while the body is consumed and are never loaded into memory as a whole.
package multipart

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// Option configures an Encoder.
type Option func(*Encoder)

// WithBoundary replaces the random boundary generator.
func WithBoundary(gen func() string) Option {
	return func(e *Encoder) {
		e.boundary = gen()
	}
}

// Encoder collects an ordered list of parts and turns them into a single
// multipart/form-data stream. An Encoder is single use: once Build has been
// called no parts can be added.
//
// Close releases every file handle still held by readers returned from
// Build, so callers should always defer it.
type Encoder struct {
	fs       afero.Fs
	charset  Charset
	boundary string

	mu      sync.Mutex
	parts   []part
	built   bool
	readers map[*bodyReader]struct{}
}

// NewEncoder returns an Encoder reading files from fs and encoding text
// values with cs. A nil fs means the OS filesystem.
func NewEncoder(fs afero.Fs, cs Charset, opts ...Option) *Encoder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	e := &Encoder{
		fs:       fs,
		charset:  cs,
		boundary: uuid.NewString(),
		readers:  make(map[*bodyReader]struct{}),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Boundary returns the delimiter token of this body.
func (e *Encoder) Boundary() string {
	return e.boundary
}

// ContentType returns the value for the request's Content-Type header.
func (e *Encoder) ContentType() string {
	return "multipart/form-data; boundary=" + e.boundary
}

// AddText appends a text field.
func (e *Encoder) AddText(name, value string) error {
	return e.add(&textPart{name: name, value: value})
}

// AddFile appends a file field. An empty filename defaults to the base name
// of path, an empty contentType is probed from the file contents when the
// part is produced. The file must exist; whether it can actually be read is
// only checked while streaming.
func (e *Encoder) AddFile(name, path, filename, contentType string) error {
	ok, err := afero.Exists(e.fs, path)
	if err != nil {
		return err
	}
	if !ok {
		return &StateError{Msg: "File does not exist: " + path}
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	return e.add(
		&fileHeaderPart{name: name, path: path, filename: filename, contentType: contentType},
		&fileContentPart{path: path},
		lineBreakPart{},
	)
}

func (e *Encoder) add(parts ...part) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return ErrAlreadyBuilt
	}
	e.parts = append(e.parts, parts...)
	return nil
}

// Build finalizes the body by appending the closing boundary and returns a
// reader producing the encoded stream on demand. Parts are opened one at a
// time and closed before the next one is opened.
func (e *Encoder) Build() (io.ReadCloser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return nil, ErrAlreadyBuilt
	}
	if len(e.parts) == 0 {
		return nil, ErrNoParts
	}
	e.parts = append(e.parts, finalBoundaryPart{})
	e.built = true

	r := &bodyReader{enc: e, parts: e.parts}
	e.readers[r] = struct{}{}
	return r, nil
}

// Size returns the exact length of the built body. It fails when the
// length of a part cannot be determined, in which case the body can still
// be sent without a declared length.
func (e *Encoder) Size() (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.built {
		return 0, &StateError{Msg: "body not built yet"}
	}
	var total int64
	for _, p := range e.parts {
		n, err := p.size(e)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Close closes every reader created by Build. It is safe to call more
// than once and while a reader is being consumed on another goroutine.
func (e *Encoder) Close() error {
	e.mu.Lock()
	readers := make([]*bodyReader, 0, len(e.readers))
	for r := range e.readers {
		readers = append(readers, r)
	}
	e.mu.Unlock()

	var firstErr error
	for _, r := range readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (e *Encoder) forget(r *bodyReader) {
	e.mu.Lock()
	delete(e.readers, r)
	e.mu.Unlock()
}
