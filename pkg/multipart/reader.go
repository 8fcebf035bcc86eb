package multipart

import (
	"io"
	"sync"
)

// bodyReader pulls bytes from one part stream at a time. It holds at most
// one open file handle.
type bodyReader struct {
	mu     sync.Mutex
	enc    *Encoder
	parts  []part
	next   int
	cur    io.ReadCloser
	err    error
	closed bool
}

func (r *bodyReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	if r.err != nil {
		return 0, r.err
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if r.cur == nil {
			if r.next >= len(r.parts) {
				return 0, io.EOF
			}
			rc, err := r.parts[r.next].open(r.enc)
			r.next++
			if err != nil {
				r.err = &StreamError{Err: err}
				return 0, r.err
			}
			r.cur = rc
		}
		n, err := r.cur.Read(p)
		switch {
		case err == io.EOF:
			if cerr := r.closeCurrent(); cerr != nil {
				r.err = &StreamError{Err: cerr}
				return n, r.err
			}
			if n > 0 {
				return n, nil
			}
		case err != nil:
			r.closeCurrent()
			r.err = &StreamError{Err: err}
			return n, r.err
		case n > 0:
			return n, nil
		}
	}
}

func (r *bodyReader) closeCurrent() error {
	if r.cur == nil {
		return nil
	}
	err := r.cur.Close()
	r.cur = nil
	return err
}

// Close releases the currently open part stream, if any.
func (r *bodyReader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	err := r.closeCurrent()
	r.mu.Unlock()

	r.enc.forget(r)
	return err
}
