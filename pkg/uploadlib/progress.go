package uploadlib

import "io"

// ProgressFunc is told how many bytes of a request body for path were
// handed to the transport. It runs on the transport's goroutine and must
// not block.
type ProgressFunc func(path string, n int)

type progressReader struct {
	io.ReadCloser
	path string
	fn   ProgressFunc
}

func withProgress(rc io.ReadCloser, path string, fn ProgressFunc) io.ReadCloser {
	if fn == nil {
		return rc
	}
	return &progressReader{ReadCloser: rc, path: path, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.ReadCloser.Read(b)
	if n > 0 {
		p.fn(p.path, n)
	}
	return n, err
}
