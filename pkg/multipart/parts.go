package multipart

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

const crlf = "\r\n"

// part is one element of the body. open is called lazily by the reader,
// never before the previous part has been fully consumed and closed.
type part interface {
	open(e *Encoder) (io.ReadCloser, error)
	size(e *Encoder) (int64, error)
}

func staticPart(b []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(b))
}

type textPart struct {
	name  string
	value string
}

func (p *textPart) bytes(e *Encoder) []byte {
	var buf bytes.Buffer
	buf.WriteString("--" + e.boundary + crlf)
	buf.WriteString(`Content-Disposition: form-data; name="` + p.name + `"` + crlf)
	buf.WriteString("Content-Type: text/plain; charset=" + e.charset.Name + crlf + crlf)
	buf.Write(e.charset.Bytes(p.value))
	buf.WriteString(crlf)
	return buf.Bytes()
}

func (p *textPart) open(e *Encoder) (io.ReadCloser, error) {
	return staticPart(p.bytes(e)), nil
}

func (p *textPart) size(e *Encoder) (int64, error) {
	return int64(len(p.bytes(e))), nil
}

// fileHeaderPart carries the disposition and content type of a file part.
// An empty contentType is probed from the file the first time it is needed.
type fileHeaderPart struct {
	name        string
	path        string
	filename    string
	contentType string

	mu sync.Mutex
}

func (p *fileHeaderPart) resolveContentType(e *Encoder) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.contentType != "" {
		return p.contentType, nil
	}
	f, err := e.fs.Open(p.path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("%s: probe content type: %w", p.path, err)
	}
	p.contentType = mt.String()
	return p.contentType, nil
}

func (p *fileHeaderPart) bytes(e *Encoder) ([]byte, error) {
	ct, err := p.resolveContentType(e)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("--" + e.boundary + crlf)
	buf.WriteString(`Content-Disposition: form-data; name="` + p.name + `"; filename="`)
	buf.Write(e.charset.Bytes(p.filename))
	buf.WriteString(`"` + crlf)
	buf.WriteString("Content-Type: " + ct + crlf + crlf)
	return buf.Bytes(), nil
}

func (p *fileHeaderPart) open(e *Encoder) (io.ReadCloser, error) {
	b, err := p.bytes(e)
	if err != nil {
		return nil, err
	}
	return staticPart(b), nil
}

func (p *fileHeaderPart) size(e *Encoder) (int64, error) {
	b, err := p.bytes(e)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// fileContentPart streams the file straight from the filesystem.
type fileContentPart struct {
	path string
}

func (p *fileContentPart) open(e *Encoder) (io.ReadCloser, error) {
	f, err := e.fs.Open(p.path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%s: not a regular file", p.path)
	}
	return f, nil
}

func (p *fileContentPart) size(e *Encoder) (int64, error) {
	fi, err := e.fs.Stat(p.path)
	if err != nil {
		return 0, err
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: not a regular file", p.path)
	}
	return fi.Size(), nil
}

type lineBreakPart struct{}

func (lineBreakPart) open(*Encoder) (io.ReadCloser, error) {
	return staticPart([]byte(crlf)), nil
}

func (lineBreakPart) size(*Encoder) (int64, error) {
	return int64(len(crlf)), nil
}

type finalBoundaryPart struct{}

func (finalBoundaryPart) open(e *Encoder) (io.ReadCloser, error) {
	return staticPart([]byte("--" + e.boundary + "--")), nil
}

func (finalBoundaryPart) size(e *Encoder) (int64, error) {
	return int64(len(e.boundary) + 4), nil
}
