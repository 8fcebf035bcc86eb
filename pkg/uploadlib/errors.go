package uploadlib

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"

	"github.com/achterblog/fzpwuploader/pkg/multipart"
)

var (
	// ErrInvalidState marks programming errors: logging in twice, uploading
	// without a session, misusing a multipart body.
	ErrInvalidState = multipart.ErrInvalidState

	ErrLoginTwice   = &multipart.StateError{Msg: "Cannot login twice"}
	ErrNotLoggedIn  = &multipart.StateError{Msg: "not logged in"}
	ErrFileNotFound = errors.New("file not found")

	// ErrURLNotFound is returned by Upload when the server answered 200 but
	// the response carries no link to the uploaded file.
	ErrURLNotFound = &UploadError{Msg: "Could not find URL in the response"}
)

// UploadError is a protocol level failure: an unexpected HTTP status or a
// response without the expected content.
type UploadError struct {
	Msg        string
	StatusCode int
	Err        error
}

func newStatusError(code int) *UploadError {
	return &UploadError{
		Msg:        fmt.Sprintf("Unexpected http-return code: %d", code),
		StatusCode: code,
	}
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Is matches two UploadErrors carrying the same message and status, so
// errors.Is(err, ErrURLNotFound) works on wrapped values.
func (e *UploadError) Is(target error) bool {
	t, ok := target.(*UploadError)
	if !ok {
		return false
	}
	return t.Msg == e.Msg && t.StatusCode == e.StatusCode
}

// ErrorKind classifies an error for reporting.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindCanceled
	KindTimeout
	KindNetwork
	KindProtocol
	KindFile
	KindInvalidState
)

func (k ErrorKind) String() string {
	switch k {
	case KindCanceled:
		return "canceled"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	case KindFile:
		return "file"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// ClassifyError tells cancellation apart from broken networks, protocol
// errors and local file problems.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, ErrInvalidState) {
		return KindInvalidState
	}
	var ue *UploadError
	if errors.As(err, &ue) {
		return KindProtocol
	}
	if errors.Is(err, ErrFileNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return KindFile
	}
	var mpErr *multipart.StreamError
	if errors.As(err, &mpErr) {
		return KindFile
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"no such host",
		"network is unreachable",
		"eof",
	} {
		if strings.Contains(errStr, pattern) {
			return KindNetwork
		}
	}
	return KindUnknown
}

// IsCanceled reports whether err stems from a cancelled context or an
// expired deadline rather than a failure of the server or the network.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
