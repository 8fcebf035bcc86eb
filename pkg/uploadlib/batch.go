package uploadlib

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/achterblog/fzpwuploader/pkg/logger"
)

// ErrTaskTimeout is reported for a file whose upload did not finish within
// the task timeout.
var ErrTaskTimeout = errors.New("upload timed out")

// BatchCallback is told about the outcome of every file of a batch, once
// per file. The methods run on the batch worker and must not block.
type BatchCallback interface {
	Uploaded(path string)
	Failed(path string)
}

// BatchCallbackFuncs adapts two functions to BatchCallback. Nil fields are
// skipped.
type BatchCallbackFuncs struct {
	OnUploaded func(path string)
	OnFailed   func(path string)
}

func (f BatchCallbackFuncs) Uploaded(path string) {
	if f.OnUploaded != nil {
		f.OnUploaded(path)
	}
}

func (f BatchCallbackFuncs) Failed(path string) {
	if f.OnFailed != nil {
		f.OnFailed(path)
	}
}

// BatchOpts contains options for a Batch.
type BatchOpts struct {
	Username string
	Password string
	// Callback observes per-file outcomes. Optional.
	Callback BatchCallback
	Logger   logger.Logger
	// TaskTimeout bounds the wait for each file (default: DEF_TASK_TIMEOUT).
	TaskTimeout time.Duration
	// CleanupTimeout bounds logout once the caller's context is done
	// (default: DEF_CLEANUP_TIMEOUT).
	CleanupTimeout time.Duration
}

// BatchEntry is the outcome of one file.
type BatchEntry struct {
	Path string
	URL  string
	Err  error
}

// Name returns the base name of the uploaded file.
func (e BatchEntry) Name() string {
	return filepath.Base(e.Path)
}

// BatchResult contains the results of a batch upload.
type BatchResult struct {
	// Username is the account the batch logged in with.
	Username string
	// LoginStatus is the status Login returned.
	LoginStatus LoginStatus
	// LoginErr is set when the login request itself failed.
	LoginErr error
	// Entries holds one entry per collected file, in submission order.
	Entries []BatchEntry
	// Total is the number of submitted files.
	Total     int
	Succeeded int
	Failed    int
	// Interrupted is set when the caller cancelled the batch before every
	// result was collected.
	Interrupted bool
	// LoggedOut reports whether the server confirmed the logout.
	LoggedOut bool
}

func (r *BatchResult) addSuccess(path, url string) {
	r.Succeeded++
	r.Entries = append(r.Entries, BatchEntry{Path: path, URL: url})
}

func (r *BatchResult) addError(path string, err error) {
	r.Failed++
	r.Entries = append(r.Entries, BatchEntry{Path: path, Err: err})
}

func (r *BatchResult) collect(path string, tr taskResult) {
	if tr.err != nil {
		r.addError(path, tr.err)
		return
	}
	r.addSuccess(path, tr.url)
}

// IsSuccess returns true if the login worked and no file failed or went
// missing.
func (r *BatchResult) IsSuccess() bool {
	return r.LoginStatus == StatusLoggedIn && r.LoginErr == nil &&
		!r.Interrupted && r.Failed == 0
}

// Report renders the human readable result: the URL and file name of every
// upload, a line per failure, or the login failure.
func (r *BatchResult) Report() string {
	if r.LoginErr != nil {
		return fmt.Sprintf("Failed to login user %s: %v", r.Username, r.LoginErr)
	}
	if r.LoginStatus != StatusLoggedIn {
		return fmt.Sprintf("Failed to login user %s: %s", r.Username, r.LoginStatus)
	}
	var sb strings.Builder
	for _, e := range r.Entries {
		if e.Err != nil {
			sb.WriteString(fmt.Sprintf("Failed to upload %s: %v\n\n", e.Name(), e.Err))
			continue
		}
		sb.WriteString(e.URL)
		sb.WriteString("\n")
		sb.WriteString(e.Name())
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Batch uploads a list of files through one UploadConnection: one login,
// one upload at a time, and a logout plus disconnect on every path.
type Batch struct {
	conn           UploadConnection
	user           string
	password       string
	cb             BatchCallback
	l              logger.Logger
	taskTimeout    time.Duration
	cleanupTimeout time.Duration
}

// NewBatch creates a Batch driving conn. The Batch owns conn for the
// duration of each Run.
func NewBatch(conn UploadConnection, opts *BatchOpts) *Batch {
	if opts == nil {
		opts = &BatchOpts{}
	}
	b := &Batch{
		conn:           conn,
		user:           opts.Username,
		password:       opts.Password,
		cb:             opts.Callback,
		l:              logger.OrNop(opts.Logger),
		taskTimeout:    opts.TaskTimeout,
		cleanupTimeout: opts.CleanupTimeout,
	}
	if b.cb == nil {
		b.cb = BatchCallbackFuncs{}
	}
	if b.taskTimeout <= 0 {
		b.taskTimeout = DEF_TASK_TIMEOUT
	}
	if b.cleanupTimeout <= 0 {
		b.cleanupTimeout = DEF_CLEANUP_TIMEOUT
	}
	return b
}

// Upload runs the batch and returns its report. Entries collected before an
// interruption stay in the report.
func (b *Batch) Upload(ctx context.Context, files []string) string {
	res, _ := b.Run(ctx, files)
	return res.Report()
}

type taskResult struct {
	url string
	err error
}

type uploadTask struct {
	path   string
	ctx    context.Context
	cancel context.CancelFunc
	result chan taskResult
}

// Run logs in, uploads files in order on a single worker and collects the
// results. The returned error is ctx.Err() when the caller cancelled the
// batch; upload failures are recorded in the result instead.
func (b *Batch) Run(ctx context.Context, files []string) (*BatchResult, error) {
	res := &BatchResult{Username: b.user, Total: len(files)}
	defer b.cleanup(ctx, res)

	status, err := b.conn.Login(ctx, b.user, b.password)
	res.LoginStatus = status
	if err != nil {
		res.LoginErr = err
		b.l.Error("Failed to login user %s: %v", b.user, err)
		if ctx.Err() != nil {
			res.Interrupted = true
			return res, ctx.Err()
		}
		return res, nil
	}
	if status != StatusLoggedIn {
		b.l.Error("Failed to login user %s: %s", b.user, status)
		return res, nil
	}

	tasks := make(chan *uploadTask, len(files))
	pending := make([]*uploadTask, 0, len(files))
	for _, f := range files {
		tctx, cancel := context.WithCancel(ctx)
		t := &uploadTask{path: f, ctx: tctx, cancel: cancel, result: make(chan taskResult, 1)}
		pending = append(pending, t)
		tasks <- t
	}
	close(tasks)

	var wg sync.WaitGroup
	wg.Add(1)
	safeGo(b.l, &wg, "batch worker", nil, func() {
		for t := range tasks {
			b.runTask(t)
		}
	})
	defer func() {
		for _, t := range pending {
			t.cancel()
		}
	}()

wait:
	for _, t := range pending {
		timer := time.NewTimer(b.taskTimeout)
		select {
		case r := <-t.result:
			timer.Stop()
			res.collect(t.path, r)
		case <-timer.C:
			t.cancel()
			b.l.Error("Upload of %s did not finish within %s", t.path, b.taskTimeout)
			res.addError(t.path, fmt.Errorf("%w after %s", ErrTaskTimeout, b.taskTimeout))
		case <-ctx.Done():
			timer.Stop()
			select {
			case r := <-t.result:
				res.collect(t.path, r)
			default:
			}
			res.Interrupted = true
			b.l.Warning("Batch interrupted, %d of %d results collected", len(res.Entries), res.Total)
			break wait
		}
	}

	// The worker must be idle before logout runs.
	wg.Wait()
	if res.Interrupted {
		return res, ctx.Err()
	}
	return res, nil
}

// runTask uploads one file and reports it to the callback exactly once.
func (b *Batch) runTask(t *uploadTask) {
	var url string
	err := t.ctx.Err()
	if err == nil {
		b.l.Info("Starting upload of file %s", t.path)
		err = safeCall(b.l, "upload "+t.path, func() error {
			var uerr error
			url, uerr = b.conn.Upload(t.ctx, t.path)
			return uerr
		})
	}
	if err != nil {
		b.l.Error("Upload of file %s failed: %v", t.path, err)
		b.cb.Failed(t.path)
		t.result <- taskResult{err: err}
		return
	}
	b.cb.Uploaded(t.path)
	t.result <- taskResult{url: url}
}

func (b *Batch) cleanup(ctx context.Context, res *BatchResult) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.cleanupTimeout)
	defer cancel()
	res.LoggedOut = b.conn.Logout(cctx)
	if !res.LoggedOut {
		b.l.Error("The logout failed, the user may still be logged in")
	}
	b.conn.Disconnect()
}
