package uploadlib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/net/publicsuffix"

	"github.com/achterblog/fzpwuploader/pkg/logger"
	"github.com/achterblog/fzpwuploader/pkg/multipart"
)

// UploadConnection uploads files to a login-secured place.
type UploadConnection interface {
	// Login opens a new session. It fails with ErrInvalidState when the
	// connection is already logged in.
	Login(ctx context.Context, user, password string) (LoginStatus, error)
	// Upload sends one file and returns the URL it is reachable under.
	Upload(ctx context.Context, path string) (string, error)
	// Logout ends the session. It never fails loudly: false means the
	// server did not confirm the logout or the request broke. The status
	// is LOGGED_OUT afterwards in every case.
	Logout(ctx context.Context) bool
	// Disconnect drops all session state. Safe to call repeatedly.
	Disconnect()
	// Status returns the current LoginStatus.
	Status() LoginStatus
}

var _ UploadConnection = (*Connection)(nil)

// ConnectionOpts configures a Connection. The zero value is usable.
type ConnectionOpts struct {
	// Fs is where uploaded files are read from (default: OS filesystem).
	Fs afero.Fs
	// Logger receives protocol logs (default: discard).
	Logger logger.Logger
	// Timeout bounds every request (default: DEF_TIMEOUT).
	Timeout time.Duration
	// UserAgent identifies the client (default: DEF_USER_AGENT).
	UserAgent string
	// UploadHost is the host in the URLs of uploaded files
	// (default: DEF_UPLOAD_HOST).
	UploadHost string
	// Headers are added to every request.
	Headers Headers
	// Transport performs the requests (default: NewTransport(Proxy)).
	Transport http.RoundTripper
	// Proxy is an http, https or socks5 proxy URL. Ignored when Transport
	// is set.
	Proxy string
	// RateLimit caps the upload bandwidth in bytes per second (0: no limit).
	RateLimit int64
	// OnProgress observes upload bodies being sent.
	OnProgress ProgressFunc
}

// Connection is one login session with the forum. The HTTP client and its
// cookie jar are created on Login and dropped on Logout/Disconnect; they
// never leave the Connection. Operations are serialized.
type Connection struct {
	baseURL    string
	fs         afero.Fs
	l          logger.Logger
	timeout    time.Duration
	headers    Headers
	transport  http.RoundTripper
	onProgress ProgressFunc
	rateLimit  int64
	urlPattern *regexp.Regexp

	mu     sync.Mutex
	client *http.Client
	status atomic.Int32
}

// NewConnection creates a disconnected Connection for the forum script at
// baseURL. An empty baseURL means DEF_BASE_URL.
func NewConnection(baseURL string, opts *ConnectionOpts) (*Connection, error) {
	if opts == nil {
		opts = &ConnectionOpts{}
	}
	if baseURL == "" {
		baseURL = DEF_BASE_URL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}
	c := &Connection{
		baseURL:    baseURL,
		fs:         opts.Fs,
		l:          logger.OrNop(opts.Logger),
		timeout:    opts.Timeout,
		transport:  opts.Transport,
		onProgress: opts.OnProgress,
		rateLimit:  opts.RateLimit,
	}
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	if c.timeout <= 0 {
		c.timeout = DEF_TIMEOUT
	}
	if c.transport == nil {
		tr, err := NewTransport(opts.Proxy)
		if err != nil {
			return nil, err
		}
		c.transport = tr
	}
	host := opts.UploadHost
	if host == "" {
		host = DEF_UPLOAD_HOST
	}
	c.urlPattern = regexp.MustCompile(`(?i)https?://` + regexp.QuoteMeta(host) + `/dcf/User_files/[0-9a-f]+\.jpg`)

	ua := opts.UserAgent
	if ua == "" {
		ua = DEF_USER_AGENT
	}
	c.headers = append(Headers(nil), opts.Headers...)
	c.headers.Update(USER_AGENT_KEY, ua)
	c.status.Store(int32(StatusDisconnected))
	return c, nil
}

// Status returns the current LoginStatus. It does not wait for a running
// operation.
func (c *Connection) Status() LoginStatus {
	return LoginStatus(c.status.Load())
}

func (c *Connection) setStatus(s LoginStatus) {
	c.status.Store(int32(s))
}

// Login posts the credentials with a fresh, empty cookie jar and classifies
// the response. A non-200 answer is an *UploadError; transport failures are
// returned as they are, cancellation wraps ctx.Err().
func (c *Connection) Login(ctx context.Context, user, password string) (LoginStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Status() == StatusLoggedIn {
		return StatusLoggedIn, ErrLoginTwice
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return c.Status(), err
	}
	c.dropClient()
	c.client = &http.Client{
		Jar:           jar,
		Timeout:       c.timeout,
		Transport:     c.transport,
		CheckRedirect: redirectPolicy(DEF_MAX_REDIRECTS),
	}

	form := encodeForm(
		[2]string{"cmd", "login"},
		[2]string{"az", "login"},
		[2]string{"Username", user},
		[2]string{"Password", password},
	)
	req, err := c.newRequest(ctx, http.MethodPost, c.baseURL+"?az=login", strings.NewReader(form))
	if err != nil {
		return c.Status(), err
	}
	req.Header.Set(CONTENT_TYPE_KEY, FORM_CONTENT_TYPE)

	body, err := c.exchange(req)
	if err != nil {
		return c.Status(), fmt.Errorf("login: %w", err)
	}
	status := Classify(body)
	c.setStatus(status)
	c.l.Debug("LoginStatus for user %s: %s", user, status)
	return status, nil
}

// Upload sends path as a JPEG and returns the URL of the stored image
// found in the response.
func (c *Connection) Upload(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return "", ErrNotLoggedIn
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fi, err := c.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", err
	}
	name := filepath.Base(path)

	enc := multipart.NewEncoder(c.fs, Charset)
	defer enc.Close()
	if err := c.addUploadParts(enc, path); err != nil {
		return "", err
	}
	body, err := enc.Build()
	if err != nil {
		return "", err
	}

	target := c.baseURL + "?az=upload_file&forum="
	req, err := c.newRequest(ctx, http.MethodPost, target, withProgress(withRateLimit(body, c.rateLimit), path, c.onProgress))
	if err != nil {
		body.Close()
		return "", err
	}
	if size, err := enc.Size(); err == nil {
		req.ContentLength = size
	} else {
		c.l.Debug("Sending %s without content length: %v", name, err)
	}
	req.Header.Set(REFERER_KEY, target)
	req.Header.Set(CONTENT_TYPE_KEY, enc.ContentType())

	c.l.Debug("Uploading %s (%s)", name, humanize.Bytes(uint64(fi.Size())))
	resp, err := c.exchange(req)
	if err != nil {
		var ue *UploadError
		if errors.As(err, &ue) {
			return "", err
		}
		return "", fmt.Errorf("failed to upload file %s: %w", name, err)
	}

	uploadedURL := c.urlPattern.FindString(resp)
	if uploadedURL == "" {
		c.l.Info("The servers-response was:\n%s", resp)
		return "", ErrURLNotFound
	}
	c.l.Info("Successfully uploaded file %s to %s", name, uploadedURL)
	return uploadedURL, nil
}

func (c *Connection) addUploadParts(enc *multipart.Encoder, path string) error {
	if err := enc.AddText("az", "upload_file"); err != nil {
		return err
	}
	if err := enc.AddText("command", "save"); err != nil {
		return err
	}
	if err := enc.AddFile("file_upload", path, "", "image/jpeg"); err != nil {
		return err
	}
	return enc.AddText("file_type", "jpg")
}

// Logout asks the server to end the session. Whatever happens, the client
// state is discarded and the status becomes LOGGED_OUT.
func (c *Connection) Logout(ctx context.Context) (ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		c.dropClient()
		c.setStatus(StatusLoggedOut)
	}()

	if c.client == nil {
		c.l.Info("Logout without an open session")
		return false
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.baseURL+"?az=logout", nil)
	if err != nil {
		c.l.Info("Exception while logging out: %v", err)
		return false
	}
	body, err := c.exchange(req)
	if err != nil {
		c.l.Info("Exception while logging out: %v", err)
		return false
	}
	return IsLoggedOut(body)
}

// Disconnect forgets cookies and pooled connections and sets the status to
// DISCONNECTED.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropClient()
	c.setStatus(StatusDisconnected)
}

func (c *Connection) dropClient() {
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
}

func (c *Connection) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	c.headers.Set(req.Header)
	return req, nil
}

// exchange performs req and returns the decoded body of a 200 response.
func (c *Connection) exchange(req *http.Request) (string, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	c.l.Debug("URL %s returned %d", req.URL, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return "", newStatusError(resp.StatusCode)
	}
	b, err := io.ReadAll(Charset.Encoding.NewDecoder().Reader(resp.Body))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
