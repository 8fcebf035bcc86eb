package uploadlib

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"
)

// DEF_MAX_REDIRECTS is the number of redirect hops a request may follow.
const DEF_MAX_REDIRECTS = 10

var (
	ErrInvalidProxyURL   = errors.New("invalid proxy URL")
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")

	// ErrTooManyRedirects is returned when a redirect chain exceeds
	// DEF_MAX_REDIRECTS hops.
	ErrTooManyRedirects = errors.New("redirect loop detected")
	// ErrCrossProtocolRedirect is returned when the forum redirects to a
	// non-HTTP scheme.
	ErrCrossProtocolRedirect = errors.New("cross-protocol redirect not supported")
)

var supportedProxySchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"socks5": true,
}

// ParseProxyURL validates an http, https or socks5 proxy address.
func ParseProxyURL(proxyURL string) (*url.URL, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyURL, proxyURL)
	}
	if !supportedProxySchemes[parsed.Scheme] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, parsed.Scheme)
	}
	return parsed, nil
}

// NewTransport returns a transport owned by one Connection. An empty
// proxyURL honours the proxy environment variables.
func NewTransport(proxyURL string) (*http.Transport, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		return tr, nil
	}
	parsed, err := ParseProxyURL(proxyURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme != "socks5" {
		tr.Proxy = http.ProxyURL(parsed)
		return tr, nil
	}

	var auth *proxy.Auth
	if parsed.User != nil {
		pass, _ := parsed.User.Password()
		auth = &proxy.Auth{User: parsed.User.Username(), Password: pass}
	}
	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return nil, err
	}
	tr.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		tr.DialContext = cd.DialContext
	} else {
		tr.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return tr, nil
}

// redirectPolicy limits redirect chains, refuses redirects away from
// http(s) and drops custom headers when the host changes.
func redirectPolicy(maxRedirects int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: exceeded %d hops (last URL: %s)",
				ErrTooManyRedirects, maxRedirects, via[len(via)-1].URL)
		}
		if len(via) == 0 {
			return nil
		}
		prev := via[len(via)-1]
		if !isHTTPScheme(req.URL.Scheme) {
			return fmt.Errorf("%w: %s -> %s",
				ErrCrossProtocolRedirect, prev.URL.Scheme, req.URL.Scheme)
		}
		if prev.URL.Host != req.URL.Host {
			stripUnsafeHeaders(req)
		}
		return nil
	}
}

func isHTTPScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// safeHeaders survive a redirect to another host.
var safeHeaders = map[string]bool{
	USER_AGENT_KEY:    true,
	"Accept":          true,
	"Accept-Language": true,
	"Accept-Encoding": true,
}

func stripUnsafeHeaders(req *http.Request) {
	for key := range req.Header {
		if !safeHeaders[http.CanonicalHeaderKey(key)] {
			req.Header.Del(key)
		}
	}
}
