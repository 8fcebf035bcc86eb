package uploadlib

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseProxyURL(t *testing.T) {
	for _, good := range []string{"http://proxy:3128", "https://u:p@proxy", "socks5://127.0.0.1:1080"} {
		if _, err := ParseProxyURL(good); err != nil {
			t.Errorf("ParseProxyURL(%q): %v", good, err)
		}
	}
	if _, err := ParseProxyURL("ftp://proxy:21"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("ftp proxy: got %v, want ErrUnsupportedScheme", err)
	}
	for _, bad := range []string{"proxy:3128", "http://", "::"} {
		if _, err := ParseProxyURL(bad); !errors.Is(err, ErrInvalidProxyURL) {
			t.Errorf("ParseProxyURL(%q): got %v, want ErrInvalidProxyURL", bad, err)
		}
	}
}

func TestNewTransport(t *testing.T) {
	t.Run("http proxy", func(t *testing.T) {
		tr, err := NewTransport("http://proxy.local:3128")
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest(http.MethodGet, "http://freizeitparkweb.de/", nil)
		u, err := tr.Proxy(req)
		if err != nil || u == nil || u.Host != "proxy.local:3128" {
			t.Fatalf("Proxy() = %v, %v", u, err)
		}
	})
	t.Run("socks5 proxy", func(t *testing.T) {
		tr, err := NewTransport("socks5://user:pw@127.0.0.1:1080")
		if err != nil {
			t.Fatal(err)
		}
		if tr.Proxy != nil || tr.DialContext == nil {
			t.Fatal("socks5 transport must dial through the proxy")
		}
	})
	t.Run("invalid", func(t *testing.T) {
		if _, err := NewTransport("nonsense"); err == nil {
			t.Fatal("expected an error")
		}
	})
	t.Run("not shared", func(t *testing.T) {
		a, _ := NewTransport("")
		b, _ := NewTransport("")
		if a == b || a == http.DefaultTransport {
			t.Fatal("transports must be private to the caller")
		}
	})
}

func TestConnection_ThroughHTTPProxy(t *testing.T) {
	f, _ := newFakeForum(t)
	var proxied []string
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = append(proxied, r.URL.Host)
		f.handle(w, r)
	}))
	defer proxySrv.Close()

	c, err := NewConnection("http://forum.example/cgi-bin/dcf/dcboard.cgi", &ConnectionOpts{Proxy: proxySrv.URL})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Disconnect()
	status, err := c.Login(context.Background(), "bob", "pw")
	if err != nil || status != StatusLoggedIn {
		t.Fatalf("Login = %s, %v", status, err)
	}
	if len(proxied) != 1 || proxied[0] != "forum.example" {
		t.Fatalf("proxied hosts = %v", proxied)
	}
}

func TestNewConnection_BadProxy(t *testing.T) {
	if _, err := NewConnection("", &ConnectionOpts{Proxy: "gopher://x"}); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("got %v, want ErrUnsupportedScheme", err)
	}
}

func hops(n int, host string) []*http.Request {
	via := make([]*http.Request, n)
	for i := range via {
		via[i] = &http.Request{URL: &url.URL{Scheme: "http", Host: host, Path: fmt.Sprintf("/%d", i)}}
	}
	return via
}

func TestRedirectPolicy(t *testing.T) {
	policy := redirectPolicy(3)

	t.Run("within limit", func(t *testing.T) {
		req := &http.Request{URL: &url.URL{Scheme: "http", Host: "a"}, Header: http.Header{}}
		if err := policy(req, hops(2, "a")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	t.Run("too many hops", func(t *testing.T) {
		req := &http.Request{URL: &url.URL{Scheme: "http", Host: "a"}, Header: http.Header{}}
		err := policy(req, hops(3, "a"))
		if !errors.Is(err, ErrTooManyRedirects) || !strings.Contains(err.Error(), "/2") {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("cross protocol", func(t *testing.T) {
		req := &http.Request{URL: &url.URL{Scheme: "ftp", Host: "a"}, Header: http.Header{}}
		if err := policy(req, hops(1, "a")); !errors.Is(err, ErrCrossProtocolRedirect) {
			t.Fatalf("got %v", err)
		}
	})
	t.Run("cross origin strips custom headers", func(t *testing.T) {
		req := &http.Request{URL: &url.URL{Scheme: "https", Host: "b"}, Header: http.Header{}}
		req.Header.Set("User-Agent", "fzpwup")
		req.Header.Set("Referer", "http://a/upload")
		req.Header.Set("X-Forum-Token", "geheim")
		if err := policy(req, hops(1, "a")); err != nil {
			t.Fatal(err)
		}
		if req.Header.Get("X-Forum-Token") != "" || req.Header.Get("Referer") != "" {
			t.Fatalf("custom headers kept: %v", req.Header)
		}
		if req.Header.Get("User-Agent") != "fzpwup" {
			t.Fatal("User-Agent dropped")
		}
	})
	t.Run("same origin keeps headers", func(t *testing.T) {
		req := &http.Request{URL: &url.URL{Scheme: "http", Host: "a"}, Header: http.Header{}}
		req.Header.Set("X-Forum-Token", "geheim")
		if err := policy(req, hops(1, "a")); err != nil {
			t.Fatal(err)
		}
		if req.Header.Get("X-Forum-Token") != "geheim" {
			t.Fatal("header stripped on same origin")
		}
	})
}
