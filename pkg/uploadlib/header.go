package uploadlib

import "net/http"

const (
	USER_AGENT_KEY   = "User-Agent"
	REFERER_KEY      = "Referer"
	CONTENT_TYPE_KEY = "Content-Type"

	FORM_CONTENT_TYPE = "application/x-www-form-urlencoded"
)

// Headers is an ordered list of request headers sent with every request
// of a Connection.
type Headers []Header

// Get returns the index of the header with the given key.
// If the header is not found, the second return value is false.
func (h Headers) Get(key string) (index int, have bool) {
	for i, x := range h {
		if http.CanonicalHeaderKey(x.Key) != http.CanonicalHeaderKey(key) {
			continue
		}
		return i, true
	}
	return 0, false
}

// InitOrUpdate adds the header unless one with the same key is present.
func (h *Headers) InitOrUpdate(key, value string) {
	if _, ok := h.Get(key); ok {
		return
	}
	*h = append(*h, Header{key, value})
}

// Update replaces the header with the given key, or appends it.
func (h *Headers) Update(key, value string) {
	if i, ok := h.Get(key); ok {
		(*h)[i] = Header{key, value}
		return
	}
	*h = append(*h, Header{key, value})
}

// Set sets the headers in the given http.Header.
func (h Headers) Set(header http.Header) {
	for _, x := range h {
		header.Set(x.Key, x.Value)
	}
}

// Header represents a key-value pair.
type Header struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}
