package http

import (
	"net/textproto"
	"strings"

	"github.com/statserve/statserve/core/pools"
)

// Request is a parsed HTTP/1.1 request. Common header fields live in
// dedicated struct fields so the usual case never touches a map.
type Request struct {
	Method string
	Path   string
	Proto  string

	ContentType   string
	ContentLength string
	UserAgent     string
	Accept        string
	Host          string
	Connection    string

	// Headers beyond the predefined set, allocated only when seen.
	ExtraHeaders map[string]string

	// Query parameters, allocated only when the path carries a query.
	Query map[string]string

	Body []byte
}

var requestPool = pools.NewPool(pools.PoolConfig{
	New: func() any {
		return &Request{Body: make([]byte, 0, 1024)}
	},
	Reset: func(obj any) {
		obj.(*Request).reset()
	},
	Warmup: 64,
})

// AcquireRequest takes a reset Request from the pool.
func AcquireRequest() *Request {
	return requestPool.Get().(*Request)
}

// ReleaseRequest returns a Request to the pool. The caller must not hold on
// to the request or its body afterwards.
func ReleaseRequest(req *Request) {
	requestPool.Put(req)
}

// RequestPoolStats exposes request pool reuse counters.
func RequestPoolStats() pools.PoolStats {
	return requestPool.Stats()
}

func (r *Request) reset() {
	r.Method = ""
	r.Path = ""
	r.Proto = ""
	r.ContentType = ""
	r.ContentLength = ""
	r.UserAgent = ""
	r.Accept = ""
	r.Host = ""
	r.Connection = ""

	// Maps keep their memory, only the entries go.
	for k := range r.ExtraHeaders {
		delete(r.ExtraHeaders, k)
	}
	for k := range r.Query {
		delete(r.Query, k)
	}

	r.Body = r.Body[:0]
}

// SetHeader stores a header, preferring the predefined fields. Field names
// are case-insensitive on the wire, so the key is canonicalized first.
func (r *Request) SetHeader(key, value string) {
	switch key = textproto.CanonicalMIMEHeaderKey(key); key {
	case "Content-Type":
		r.ContentType = value
	case "Content-Length":
		r.ContentLength = value
	case "User-Agent":
		r.UserAgent = value
	case "Accept":
		r.Accept = value
	case "Host":
		r.Host = value
	case "Connection":
		r.Connection = value
	default:
		if r.ExtraHeaders == nil {
			r.ExtraHeaders = make(map[string]string)
		}
		r.ExtraHeaders[key] = value
	}
}

// Header returns a header value, checking the predefined fields first.
func (r *Request) Header(key string) string {
	switch key = textproto.CanonicalMIMEHeaderKey(key); key {
	case "Content-Type":
		return r.ContentType
	case "Content-Length":
		return r.ContentLength
	case "User-Agent":
		return r.UserAgent
	case "Accept":
		return r.Accept
	case "Host":
		return r.Host
	case "Connection":
		return r.Connection
	}
	if r.ExtraHeaders != nil {
		return r.ExtraHeaders[key]
	}
	return ""
}

// WantsClose reports whether the client asked for the connection to end
// after this request. HTTP/1.0 closes unless keep-alive was requested.
// Connection tokens are case-insensitive.
func (r *Request) WantsClose() bool {
	if r.Proto == "HTTP/1.0" {
		return !strings.EqualFold(r.Connection, "keep-alive")
	}
	return strings.EqualFold(r.Connection, "close")
}
