package http

import (
	"encoding/json"

	"github.com/statserve/statserve/core/pools"
)

// Context is the per-request view handlers and middleware operate on. The
// response writers serialize into an internal buffer; the connection owner
// takes the bytes with ResponseBytes and performs the socket write, which
// keeps responses on one connection in request order.
type Context interface {
	Method() string
	Path() string
	Param(key string) string
	Query(key string) string
	Header(key string) string
	Body() []byte
	SetParam(key, value string)

	String(code int, s string)
	JSON(code int, v any)
	Error(code int, message string)
	SetHeader(key, value string)

	StatusCode() int
	ResponseBytes() []byte

	Abort()
	IsAborted() bool
}

// StandardContext is the pooled Context implementation.
type StandardContext struct {
	request *Request

	paramKeys   [4]string
	paramValues [4]string
	paramCount  int

	headerKeys   []string
	headerValues []string

	responseBuf []byte
	statusCode  int
	aborted     bool
}

var contextPool = pools.NewPool(pools.PoolConfig{
	New: func() any {
		return &StandardContext{responseBuf: make([]byte, 0, 1024)}
	},
	Reset: func(obj any) {
		obj.(*StandardContext).reset(nil)
	},
	Warmup: 64,
})

// AcquireContext takes a pooled context bound to req.
func AcquireContext(req *Request) *StandardContext {
	ctx := contextPool.Get().(*StandardContext)
	ctx.request = req
	return ctx
}

// ReleaseContext returns a context to the pool.
func ReleaseContext(ctx *StandardContext) {
	contextPool.Put(ctx)
}

// ContextPoolStats exposes context pool reuse counters.
func ContextPoolStats() pools.PoolStats {
	return contextPool.Stats()
}

func (c *StandardContext) reset(req *Request) {
	c.request = req
	c.paramCount = 0
	c.headerKeys = c.headerKeys[:0]
	c.headerValues = c.headerValues[:0]
	c.responseBuf = c.responseBuf[:0]
	c.statusCode = 0
	c.aborted = false
}

func (c *StandardContext) Method() string { return c.request.Method }
func (c *StandardContext) Path() string   { return c.request.Path }
func (c *StandardContext) Body() []byte   { return c.request.Body }

func (c *StandardContext) Param(key string) string {
	for i := 0; i < c.paramCount; i++ {
		if c.paramKeys[i] == key {
			return c.paramValues[i]
		}
	}
	return ""
}

func (c *StandardContext) SetParam(key, value string) {
	if c.paramCount < len(c.paramKeys) {
		c.paramKeys[c.paramCount] = key
		c.paramValues[c.paramCount] = value
		c.paramCount++
	}
}

func (c *StandardContext) Query(key string) string {
	if c.request.Query == nil {
		return ""
	}
	return c.request.Query[key]
}

func (c *StandardContext) Header(key string) string {
	return c.request.Header(key)
}

// SetHeader adds a response header emitted with the next response writer
// call. Parallel slices avoid a map allocation on the hot path.
func (c *StandardContext) SetHeader(key, value string) {
	c.headerKeys = append(c.headerKeys, key)
	c.headerValues = append(c.headerValues, value)
}

// String writes a text/plain response into the buffer.
func (c *StandardContext) String(code int, s string) {
	c.writeResponse(code, "text/plain; charset=utf-8", []byte(s))
}

// JSON serializes v and writes an application/json response. A value that
// cannot be serialized degrades to a 500 error response instead of taking
// down the connection.
func (c *StandardContext) JSON(code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.Error(500, "response serialization failed")
		return
	}
	c.writeResponse(code, "application/json", data)
}

// Error writes a JSON error body with the given status.
func (c *StandardContext) Error(code int, message string) {
	body, err := json.Marshal(map[string]any{
		"code":    code,
		"message": message,
	})
	if err != nil {
		body = []byte(`{"code":500,"message":"internal error"}`)
		code = 500
	}
	c.writeResponse(code, "application/json", body)
}

// StatusCode returns the status of the buffered response, zero before any
// response writer ran.
func (c *StandardContext) StatusCode() int { return c.statusCode }

// ResponseBytes returns the serialized response. Valid until release.
func (c *StandardContext) ResponseBytes() []byte { return c.responseBuf }

// Abort marks the request as handled; remaining middleware and the routed
// handler are skipped.
func (c *StandardContext) Abort() { c.aborted = true }

func (c *StandardContext) IsAborted() bool { return c.aborted }

func (c *StandardContext) writeResponse(code int, contentType string, body []byte) {
	c.statusCode = code
	c.responseBuf = c.responseBuf[:0]
	c.responseBuf = AppendStatusLine(c.responseBuf, code)
	for i := range c.headerKeys {
		c.responseBuf = AppendHeader(c.responseBuf, c.headerKeys[i], c.headerValues[i])
	}
	c.responseBuf = AppendContentHeaders(c.responseBuf, contentType, len(body))
	c.responseBuf = append(c.responseBuf, body...)
}
