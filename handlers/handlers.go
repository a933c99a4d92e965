// Package handlers contains the endpoint handlers. Each handler is a pure
// function of its request context; the request counter is maintained by the
// engine's dispatch path, never in here, so unmatched requests count too.
package handlers

import (
	"time"

	stathttp "github.com/statserve/statserve/core/http"
	"github.com/statserve/statserve/core/router"
	"github.com/statserve/statserve/core/stats"
)

// StandardResponse is the JSON body shared by the informational endpoints.
type StandardResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Server    string `json:"server"`
}

// Handlers binds the endpoint handlers to the stats registry and the
// server's identity string.
type Handlers struct {
	registry   *stats.Registry
	serverName string
}

// New creates the handler set.
func New(registry *stats.Registry, serverName string) *Handlers {
	return &Handlers{
		registry:   registry,
		serverName: serverName,
	}
}

// Register installs every route, including the not-found fallback.
func (h *Handlers) Register(r *router.Router) {
	r.Handle("GET", "/", h.Root)
	r.Handle("GET", "/health", h.Health)
	r.Handle("GET", "/echo/*message", h.Echo)
	r.Handle("GET", "/stats", h.Stats)
	r.NotFound(h.NotFound)
}

// Root answers the welcome endpoint.
func (h *Handlers) Root(ctx stathttp.Context) {
	ctx.JSON(200, h.standard("Welcome to statserve!"))
}

// Health answers the liveness endpoint.
func (h *Handlers) Health(ctx stathttp.Context) {
	ctx.JSON(200, h.standard("Server is healthy"))
}

// Echo reflects the captured path remainder back to the caller. The value
// arrives percent-decoded and unvalidated; JSON escaping happens in the
// response writer.
func (h *Handlers) Echo(ctx stathttp.Context) {
	ctx.JSON(200, h.standard("Echo: "+ctx.Param("message")))
}

// Stats answers with a point-in-time registry snapshot.
func (h *Handlers) Stats(ctx stathttp.Context) {
	ctx.JSON(200, h.registry.Snapshot())
}

// NotFound is the routing-miss fallback; still a well-formed JSON body.
func (h *Handlers) NotFound(ctx stathttp.Context) {
	ctx.JSON(404, h.standard("Not Found"))
}

func (h *Handlers) standard(message string) StandardResponse {
	return StandardResponse{
		Message:   message,
		Timestamp: time.Now().Format(time.RFC3339),
		Server:    h.serverName,
	}
}
