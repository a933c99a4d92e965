package middleware

import (
	"log"
	"sync/atomic"

	stathttp "github.com/statserve/statserve/core/http"
	"github.com/statserve/statserve/core/stats"
)

// Handler is the signature shared by middleware and routed handlers.
type Handler func(ctx stathttp.Context)

// Pipeline runs registered middleware in order before the routed handler.
// A middleware that aborts the context short-circuits the rest. The table
// is built once at startup and read-only afterwards.
type Pipeline struct {
	handlers []Handler
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		handlers: make([]Handler, 0, 8),
	}
}

// Use appends a middleware.
func (p *Pipeline) Use(h Handler) *Pipeline {
	p.handlers = append(p.handlers, h)
	return p
}

// Execute runs the middleware chain and then the final handler. A panic
// anywhere in the chain is recovered into a 500 response so the
// connection's goroutine survives.
func (p *Pipeline) Execute(ctx stathttp.Context, final Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic recovered while handling %s %s: %v", ctx.Method(), ctx.Path(), r)
			ctx.Error(500, "internal server error")
		}
	}()

	for _, h := range p.handlers {
		h(ctx)
		if ctx.IsAborted() {
			return
		}
	}

	final(ctx)
}

// Logger logs one line per request with the running request number.
func Logger(reg *stats.Registry) Handler {
	return func(ctx stathttp.Context) {
		log.Printf("%s %s - request #%d", ctx.Method(), ctx.Path(), reg.Total()+1)
	}
}

// ServerHeader stamps the identifying Server header on every response.
func ServerHeader(name string) Handler {
	return func(ctx stathttp.Context) {
		ctx.SetHeader("Server", name)
	}
}

// RequestID tags each response with a process-unique sequence number.
func RequestID() Handler {
	var counter atomic.Uint64

	return func(ctx stathttp.Context) {
		id := counter.Add(1)
		ctx.SetHeader("X-Request-ID", formatID(id))
	}
}

func formatID(id uint64) string {
	var buf [20]byte
	n := len(buf)
	for {
		n--
		buf[n] = byte('0' + id%10)
		id /= 10
		if id == 0 {
			break
		}
	}
	return string(buf[n:])
}
