package core

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"syscall"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sys/unix"

	stathttp "github.com/statserve/statserve/core/http"
	"github.com/statserve/statserve/core/middleware"
	"github.com/statserve/statserve/core/router"
	"github.com/statserve/statserve/core/stats"
)

// Config holds engine tuning knobs. Zero values fall back to the package
// defaults.
type Config struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxConnections int
}

// Engine accepts connections and dispatches requests. The accept loop only
// accepts; every connection gets its own goroutine, so a stalled client
// never delays acceptance or other connections. The route table, pipeline,
// and registry reference are immutable once Serve starts; the registry
// counter is the only shared mutable state and is atomic.
type Engine struct {
	router   *router.Router
	registry *stats.Registry
	pipeline *middleware.Pipeline

	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
	maxConnections int
}

// NewEngine creates an engine around the given registry.
func NewEngine(registry *stats.Registry, cfg Config) *Engine {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}

	return &Engine{
		router:         router.New(),
		registry:       registry,
		pipeline:       middleware.NewPipeline(),
		readTimeout:    cfg.ReadTimeout,
		writeTimeout:   cfg.WriteTimeout,
		idleTimeout:    cfg.IdleTimeout,
		maxConnections: cfg.MaxConnections,
	}
}

// Router exposes the route table for registration. Routes must be
// registered before Serve; the table is read-only afterwards.
func (e *Engine) Router() *router.Router {
	return e.router
}

// GET registers a GET route.
func (e *Engine) GET(path string, h router.HandlerFunc) {
	e.router.Handle("GET", path, h)
}

// POST registers a POST route.
func (e *Engine) POST(path string, h router.HandlerFunc) {
	e.router.Handle("POST", path, h)
}

// PUT registers a PUT route.
func (e *Engine) PUT(path string, h router.HandlerFunc) {
	e.router.Handle("PUT", path, h)
}

// DELETE registers a DELETE route.
func (e *Engine) DELETE(path string, h router.HandlerFunc) {
	e.router.Handle("DELETE", path, h)
}

// NotFound registers the routing-miss fallback.
func (e *Engine) NotFound(h router.HandlerFunc) {
	e.router.NotFound(h)
}

// Use appends a middleware to the request pipeline.
func (e *Engine) Use(h middleware.Handler) {
	e.pipeline.Use(h)
}

// Run binds addr and serves until the listener fails. A bind failure is
// returned to the caller; the server cannot run without its socket.
func (e *Engine) Run(addr string) error {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}

	return e.Serve(ln)
}

// Serve accepts connections from ln until it fails. The listener is capped
// at the configured connection limit so a connect flood queues instead of
// exhausting the process.
func (e *Engine) Serve(ln net.Listener) error {
	limited := netutil.LimitListener(ln, e.maxConnections)
	defer limited.Close()

	log.Printf("listening on %s (max %d connections)", ln.Addr(), e.maxConnections)

	for {
		conn, err := limited.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetNoDelay(true)
			tc.SetKeepAlive(true)
		}

		go e.serveConn(conn)
	}
}

// serveConn owns one connection for its lifetime: parse, route, count,
// respond, repeat while keep-alive holds. Failures here never leave this
// goroutine.
func (e *Engine) serveConn(conn net.Conn) {
	defer conn.Close()

	br := bufio.NewReaderSize(conn, readBufferSize)

	for {
		// Idle deadline while waiting for a request to start; once its
		// first byte arrives the tighter read deadline takes over, so a
		// client trickling a request cannot hold the goroutine for the
		// idle period.
		if br.Buffered() == 0 {
			conn.SetReadDeadline(time.Now().Add(e.idleTimeout))
			if _, err := br.Peek(1); err != nil {
				e.replyParseError(conn, err)
				return
			}
		}
		conn.SetReadDeadline(time.Now().Add(e.readTimeout))

		req, err := stathttp.ReadRequest(br)
		if err != nil {
			e.replyParseError(conn, err)
			return
		}

		// Responses go out in the order requests arrived; the write
		// happens here, on the connection's own goroutine, before the
		// next read.
		keep := e.dispatch(conn, req)
		if !keep {
			return
		}
	}
}

// dispatch routes one parsed request and writes the response. It reports
// whether the connection should stay open.
func (e *Engine) dispatch(conn net.Conn, req *stathttp.Request) bool {
	h, param := e.router.Find(req.Method, req.Path)

	ctx := stathttp.AcquireContext(req)
	if param.Key != "" {
		ctx.SetParam(param.Key, param.Value)
	}

	e.pipeline.Execute(ctx, middleware.Handler(h))

	response := ctx.ResponseBytes()
	if len(response) == 0 {
		// A handler that wrote nothing still owes the client an answer.
		response = stathttp.BuildErrorResponse(500, "empty response")
	}

	// Exactly one increment per request that reached the router. It runs
	// after the handler, so a /stats response never includes the request
	// that produced it, and before the write, so a client holding a
	// response is already counted.
	e.registry.Increment()

	conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
	_, werr := conn.Write(response)

	keep := !req.WantsClose()
	stathttp.ReleaseContext(ctx)
	stathttp.ReleaseRequest(req)

	if werr != nil {
		logConnError("write", conn, werr)
		return false
	}
	return keep
}

// replyParseError answers transport-level failures. Malformed framing gets
// a 400-class response; idle timeouts and closed connections get nothing.
func (e *Engine) replyParseError(conn net.Conn, err error) {
	switch {
	case err == io.EOF:
		return
	case errors.Is(err, stathttp.ErrMalformedRequest):
		conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
		conn.Write(stathttp.BuildErrorResponse(400, "malformed request"))
	case errors.Is(err, stathttp.ErrRequestTooLarge):
		conn.SetWriteDeadline(time.Now().Add(e.writeTimeout))
		conn.Write(stathttp.BuildErrorResponse(413, "request too large"))
	default:
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return
		}
		logConnError("read", conn, err)
	}
}

func logConnError(op string, conn net.Conn, err error) {
	// Resets and broken pipes are routine under load; keep them quiet.
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return
	}
	log.Printf("%s error on %s: %v", op, conn.RemoteAddr(), err)
}
