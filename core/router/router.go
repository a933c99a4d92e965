package router

import (
	"strings"

	stathttp "github.com/statserve/statserve/core/http"
)

// HandlerFunc is the signature routed handlers implement.
type HandlerFunc func(ctx stathttp.Context)

// Param is a captured path parameter. Key is empty when nothing was captured.
type Param struct {
	Key   string
	Value string
}

// Router dispatches (method, path) to a handler. The table is built once at
// startup and read-only afterwards, so Find is safe from any number of
// concurrent goroutines without locking.
//
// Matching order: exact static lookup, then registered prefix routes, then
// the not-found fallback. Find never returns nil.
type Router struct {
	static   map[routeKey]HandlerFunc
	prefixes []prefixRoute
	notFound HandlerFunc
}

type routeKey struct {
	method string
	path   string
}

// prefixRoute matches paths beginning with prefix; the rest of the path is
// captured under paramName. With segmentOnly the capture stops at the next
// '/' and any longer path is a miss.
type prefixRoute struct {
	method      string
	prefix      string
	paramName   string
	segmentOnly bool
	handler     HandlerFunc
}

// New creates an empty router. Register a not-found handler before serving.
func New() *Router {
	return &Router{
		static: make(map[routeKey]HandlerFunc, 16),
	}
}

// Handle registers a route. Three pattern forms are supported:
//
//	/health          exact match
//	/users/:id       one trailing segment captured as "id"
//	/echo/*message   remainder of the path captured as "message"
//
// Wildcards are only allowed as the final element of the pattern.
func (r *Router) Handle(method, path string, h HandlerFunc) {
	if path == "" || path[0] != '/' {
		panic("router: path must begin with '/'")
	}
	if h == nil {
		panic("router: nil handler")
	}

	if i := strings.IndexAny(path, ":*"); i != -1 {
		name := path[i+1:]
		if name == "" {
			panic("router: wildcards must be named")
		}
		if strings.ContainsAny(name, "/:*") {
			panic("router: wildcard must be the final path element")
		}
		r.prefixes = append(r.prefixes, prefixRoute{
			method:      method,
			prefix:      path[:i],
			paramName:   name,
			segmentOnly: path[i] == ':',
			handler:     h,
		})
		return
	}

	r.static[routeKey{method, path}] = h
}

// NotFound registers the fallback handler used when nothing matches.
func (r *Router) NotFound(h HandlerFunc) {
	r.notFound = h
}

// Find resolves a request to a handler. When no route matches, the
// not-found handler is returned with an empty Param.
func (r *Router) Find(method, path string) (HandlerFunc, Param) {
	if h, ok := r.static[routeKey{method, path}]; ok {
		return h, Param{}
	}

	for _, pr := range r.prefixes {
		if pr.method != method || !strings.HasPrefix(path, pr.prefix) {
			continue
		}
		rest := path[len(pr.prefix):]
		if rest == "" {
			// The dynamic segment must be non-empty; "/echo/" is a miss.
			continue
		}
		if pr.segmentOnly && strings.IndexByte(rest, '/') != -1 {
			continue
		}
		return pr.handler, Param{Key: pr.paramName, Value: rest}
	}

	return r.notFound, Param{}
}
