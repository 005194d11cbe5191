package web

import (
	"strings"
	"sync"

	"github.com/valyala/fasthttp"
)

// FastRequestHandler handles fasthttp requests
type FastRequestHandler func(ctx *FastRequestContext) error

// FastMiddleware is middleware for fasthttp
type FastMiddleware func(handler FastRequestHandler) FastRequestHandler

// Router matches method and path to handlers. Path segments starting with
// ':' are parameters. Middleware wraps every request, including unmatched ones.
type Router struct {
	routes     []*fastRoute
	middleware []FastMiddleware
	mu         sync.RWMutex
}

type fastRoute struct {
	method   string
	pattern  string
	segments []string
	handler  FastRequestHandler
}

// NewRouter creates an empty router
func NewRouter() *Router {
	return &Router{}
}

func defaultNotFound(ctx *FastRequestContext) error {
	return ctx.ErrorJSON(fasthttp.StatusNotFound, "not found")
}

// Use appends middleware. The first registered middleware runs outermost.
func (r *Router) Use(mw ...FastMiddleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
}

func (r *Router) GETFast(path string, handler FastRequestHandler) {
	r.RouteFast(fasthttp.MethodGet, path, handler)
}

func (r *Router) POSTFast(path string, handler FastRequestHandler) {
	r.RouteFast(fasthttp.MethodPost, path, handler)
}

func (r *Router) PUTFast(path string, handler FastRequestHandler) {
	r.RouteFast(fasthttp.MethodPut, path, handler)
}

func (r *Router) DELETEFast(path string, handler FastRequestHandler) {
	r.RouteFast(fasthttp.MethodDelete, path, handler)
}

// RouteFast registers a handler
func (r *Router) RouteFast(method, path string, handler FastRequestHandler) {
	if handler == nil {
		panic("web: nil handler for " + method + " " + path)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, &fastRoute{
		method:   method,
		pattern:  path,
		segments: splitPath(path),
		handler:  handler,
	})
}

// ServeFastHTTP routes ctx through the middleware chain. A handler error
// that escapes every middleware becomes a 500 with {"error": message}.
func (r *Router) ServeFastHTTP(ctx *FastRequestContext) {
	r.mu.RLock()
	handler := r.match(ctx)
	chain := r.middleware
	r.mu.RUnlock()

	for i := len(chain) - 1; i >= 0; i-- {
		handler = chain[i](handler)
	}

	if err := handler(ctx); err != nil {
		ctx.Logger().Errorf("%s %s failed: %v", ctx.Method(), ctx.Path(), err)
		_ = ctx.ErrorJSON(fasthttp.StatusInternalServerError, err.Error())
	}
}

func (r *Router) match(ctx *FastRequestContext) FastRequestHandler {
	method := string(ctx.Method())
	segments := splitPath(string(ctx.Path()))

	for _, route := range r.routes {
		if route.method != method || len(route.segments) != len(segments) {
			continue
		}
		if params, ok := matchSegments(route.segments, segments); ok {
			for k, v := range params {
				ctx.Params[k] = v
			}
			ctx.route = route.pattern
			return route.handler
		}
	}
	return defaultNotFound
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	var params map[string]string
	for i, part := range pattern {
		if strings.HasPrefix(part, ":") {
			if path[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[part[1:]] = path[i]
			continue
		}
		if part != path[i] {
			return nil, false
		}
	}
	return params, true
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
