package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/lottery/config"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
	"github.com/rs/cors"
	"golang.org/x/exp/slices"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc may return a nil context to keep the current one.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc runs after the response is written, whether the request failed or
// not.
type CloserFunc func(ctx context.Context)

type Router struct {
	ctx   context.Context
	Inner *gin.Engine

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc
}

// New creates a router whose handlers see every value of ctx, such as the
// configs, the logger and the database.
func New(ctx context.Context) *Router {
	r := &Router{ctx: ctx, Inner: gin.New()}

	r.Inner.HandleMethodNotAllowed = true
	r.Inner.NoMethod(func(c *gin.Context) {
		ctx := newRequestContext(r, c)
		defer r.close(ctx)

		err := errorx.New(errorx.BadRequest, "Method %s is not allowed", c.Request.Method)
		ctx = xcontext.WithError(ctx, err)
		writeResponse(ctx, c)
	})

	return r
}

// Branch returns a router sharing the routes of r. Middlewares added to the
// branch do not affect r.
func (r *Router) Branch() *Router {
	return &Router{
		ctx:     r.ctx,
		Inner:   r.Inner,
		befores: slices.Clone(r.befores),
		afters:  slices.Clone(r.afters),
		closers: slices.Clone(r.closers),
	}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(middleware MiddlewareFunc) {
	r.afters = append(r.afters, middleware)
}

func (r *Router) AddCloser(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

// Handle registers a raw http.Handler for every method, bypassing middlewares.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.Inner.Any(pattern, gin.WrapH(handler))
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.Inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Handler(cfg config.ServerConfigs) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r.Inner)
}

func (r *Router) close(ctx context.Context) {
	for _, closer := range r.closers {
		closer(ctx)
	}
}
