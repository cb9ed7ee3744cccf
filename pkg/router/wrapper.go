package router

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

// requestContext is cancelled with the request and falls back to the values of
// the router context.
type requestContext struct {
	context.Context
	values context.Context
}

func (c requestContext) Value(key any) any {
	if v := c.Context.Value(key); v != nil {
		return v
	}

	return c.values.Value(key)
}

func newRequestContext(router *Router, c *gin.Context) context.Context {
	var ctx context.Context = requestContext{Context: c.Request.Context(), values: router.ctx}
	ctx = xcontext.WithHTTPRequest(ctx, c.Request)
	ctx = xcontext.WithResponseWriter(ctx, c.Writer)
	return ctx
}

func wrapHandler[Request, Response any](
	router *Router,
	method string,
	handler HandlerFunc[Request, Response],
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := newRequestContext(router, c)
		defer func() {
			router.close(ctx)
		}()

		ctx = serve(ctx, router, method, c, handler)
		writeResponse(ctx, c)
	}
}

func serve[Request, Response any](
	ctx context.Context,
	router *Router,
	method string,
	c *gin.Context,
	handler HandlerFunc[Request, Response],
) context.Context {
	var err error
	if ctx, err = runMiddlewares(ctx, router.befores); err != nil {
		return xcontext.WithError(ctx, err)
	}

	req, err := bindRequest[Request](method, c)
	if err != nil {
		return xcontext.WithError(ctx, err)
	}

	resp, err := handler(ctx, req)
	if err != nil {
		return xcontext.WithError(ctx, err)
	}

	ctx = xcontext.WithResponse(ctx, resp)
	if ctx, err = runMiddlewares(ctx, router.afters); err != nil {
		return xcontext.WithError(ctx, err)
	}

	return ctx
}

func runMiddlewares(ctx context.Context, middlewares []MiddlewareFunc) (context.Context, error) {
	for _, middleware := range middlewares {
		newCtx, err := middleware(ctx)
		if err != nil {
			return ctx, err
		}

		if newCtx != nil {
			ctx = newCtx
		}
	}

	return ctx, nil
}

// bindRequest reads the query of a GET request and the JSON body of a POST
// request. Query parameters are matched with the json tags of Request.
func bindRequest[Request any](method string, c *gin.Context) (*Request, error) {
	req := new(Request)
	switch method {
	case http.MethodGet:
		if err := binding.MapFormWithTag(req, c.Request.URL.Query(), "json"); err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid query: %v", err)
		}

	case http.MethodPost:
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			return req, nil
		}

		if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
			return nil, errorx.New(errorx.BadRequest, "Invalid body: %v", err)
		}
	}

	return req, nil
}
