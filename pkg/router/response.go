package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/questx-lab/lottery/pkg/errorx"
	"github.com/questx-lab/lottery/pkg/xcontext"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) response {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return response{
			Code:  int64(errx.Code),
			Error: errx.Message,
		}
	}

	return response{
		Code:  int64(errorx.Unknown.Code),
		Error: errorx.Unknown.Message,
	}
}

func writeResponse(ctx context.Context, c *gin.Context) {
	resp := newResponse(xcontext.Response(ctx))
	if err := xcontext.Error(ctx); err != nil {
		resp = newErrorResponse(err)
	}

	c.JSON(http.StatusOK, resp)
	if len(c.Errors) > 0 {
		xcontext.Logger(ctx).Errorf("Cannot write the response: %v", c.Errors.Last())
	}
}
