package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/racingdb/apperr"
)

// panicError carries a recovered panic to HTTPErrorHandler.
type panicError struct {
	err   error
	stack []byte
}

func (e *panicError) Error() string { return e.err.Error() }
func (e *panicError) Unwrap() error { return e.err }

// Recovered is a RecoverConfig.LogErrorFunc: it logs the panic and hands it
// on to HTTPErrorHandler.
func (h *Handler) Recovered(c echo.Context, err error, stack []byte) error {
	h.log.Error("panic recovered",
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.ByteString("stack", stack))
	return &panicError{err: err, stack: stack}
}

// HTTPErrorHandler renders every error that escapes a handler, including the
// router's own 404 and 405, as a failure envelope.
func (h *Handler) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	req := c.Request()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound ||
			(he.Code == http.StatusMethodNotAllowed && strings.HasPrefix(req.URL.Path, "/api")) {
			h.respond(c, routeNotFound(c))
			return
		}
	}

	var (
		status int
		resp   failure
	)
	switch {
	case he != nil:
		status = he.Code
		resp = failure{Message: fmt.Sprint(he.Message), Code: apperr.CodeForStatus(status)}
		if he.Internal != nil && status >= http.StatusInternalServerError {
			resp.Error = he.Internal.Error()
		}
	default:
		cl := apperr.Classify(err)
		status = cl.Status
		resp = failure{Message: cl.Message, Code: cl.Code}
		if cl.Internal() {
			resp.Message = "Internal Server Error"
			resp.Error = cl.Message
		}
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path))
	}

	if h.opts.Development {
		resp.Path = req.URL.RequestURI()
		resp.Method = req.Method
		resp.Timestamp = h.now().UTC().Format(time.RFC3339Nano)
		var pe *panicError
		if errors.As(err, &pe) {
			resp.Stack = string(pe.stack)
		}
	}

	if req.Method == http.MethodHead {
		h.respond(c, c.NoContent(status))
		return
	}
	h.respond(c, c.JSON(status, resp))
}

// RouteNotFound answers unmatched /api paths.
func (h *Handler) RouteNotFound(c echo.Context) error {
	return routeNotFound(c)
}

func (h *Handler) respond(c echo.Context, err error) {
	if err != nil {
		h.log.Error("write error response", zap.Error(err))
	}
}
