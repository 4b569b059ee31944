package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
)

const maxStackBytes = 8 << 10

// Recovery returns Echo middleware that turns a panicking handler into a 500.
// The log entry and the error body carry the request ID assigned by
// RequestLog so a client report can be matched to the stack trace.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				stack := make([]byte, maxStackBytes)
				stack = stack[:runtime.Stack(stack, false)]

				reqID := requestID(c)
				path, _ := routeOf(c)
				log.Error("handler panicked",
					"panic", fmt.Sprint(r),
					"method", c.Request().Method,
					"path", path,
					"request_id", reqID,
					"stack", string(stack),
				)

				body := map[string]string{"error": "internal server error"}
				if reqID != "" {
					body["request_id"] = reqID
				}
				err = c.JSON(http.StatusInternalServerError, body)
			}()
			return next(c)
		}
	}
}

// requestID prefers the ID on the request context and falls back to the
// response header for handlers that replaced the request.
func requestID(c echo.Context) string {
	if id := RequestIDFromContext(c.Request().Context()); id != "" {
		return id
	}
	return c.Response().Header().Get(requestIDHeader)
}
