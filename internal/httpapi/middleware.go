package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// TraceIDHeader carries the request correlation id.
	TraceIDHeader = "X-Trace-ID"
	traceIDKey    = "trace_id"
)

// requestValidator implements echo.Validator.
type requestValidator struct {
	validate *validator.Validate
}

func newValidator() echo.Validator {
	return &requestValidator{validate: validator.New()}
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// traceID assigns every request a correlation id, reusing the caller's.
func traceID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(TraceIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(traceIDKey, id)
			c.Response().Header().Set(TraceIDHeader, id)
			return next(c)
		}
	}
}

func getTraceID(c echo.Context) string {
	id, _ := c.Get(traceIDKey).(string)
	return id
}

func requestLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			slog.Debug("HTTP request",
				"trace_id", getTraceID(c),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return nil
		}
	}
}

func panicRecovery() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Panic recovered",
						"trace_id", getTraceID(c),
						"panic", fmt.Sprintf("%v", r),
						"stack_trace", string(debug.Stack()),
						"path", c.Request().URL.Path,
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}()
			return next(c)
		}
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// errorHandler formats errors returned by handlers.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := errorBody{TraceID: getTraceID(c)}
	status := http.StatusInternalServerError

	switch e := err.(type) {
	case *echo.HTTPError:
		status = e.Code
		body.Error = fmt.Sprintf("%v", e.Message)
	case validator.ValidationErrors:
		status = http.StatusBadRequest
		body.Error = "validation failed"
		body.Fields = make(map[string]string, len(e))
		for _, fe := range e {
			body.Fields[fe.Field()] = fe.Tag()
		}
	default:
		body.Error = "internal error"
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request().Context(), level, "HTTP error",
		"trace_id", body.TraceID, "status", status, "path", c.Request().URL.Path, "error", err)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if writeErr := c.JSON(status, body); writeErr != nil {
		slog.Error("Failed to write error response", "trace_id", body.TraceID, "error", writeErr)
	}
}
