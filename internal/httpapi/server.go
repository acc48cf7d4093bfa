// Package httpapi exposes the conversation engine over HTTP for a webhook
// relay, plus report, health and metrics endpoints.
package httpapi

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/labstack/echo/v4"
)

// EventHandler processes one chat event.
type EventHandler interface {
	Handle(ctx context.Context, event model.Event) (model.Reply, error)
}

// Reporter renders a report as text.
type Reporter interface {
	Report(ctx context.Context, year, month int) (string, error)
}

// Options configures a Server.
type Options struct {
	Events       EventHandler
	Reports      Reporter
	Metrics      http.Handler
	Sessions     func() int
	TLS          *tls.Config
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP front of the ledger.
type Server struct {
	echo    *echo.Echo
	opts    Options
	started time.Time
}

// New builds a Server with its routes registered.
func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()
	e.HTTPErrorHandler = errorHandler
	e.Use(traceID(), requestLog(), panicRecovery())

	s := &Server{echo: e, opts: opts, started: time.Now()}
	e.POST("/events", s.postEvent)
	e.GET("/reports", s.getReport)
	e.GET("/healthz", s.healthz)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return s
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.echo,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		TLSConfig:    s.opts.TLS,
	}

	errCh := make(chan error, 1)
	go func() {
		if srv.TLSConfig != nil {
			slog.Info("HTTPS server listening", "addr", s.opts.Addr)
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		slog.Info("HTTP server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// eventRequest is the body of POST /events.
type eventRequest struct {
	Kind    string `json:"kind" validate:"required,oneof=text button"`
	Payload string `json:"payload" validate:"max=4096"`
	UserID  int64  `json:"user_id" validate:"required"`
}

func (s *Server) postEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	event := model.Event{Kind: model.EventKind(req.Kind), Payload: req.Payload, UserID: req.UserID}
	reply, err := s.opts.Events.Handle(c.Request().Context(), event)
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, reply)
	case errors.Is(err, common.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, reply)
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, reply)
}

// reportRequest is the query of GET /reports. Month 0 or absent asks for the
// whole year.
type reportRequest struct {
	Year  int `query:"year" validate:"required,gte=2000,lte=2999"`
	Month int `query:"month" validate:"gte=0,lte=12"`
}

func (s *Server) getReport(c echo.Context) error {
	if s.opts.Reports == nil {
		return echo.NewHTTPError(http.StatusNotFound, "reports are not configured")
	}

	var req reportRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "year and month must be numbers")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	text, err := s.opts.Reports.Report(c.Request().Context(), req.Year, req.Month)
	switch {
	case errors.Is(err, common.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, common.UserMessage(err, err.Error()))
	case errors.Is(err, common.ErrSourceUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "the spreadsheet is not reachable")
	case err != nil:
		return err
	}
	return c.String(http.StatusOK, text)
}

type health struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
}

func (s *Server) healthz(c echo.Context) error {
	h := health{Status: "ok", Uptime: time.Since(s.started).Truncate(time.Second).String()}
	if s.opts.Sessions != nil {
		h.Sessions = s.opts.Sessions()
	}
	return c.JSON(http.StatusOK, h)
}
