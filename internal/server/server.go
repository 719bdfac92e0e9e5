// Package server exposes one pan bus over HTTP as an SSE hub:
// GET /sse streams bus deliveries as server-sent events, POST /sse
// publishes. This is the reference transport facade for browser clients;
// the bus itself stays in-process.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cdr2/pan/internal/bus"
	"github.com/cdr2/pan/internal/config"
)

// streamBuffer is the per-connection delivery queue. The bus is a
// low-volume coordination primitive; a client that cannot keep up loses
// messages rather than blocking delivery.
const streamBuffer = 64

// Server holds the dependencies for the SSE hub.
type Server struct {
	E   *echo.Echo
	bus *bus.Bus
	cfg *config.Config
}

// New creates a hub serving the given bus.
func New(cfg *config.Config, b *bus.Bus) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{E: e, bus: b, cfg: cfg}
	e.GET("/sse", s.handleStream)
	e.POST("/sse", s.handlePublish)
	e.GET("/healthz", s.handleHealth)
	return s
}

// publishRequest is the POST /sse body, matching the reference hub's shape.
type publishRequest struct {
	Topic  string `json:"topic"`
	Data   any    `json:"data"`
	Retain bool   `json:"retain"`
}

func (s *Server) handlePublish(c echo.Context) error {
	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed body")
	}

	var opts []bus.PublishOption
	if req.Retain {
		opts = append(opts, bus.WithRetained())
	}
	if err := s.bus.Publish(c.Request().Context(), req.Topic, req.Data, opts...); err != nil {
		var invalid *bus.InvalidTopicError
		if errors.As(err, &invalid) {
			return echo.NewHTTPError(http.StatusBadRequest, invalid.Error())
		}
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "published"})
}

// streamEvent is one SSE data frame.
type streamEvent struct {
	Topic string    `json:"topic"`
	Ts    time.Time `json:"ts"`
	Data  any       `json:"data"`
}

func (s *Server) handleStream(c echo.Context) error {
	patterns := []string{bus.Wildcard}
	if raw := c.QueryParam("topics"); raw != "" {
		patterns = nil
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
	}
	for _, p := range patterns {
		if err := bus.ValidatePattern(p); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	events := make(chan bus.Message, streamBuffer)
	for _, p := range patterns {
		unsubscribe, err := s.bus.Subscribe(p, func(ctx context.Context, msg bus.Message) error {
			select {
			case events <- msg:
			default:
				slog.Warn("sse: slow client, dropping message", "topic", msg.Topic)
			}
			return nil
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		defer unsubscribe()
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	heartbeat := time.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-events:
			if err := writeFrame(resp, msg); err != nil {
				return nil
			}
			resp.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(resp, ": ping\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

func writeFrame(w *echo.Response, msg bus.Message) error {
	data, err := json.Marshal(streamEvent{Topic: msg.Topic, Ts: msg.Timestamp, Data: msg.Payload})
	if err != nil {
		slog.Error("sse: encode frame", "topic", msg.Topic, "error", err)
		return nil
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), msg.Topic, data)
	return err
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":           "ok",
		"pending_requests": s.bus.PendingRequests(),
	})
}
