// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/docsync/internal/output"
	"github.com/kraklabs/docsync/pkg/ingestion"
	"github.com/kraklabs/docsync/pkg/model"
)

// DefaultMaxBodyBytes caps the size of a push notification body.
const DefaultMaxBodyBytes = 1 << 20

// Submitter schedules a push event. *ingestion.Supervisor implements it.
type Submitter interface {
	Submit(event model.PushEvent) error
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxBodyBytes limits request bodies (default DefaultMaxBodyBytes).
	MaxBodyBytes int64

	// ReadHeaderTimeout bounds header reads (default 10s).
	ReadHeaderTimeout time.Duration
}

// Server is the inbound push trigger.
type Server struct {
	submitter Submitter
	logger    *slog.Logger
	maxBody   int64
	srv       *http.Server
}

// NewServer creates a server that forwards accepted events to sub.
func NewServer(cfg Config, sub Submitter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}

	s := &Server{
		submitter: sub,
		logger:    logger,
		maxBody:   cfg.MaxBodyBytes,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /hooks/push", s.handlePush)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// ListenAndServe listens on the configured address and blocks until the
// server is shut down. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("webhook.http.start", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("webhook.http.shutdown")
	return s.srv.Shutdown(ctx)
}

type acceptedResponse struct {
	Status string `json:"status"`
	Slug   string `json:"slug"`
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var event model.PushEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err := dec.Decode(&event); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, http.StatusRequestEntityTooLarge, "too_large", err)
			return
		}
		s.reject(w, http.StatusBadRequest, "malformed_json", fmt.Errorf("decode push event: %w", err))
		return
	}
	if err := event.Validate(); err != nil {
		s.reject(w, http.StatusBadRequest, "invalid_event", err)
		return
	}

	if err := s.submitter.Submit(event); err != nil {
		if errors.Is(err, ingestion.ErrSupervisorClosed) {
			s.reject(w, http.StatusServiceUnavailable, "shutting_down", err)
			return
		}
		s.logger.Error("webhook.push.submit.error", "slug", event.Slug, "err", err)
		s.reject(w, http.StatusInternalServerError, "internal", errors.New("cannot schedule push"))
		return
	}

	s.logger.Info("webhook.push.accepted",
		"slug", event.Slug,
		"destination_type", event.Destination.Type,
		"destination", event.Destination.Name,
		"repository", event.Repository.Name,
	)
	recordRequest(http.StatusAccepted)
	s.writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted", Slug: event.Slug})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) reject(w http.ResponseWriter, status int, code string, err error) {
	s.logger.Warn("webhook.push.rejected", "status", status, "code", code, "err", err)
	recordRequest(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := output.JSONErrorTo(w, err, code); encErr != nil {
		s.logger.Debug("webhook.response.error", "err", encErr)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := output.JSONCompactTo(w, body); err != nil {
		s.logger.Debug("webhook.response.error", "err", err)
	}
}
