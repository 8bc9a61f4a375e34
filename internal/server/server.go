/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, playback, and the HTTP
// surface into one process.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/peach95/internal/aidj"
	"github.com/friendsincode/peach95/internal/api"
	"github.com/friendsincode/peach95/internal/audio"
	"github.com/friendsincode/peach95/internal/config"
	"github.com/friendsincode/peach95/internal/db"
	"github.com/friendsincode/peach95/internal/events"
	"github.com/friendsincode/peach95/internal/library"
	"github.com/friendsincode/peach95/internal/logbuffer"
	"github.com/friendsincode/peach95/internal/player"
	"github.com/friendsincode/peach95/internal/queue"
	"github.com/friendsincode/peach95/internal/talent"
	"github.com/friendsincode/peach95/internal/telemetry"
	"github.com/friendsincode/peach95/internal/version"
	"github.com/friendsincode/peach95/internal/vogen"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	logBuffer *logbuffer.Buffer
	library   *library.Store
	bus       *events.Bus
	player    *player.Player
	queue     *queue.Manager
	generator *aidj.Service
	roster    *talent.Roster
	api       *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.MetricsMiddleware)
	// Skip timeout for the WebSocket event stream.
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(60 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	srv := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		bus:       events.NewBus(),
		logBuffer: logBuf,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// WriteTimeout 0 for the WebSocket stream; the middleware timeout
		// covers the plain routes.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg.DBPath)
	if err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := os.MkdirAll(s.cfg.MediaRoot, 0o755); err != nil {
		return fmt.Errorf("create media directory %s: %w", s.cfg.MediaRoot, err)
	}
	if err := aidj.EnsureMockAssets(s.cfg.MediaRoot); err != nil {
		return fmt.Errorf("render placeholder VO assets: %w", err)
	}
	s.logger.Info().Str("path", s.cfg.MediaRoot).Msg("media directory ready")

	s.library = library.NewStore(database, s.logger)

	if s.cfg.RosterPath != "" {
		roster, err := talent.LoadRoster(s.cfg.RosterPath)
		if err != nil {
			return fmt.Errorf("load persona roster: %w", err)
		}
		s.roster = roster
		s.logger.Info().Str("path", s.cfg.RosterPath).Msg("persona roster loaded")
	} else {
		s.roster = talent.NewRoster()
	}

	engine := audio.NewProcessEngine(s.cfg.PlayerBin, s.cfg.MediaRoot, s.logger)
	s.player = player.New(engine, s.bus, s.logger)
	s.DeferClose(func() error {
		s.player.Dispose()
		return nil
	})

	var script *aidj.ScriptClient
	var tts *aidj.TTSClient
	if s.cfg.AIConfigured() {
		script = aidj.NewScriptClient(s.cfg.AnthropicAPIKey, s.cfg.AnthropicBaseURL, s.cfg.AnthropicModel, s.logger)
		tts = aidj.NewTTSClient(s.cfg.ElevenLabsAPIKey, s.cfg.ElevenLabsURL, s.cfg.MediaRoot, s.logger)
		s.logger.Info().Msg("AI VO generation enabled")
	} else {
		s.logger.Warn().Msg("AI API keys not configured, VO segments will use the mock generator")
	}
	s.generator = aidj.NewService(script, tts, s.roster, s.logger)

	// The queue talks to the VO service over HTTP even when it is this
	// same process, so the generation path is identical either way.
	voURL := s.cfg.VOServiceURL
	if voURL == "" {
		voURL = fmt.Sprintf("http://127.0.0.1:%d", s.cfg.HTTPPort)
	}
	voClient := vogen.NewClient(voURL, s.logger)

	s.queue = queue.NewManager(s.player, voClient, s.bus, s.roster, queue.StationContext{
		Temperature:   s.cfg.Temperature,
		ContestActive: s.cfg.ContestActive,
	}, s.logger)
	s.DeferClose(func() error {
		s.queue.Close()
		return nil
	})

	s.api = api.New(s.library, s.player, s.queue, s.generator, s.roster, s.bus, s.logBuffer, s.logger)
	return nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Library exposes the track store, used by the import command.
func (s *Server) Library() *library.Store {
	return s.library
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.queue.Start(ctx)

	// Database connection metrics.
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.UpdateConnectionMetrics(s.db)
			}
		}
	}()

	// Queue depth and play-count gauges fed from the event bus.
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.runMetricsListener(ctx)
	}()
}

// runMetricsListener mirrors bus events into Prometheus gauges.
func (s *Server) runMetricsListener(ctx context.Context) {
	queueUpdated := s.bus.Subscribe(events.EventQueueUpdated)
	trackPlaying := s.bus.Subscribe(events.EventTrackPlaying)
	defer func() {
		s.bus.Unsubscribe(events.EventQueueUpdated, queueUpdated)
		s.bus.Unsubscribe(events.EventTrackPlaying, trackPlaying)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-queueUpdated:
			if depth, ok := payload["depth"].(int); ok {
				telemetry.QueueDepth.Set(float64(depth))
			}
		case <-trackPlaying:
			telemetry.TracksPlayedTotal.Inc()
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","version":"` + version.String() + `"}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	// Music library and generated VO files.
	fileServer := http.StripPrefix("/media/", http.FileServer(http.Dir(s.cfg.MediaRoot)))
	s.router.Get("/media/*", func(w http.ResponseWriter, r *http.Request) {
		fileServer.ServeHTTP(w, r)
	})

	s.api.Routes(s.router)
}
