/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the station's HTTP surface: catalog, queue, transport,
// talent, VO generation, logs, and the event stream.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/aidj"
	"github.com/friendsincode/peach95/internal/events"
	"github.com/friendsincode/peach95/internal/library"
	"github.com/friendsincode/peach95/internal/logbuffer"
	"github.com/friendsincode/peach95/internal/player"
	"github.com/friendsincode/peach95/internal/queue"
	"github.com/friendsincode/peach95/internal/talent"
)

// API exposes HTTP handlers.
type API struct {
	library   *library.Store
	player    *player.Player
	queue     *queue.Manager
	generator *aidj.Service
	roster    *talent.Roster
	bus       *events.Bus
	logBuffer *logbuffer.Buffer
	logger    zerolog.Logger
}

// New creates the API router wrapper.
func New(lib *library.Store, p *player.Player, q *queue.Manager, gen *aidj.Service, roster *talent.Roster, bus *events.Bus, logBuf *logbuffer.Buffer, logger zerolog.Logger) *API {
	return &API{
		library:   lib,
		player:    p,
		queue:     q,
		generator: gen,
		roster:    roster,
		bus:       bus,
		logBuffer: logBuf,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers all API routes.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/tracks", func(r chi.Router) {
			r.Get("/", a.handleTracksList)
			r.Get("/{trackID}", a.handleTracksGet)
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", a.handleQueueList)
			r.Post("/", a.handleQueueAdd)
			r.Delete("/", a.handleQueueClear)
			r.Post("/reorder", a.handleQueueReorder)
			r.Route("/{position}", func(r chi.Router) {
				r.Delete("/", a.handleQueueRemove)
				r.Post("/play", a.handleQueuePlay)
				r.Post("/regenerate", a.handleQueueRegenerate)
			})
		})

		r.Route("/player", func(r chi.Router) {
			r.Get("/", a.handlePlayerState)
			r.Post("/play", a.handlePlayerPlay)
			r.Post("/pause", a.handlePlayerPause)
			r.Post("/stop", a.handlePlayerStop)
			r.Post("/seek", a.handlePlayerSeek)
			r.Post("/volume", a.handlePlayerVolume)
			r.Post("/mute", a.handlePlayerMute)
		})

		r.Route("/talent", func(r chi.Router) {
			r.Get("/", a.handleTalentList)
			r.Post("/active", a.handleTalentSetActive)
		})

		r.Post("/vo-segments", a.handleVOGenerate)

		r.Get("/events", a.handleEvents)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", a.handleLogs)
			r.Get("/components", a.handleLogComponents)
			r.Get("/stats", a.handleLogStats)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleTracksList(w http.ResponseWriter, r *http.Request) {
	tracks, err := a.library.List(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("track list failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (a *API) handleTracksGet(w http.ResponseWriter, r *http.Request) {
	track, err := a.library.Get(r.Context(), chi.URLParam(r, "trackID"))
	if errors.Is(err, library.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (a *API) handleTalentList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"personas": a.roster.Personas(),
		"active":   a.queue.ActiveTalent(),
	})
}

func (a *API) handleTalentSetActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := a.queue.SetActiveTalent(body.Name); err != nil {
		writeError(w, http.StatusNotFound, "unknown_persona")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": body.Name})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
