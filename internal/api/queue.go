/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/peach95/internal/library"
	"github.com/friendsincode/peach95/internal/queue"
)

func (a *API) handleQueueList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.queue.Items()})
}

func (a *API) handleQueueAdd(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TrackID  string `json:"trackId"`
		Position *int   `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if body.TrackID == "" {
		writeError(w, http.StatusBadRequest, "track_id_required")
		return
	}

	track, err := a.library.Get(r.Context(), body.TrackID)
	if errors.Is(err, library.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	item := a.queue.Enqueue(track, body.Position)
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	a.queue.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (a *API) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	position, ok := a.queuePosition(w, r)
	if !ok {
		return
	}
	if err := a.queue.Remove(position); err != nil {
		writeError(w, http.StatusNotFound, "position_out_of_range")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (a *API) handleQueueReorder(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if err := a.queue.Reorder(body.From, body.To); err != nil {
		writeError(w, http.StatusNotFound, "position_out_of_range")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": a.queue.Items()})
}

func (a *API) handleQueuePlay(w http.ResponseWriter, r *http.Request) {
	position, ok := a.queuePosition(w, r)
	if !ok {
		return
	}
	if err := a.queue.PlayPosition(r.Context(), position); err != nil {
		if errors.Is(err, queue.ErrPositionOutOfRange) {
			writeError(w, http.StatusNotFound, "position_out_of_range")
			return
		}
		a.logger.Error().Err(err).Int("position", position).Msg("queue play failed")
		writeError(w, http.StatusInternalServerError, "playback_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

func (a *API) handleQueueRegenerate(w http.ResponseWriter, r *http.Request) {
	position, ok := a.queuePosition(w, r)
	if !ok {
		return
	}
	if err := a.queue.RegenerateVO(position); err != nil {
		writeError(w, http.StatusNotFound, "position_out_of_range")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "regenerating"})
}

func (a *API) queuePosition(w http.ResponseWriter, r *http.Request) (int, bool) {
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 0 {
		writeError(w, http.StatusBadRequest, "invalid_position")
		return 0, false
	}
	return position, true
}
