/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/friendsincode/peach95/internal/aidj"
	"github.com/friendsincode/peach95/internal/vogen"
)

// handleVOGenerate is the generation collaborator endpoint the queue's
// vogen client talks to.
func (a *API) handleVOGenerate(w http.ResponseWriter, r *http.Request) {
	var req vogen.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.CurrentTrack.Title == "" || req.CurrentTrack.Artist == "" {
		writeError(w, http.StatusBadRequest, "current_track_required")
		return
	}

	resp, err := a.generator.Generate(r.Context(), req)
	if errors.Is(err, aidj.ErrColdOpen) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cannot generate VO for cold open tracks"})
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("VO generation failed")
		writeError(w, http.StatusInternalServerError, "generation_failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
