/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
)

func (a *API) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	volume, muted := a.player.Volume()
	writeJSON(w, http.StatusOK, map[string]any{
		"state":    a.player.State(),
		"track":    a.player.CurrentTrack(),
		"position": a.player.PrimaryPosition(),
		"volume":   volume,
		"muted":    muted,
	})
}

func (a *API) handlePlayerPlay(w http.ResponseWriter, r *http.Request) {
	if err := a.player.PlayWithSync(); err != nil {
		writeError(w, http.StatusConflict, "not_ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

func (a *API) handlePlayerPause(w http.ResponseWriter, r *http.Request) {
	if err := a.player.PauseAll(); err != nil {
		writeError(w, http.StatusInternalServerError, "pause_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (a *API) handlePlayerStop(w http.ResponseWriter, r *http.Request) {
	if err := a.player.StopAll(); err != nil {
		writeError(w, http.StatusInternalServerError, "stop_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (a *API) handlePlayerSeek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Position float64 `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if body.Position < 0 {
		writeError(w, http.StatusBadRequest, "invalid_position")
		return
	}
	if err := a.player.Seek(body.Position); err != nil {
		writeError(w, http.StatusConflict, "not_playing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"position": body.Position})
}

func (a *API) handlePlayerVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Volume float64 `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	a.player.SetVolume(body.Volume)
	volume, muted := a.player.Volume()
	writeJSON(w, http.StatusOK, map[string]any{"volume": volume, "muted": muted})
}

func (a *API) handlePlayerMute(w http.ResponseWriter, r *http.Request) {
	muted := a.player.ToggleMute()
	volume, _ := a.player.Volume()
	writeJSON(w, http.StatusOK, map[string]any{"volume": volume, "muted": muted})
}
