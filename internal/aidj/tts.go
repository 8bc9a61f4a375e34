/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package aidj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultTTSAPI   = "https://api.elevenlabs.io"
	defaultTTSModel = "eleven_turbo_v2_5"

	// DefaultVoiceID is used when a persona carries no voice mapping.
	DefaultVoiceID = "peach95-default"
)

// TTSClient voices scripts through an ElevenLabs-compatible API and stores
// the audio under the media root.
type TTSClient struct {
	apiKey    string
	baseURL   string
	modelID   string
	mediaRoot string
	client    *http.Client
	logger    zerolog.Logger
}

// NewTTSClient creates the TTS client. Audio files land in
// <mediaRoot>/vo and are served under /media/vo.
func NewTTSClient(apiKey, baseURL, mediaRoot string, logger zerolog.Logger) *TTSClient {
	if baseURL == "" {
		baseURL = defaultTTSAPI
	}
	return &TTSClient{
		apiKey:    apiKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		modelID:   defaultTTSModel,
		mediaRoot: mediaRoot,
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logger.With().Str("component", "aidj.tts").Logger(),
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Synthesize voices the text and returns the served URL of the audio file.
func (c *TTSClient) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.5,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/text-to-speech/"+voiceID, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tts request: %w", err)
	}
	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("tts API status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tts audio: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("tts returned empty audio")
	}

	dir := filepath.Join(c.mediaRoot, "vo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create vo dir: %w", err)
	}
	name := "vo-" + uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(dir, name), audio, 0o644); err != nil {
		return "", fmt.Errorf("write vo audio: %w", err)
	}

	c.logger.Debug().Str("file", name).Int("bytes", len(audio)).Msg("VO audio written")
	return "/media/vo/" + name, nil
}
