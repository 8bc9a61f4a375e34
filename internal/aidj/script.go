/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package aidj generates voice-over segments: an LLM writes the break
// script, a TTS service voices it, and a mock path covers installs without
// API keys.
package aidj

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/talent"
	"github.com/friendsincode/peach95/internal/vogen"
)

const (
	defaultScriptAPI   = "https://api.anthropic.com"
	defaultScriptModel = "claude-3-5-haiku-20241022"
	scriptMaxTokens    = 300
	scriptTemperature  = 0.8

	// secondsPerWord is slightly slower than conversational speech, for
	// radio clarity.
	secondsPerWord = 0.4
)

// ScriptClient generates break scripts via an Anthropic-compatible
// messages API.
type ScriptClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewScriptClient creates the script client. baseURL and model fall back to
// the hosted API defaults when empty.
func NewScriptClient(apiKey, baseURL, model string, logger zerolog.Logger) *ScriptClient {
	if baseURL == "" {
		baseURL = defaultScriptAPI
	}
	if model == "" {
		model = defaultScriptModel
	}
	return &ScriptClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With().Str("component", "aidj.script").Logger(),
	}
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// GenerateScript writes a break script for the request.
func (c *ScriptClient) GenerateScript(ctx context.Context, req vogen.Request, breakType talent.BreakType) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:       c.model,
		MaxTokens:   scriptMaxTokens,
		Temperature: scriptTemperature,
		Messages:    []message{{Role: "user", Content: buildPrompt(req, breakType, time.Now())}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal script request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build script request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("script request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("script API status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode script response: %w", err)
	}
	if len(decoded.Content) == 0 {
		return "", fmt.Errorf("script response has no content")
	}
	script := strings.TrimSpace(decoded.Content[0].Text)
	if len(script) < 10 {
		return "", fmt.Errorf("generated script too short (%d chars)", len(script))
	}
	return script, nil
}

// EstimateDuration estimates spoken length in seconds from word count.
func EstimateDuration(script string) float64 {
	words := len(strings.Fields(script))
	return math.Ceil(float64(words) * secondsPerWord)
}

// buildPrompt assembles the generation prompt from break type, energy, and
// daypart.
func buildPrompt(req vogen.Request, breakType talent.BreakType, now time.Time) string {
	cfg := talent.BreakTypes[breakType]

	energyTone := "smooth and laid-back"
	switch {
	case req.EnergyLevel >= 4:
		energyTone = "upbeat and energetic"
	case req.EnergyLevel >= 3:
		energyTone = "warm and engaging"
	}

	timeGuidance := map[talent.Daypart]string{
		talent.DaypartMorning:   "bright, welcoming morning energy",
		talent.DaypartAfternoon: "steady, friendly afternoon vibe",
		talent.DaypartEvening:   "relaxed, evening wind-down feel",
		talent.DaypartOvernight: "intimate, late-night atmosphere",
	}[req.TimeOfDay]

	var task string
	switch breakType {
	case talent.BreakShort:
		task = "Generate a brief backsell of the song that just played."
	case talent.BreakPersonal:
		task = "Share a personal anecdote or fun fact about the song or artist. Make it feel genuine and relatable."
	case talent.BreakUpsell:
		switch {
		case req.NextTrack != nil:
			task = fmt.Sprintf("Tease the upcoming song %q by %s and build excitement for what's coming.", req.NextTrack.Title, req.NextTrack.Artist)
		case req.Context != nil && req.Context.UpcomingEvent != "":
			task = fmt.Sprintf("Mention the upcoming event: %q and create excitement.", req.Context.UpcomingEvent)
		default:
			task = "Create anticipation for the great music coming up this hour."
		}
	case talent.BreakBacksell:
		task = "Give credit to the track that just played with context about the album or artist's recent work."
	case talent.BreakTimeTemp:
		temp := 72
		if req.Context != nil && req.Context.Temperature != 0 {
			temp = req.Context.Temperature
		}
		task = fmt.Sprintf("Mention it's %s and %d degrees, then backsell the song that just played.", now.Format("3:04 PM"), temp)
	case talent.BreakContest:
		if req.Context != nil && req.Context.ContestActive {
			task = "Remind listeners about the active contest and encourage them to call in. Create urgency."
		} else {
			task = "Tease upcoming contests and prizes to keep listeners engaged."
		}
	case talent.BreakStationID:
		task = "This is a legal station ID. Keep it VERY brief - just the station call sign and artist name. No extra commentary."
	default:
		task = "Generate a standard backsell of the song."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a radio DJ for Peach 95: \"Today's Hits and Yesterday's Favorites\".\n\n", req.Persona)
	fmt.Fprintf(&b, "Generate a %s radio voice-over for the %s shift.\n\n", breakType, req.TimeOfDay)
	b.WriteString("TRACK INFORMATION:\n")
	if req.PreviousTrack != nil {
		fmt.Fprintf(&b, "- Just played: %q by %s\n", req.PreviousTrack.Title, req.PreviousTrack.Artist)
	}
	fmt.Fprintf(&b, "- Now playing: %q by %s\n", req.CurrentTrack.Title, req.CurrentTrack.Artist)
	if req.NextTrack != nil {
		fmt.Fprintf(&b, "- Coming up next: %q by %s\n", req.NextTrack.Title, req.NextTrack.Artist)
	}
	b.WriteString("\nSTYLE REQUIREMENTS:\n")
	fmt.Fprintf(&b, "- Tone: %s, %s\n", energyTone, timeGuidance)
	fmt.Fprintf(&b, "- Duration: %g-%g seconds of speech\n", cfg.MinDuration, cfg.MaxDuration)
	fmt.Fprintf(&b, "- Delivery: %s format\n", cfg.Label)
	b.WriteString("\nMANDATORY FORMAT:\n")
	b.WriteString("1. ALWAYS open with: \"Today's Hits and Yesterday's Favorites\" (randomly add \"Peach 95\" after it ~50% of the time)\n")
	b.WriteString("2. Your main content\n")
	b.WriteString("3. ALWAYS close with: \"Peach 95\"\n")
	if breakType == talent.BreakStationID {
		b.WriteString("\n**EXCEPTION FOR STATION-ID**: Use format \"Today's Hits and Yesterday's Favorites, Peach 95. [Artist name], Peach 95.\"\n")
	}
	fmt.Fprintf(&b, "\nTASK:\n%s\n", task)
	b.WriteString("\nCONSTRAINTS:\n")
	b.WriteString("- Natural, conversational language (avoid radio cliches)\n")
	b.WriteString("- No stage directions, timestamps, or formatting\n")
	b.WriteString("- Keep it tight - radio moves fast\n")
	b.WriteString("- Sound genuine, not scripted\n")
	b.WriteString("- Match the energy level of the music\n")
	b.WriteString("\nGenerate ONLY the script text, nothing else:")
	return b.String()
}
