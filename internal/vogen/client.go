/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package vogen is the client boundary to the voice-over generation
// service. Every failure resolves to "no segment" here; callers never see
// generation errors.
package vogen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/models"
	"github.com/friendsincode/peach95/internal/retry"
	"github.com/friendsincode/peach95/internal/talent"
)

// TrackRef identifies a track in a generation request.
type TrackRef struct {
	ID       string              `json:"id,omitempty"`
	Title    string              `json:"title"`
	Artist   string              `json:"artist"`
	Timing   *models.TrackTiming `json:"timing,omitempty"`
	Rotation *RotationRef        `json:"rotation,omitempty"`
}

// RotationRef carries the rotation fields the script generator uses.
type RotationRef struct {
	Energy int `json:"energy"`
}

// Context carries static station context for the script.
type Context struct {
	Temperature   int    `json:"temperature,omitempty"`
	ContestActive bool   `json:"contestActive,omitempty"`
	UpcomingEvent string `json:"upcomingEvent,omitempty"`
}

// Request is the generation request shape.
type Request struct {
	CurrentTrack  TrackRef         `json:"currentTrack"`
	PreviousTrack *TrackRef        `json:"previousTrack,omitempty"`
	NextTrack     *TrackRef        `json:"nextTrack,omitempty"`
	Persona       string           `json:"persona"`
	TimeOfDay     talent.Daypart   `json:"timeOfDay"`
	EnergyLevel   int              `json:"energyLevel"`
	BreakType     talent.BreakType `json:"breakType,omitempty"`
	Context       *Context         `json:"context,omitempty"`
}

// Response is the generation response shape.
type Response struct {
	Segment          *models.VOSegment `json:"segment"`
	CalculatedOffset float64           `json:"calculatedOffset"`
	RecommendedIntro float64           `json:"recommendedIntro"`
}

// StatusError carries the HTTP status of a failed generation call.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vo service returned %d: %s", e.Status, e.Body)
}

// retryable reports whether the error is a transient server-side failure.
// Client errors (4xx) are policy rejections and never retried.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500
	}
	// Network-level failures are transient.
	return true
}

// Client calls the VO generation endpoint with bounded retry.
type Client struct {
	baseURL string
	http    *http.Client
	policy  retry.Policy
	logger  zerolog.Logger
}

// NewClient creates a generation client. Three total attempts with a
// linearly increasing delay between them.
func NewClient(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.LinearBackoff(500 * time.Millisecond),
			Retryable:   retryable,
		},
		logger: logger.With().Str("component", "vogen").Logger(),
	}
}

// Generate produces a VO segment for the request. It returns (nil, nil) on
// every terminal failure: 4xx rejection, exhausted retries, or a malformed
// success response. The track simply plays without voice-over.
func (c *Client) Generate(ctx context.Context, req Request) (*models.VOSegment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var segment *models.VOSegment
	err = c.policy.Do(ctx, func() error {
		seg, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		segment = seg
		return nil
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Status < 500 {
			c.logger.Warn().Int("status", statusErr.Status).Str("title", req.CurrentTrack.Title).Msg("VO generation rejected, track plays without VO")
			return nil, nil
		}
		c.logger.Warn().Err(err).Str("title", req.CurrentTrack.Title).Msg("VO generation failed after retries, track plays without VO")
		return nil, nil
	}

	if segment == nil || segment.FileURL == "" {
		c.logger.Warn().Str("title", req.CurrentTrack.Title).Msg("VO service returned segment without audio, discarding")
		return nil, nil
	}
	return segment, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*models.VOSegment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/vo-segments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("vo service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Status: resp.StatusCode, Body: string(msg)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Segment, nil
}
