/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package aidj

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/models"
	"github.com/friendsincode/peach95/internal/talent"
	"github.com/friendsincode/peach95/internal/telemetry"
	"github.com/friendsincode/peach95/internal/timing"
	"github.com/friendsincode/peach95/internal/vogen"
)

// ErrColdOpen rejects generation for tracks whose vocal starts at zero.
var ErrColdOpen = errors.New("cannot generate VO for cold open tracks")

// Service turns generation requests into voiced segments. When either API
// client is absent it falls back to the mock generator.
type Service struct {
	script *ScriptClient
	tts    *TTSClient
	roster *talent.Roster
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates the generation service. script and tts may be nil,
// which selects the mock path.
func NewService(script *ScriptClient, tts *TTSClient, roster *talent.Roster, logger zerolog.Logger) *Service {
	return &Service{
		script: script,
		tts:    tts,
		roster: roster,
		logger: logger.With().Str("component", "aidj").Logger(),
		now:    time.Now,
	}
}

// AIEnabled reports whether both API clients are configured.
func (s *Service) AIEnabled() bool {
	return s.script != nil && s.tts != nil
}

// Generate produces a VO segment for the request, computing its start
// offset against the current track's intro.
func (s *Service) Generate(ctx context.Context, req vogen.Request) (*vogen.Response, error) {
	if req.CurrentTrack.Timing != nil && req.CurrentTrack.Timing.ColdOpen {
		telemetry.VOGenerationsTotal.WithLabelValues("skipped_cold_open").Inc()
		return nil, ErrColdOpen
	}

	breakType := req.BreakType
	if breakType == "" {
		breakType = talent.SelectRandomBreakType()
	}

	started := s.now()
	segment, err := s.buildSegment(ctx, req, breakType)
	telemetry.VOGenerationDuration.Observe(s.now().Sub(started).Seconds())
	if err != nil {
		telemetry.VOGenerationsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if s.AIEnabled() {
		telemetry.VOGenerationsTotal.WithLabelValues("generated").Inc()
	} else {
		telemetry.VOGenerationsTotal.WithLabelValues("mock").Inc()
	}

	intro := 0.0
	if req.CurrentTrack.Timing != nil {
		intro = req.CurrentTrack.Timing.Intro
	}
	offset := timing.StartOffset(intro, segment.Duration)
	segment.StartOffset = offset

	s.logger.Info().
		Str("break_type", string(breakType)).
		Str("persona", req.Persona).
		Float64("duration", segment.Duration).
		Float64("offset", offset).
		Bool("ai", s.AIEnabled()).
		Msg("VO segment generated")

	return &vogen.Response{
		Segment:          segment,
		CalculatedOffset: offset,
		RecommendedIntro: intro,
	}, nil
}

func (s *Service) buildSegment(ctx context.Context, req vogen.Request, breakType talent.BreakType) (*models.VOSegment, error) {
	if !s.AIEnabled() {
		s.logger.Warn().Msg("AI API keys not configured, using mock VO generation")
		return MockSegment(req, breakType, s.now()), nil
	}

	script, err := s.script.GenerateScript(ctx, req, breakType)
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}

	voiceID := ""
	if persona, ok := s.roster.Find(req.Persona); ok {
		voiceID = persona.VoiceID
	}
	fileURL, err := s.tts.Synthesize(ctx, script, voiceID)
	if err != nil {
		return nil, fmt.Errorf("synthesize VO: %w", err)
	}

	return &models.VOSegment{
		ID:          "vo-" + uuid.NewString(),
		FileURL:     fileURL,
		Duration:    EstimateDuration(script),
		Transcript:  script,
		GeneratedAt: s.now(),
		Persona:     req.Persona,
		BreakType:   string(breakType),
	}, nil
}
