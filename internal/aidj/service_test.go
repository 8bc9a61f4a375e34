/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package aidj

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/models"
	"github.com/friendsincode/peach95/internal/talent"
	"github.com/friendsincode/peach95/internal/vogen"
)

func genRequest(intro float64) vogen.Request {
	return vogen.Request{
		CurrentTrack: vogen.TrackRef{
			ID:     "trk-1",
			Title:  "Summer Nights",
			Artist: "The Paper Planes",
			Timing: &models.TrackTiming{Intro: intro},
		},
		Persona:     "morning-mike",
		TimeOfDay:   talent.DaypartMorning,
		EnergyLevel: 4,
	}
}

func TestGenerateRejectsColdOpen(t *testing.T) {
	svc := NewService(nil, nil, talent.NewRoster(), zerolog.Nop())

	req := genRequest(0)
	req.CurrentTrack.Timing.ColdOpen = true

	_, err := svc.Generate(context.Background(), req)
	if !errors.Is(err, ErrColdOpen) {
		t.Fatalf("expected ErrColdOpen, got %v", err)
	}
}

func TestGenerateMockPath(t *testing.T) {
	svc := NewService(nil, nil, talent.NewRoster(), zerolog.Nop())

	req := genRequest(12)
	req.BreakType = talent.BreakBacksell

	resp, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	seg := resp.Segment
	if seg == nil {
		t.Fatal("nil segment")
	}
	if !strings.Contains(seg.Transcript, "Summer Nights") || !strings.Contains(seg.Transcript, "The Paper Planes") {
		t.Errorf("transcript missing track info: %q", seg.Transcript)
	}
	if !strings.HasPrefix(seg.Transcript, "Today's Hits and Yesterday's Favorites") {
		t.Errorf("transcript missing station opener: %q", seg.Transcript)
	}
	if !strings.HasSuffix(seg.Transcript, "Peach 95.") {
		t.Errorf("transcript missing station closer: %q", seg.Transcript)
	}
	if seg.Duration <= 0 || seg.Duration > 11 {
		t.Errorf("mock duration %v out of bounds for a 12s intro", seg.Duration)
	}
	if seg.FileURL == "" || !strings.HasPrefix(seg.FileURL, "/media/vo/") {
		t.Errorf("unexpected mock file URL %q", seg.FileURL)
	}
	if resp.RecommendedIntro != 12 {
		t.Errorf("recommended intro %v", resp.RecommendedIntro)
	}
	wantOffset := 12 - 0.5 - seg.Duration
	if wantOffset < 0 {
		wantOffset = 0
	}
	if resp.CalculatedOffset != wantOffset || seg.StartOffset != wantOffset {
		t.Errorf("offset %v, want %v", resp.CalculatedOffset, wantOffset)
	}
}

func TestMockStationIDFormat(t *testing.T) {
	seg := MockSegment(genRequest(10), talent.BreakStationID, time.Now())
	if !strings.Contains(seg.Transcript, "The Paper Planes, Peach 95.") {
		t.Errorf("legal ID format wrong: %q", seg.Transcript)
	}
	if strings.Contains(seg.Transcript, "That was") {
		t.Errorf("legal ID must carry no commentary: %q", seg.Transcript)
	}
}

func TestMockDurationNeverExceedsIntro(t *testing.T) {
	for _, intro := range []float64{2, 4, 6, 10, 20} {
		for breakType := range talent.BreakTypes {
			seg := MockSegment(genRequest(intro), breakType, time.Now())
			if seg.Duration > intro-1 {
				t.Errorf("%s with intro %g: duration %g exceeds intro-1", breakType, intro, seg.Duration)
			}
			if seg.Duration < 0 {
				t.Errorf("%s with intro %g: negative duration", breakType, intro)
			}
		}
	}
}

func TestGenerateAIPath(t *testing.T) {
	const script = "Today's Hits and Yesterday's Favorites. That was The Paper Planes. Peach 95."

	var promptSeen string
	scriptSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("script path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-test" {
			t.Error("missing script API key header")
		}
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) > 0 {
			promptSeen = body.Messages[0].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": script}},
		})
	}))
	defer scriptSrv.Close()

	ttsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/") {
			t.Errorf("tts path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "xi-test" {
			t.Error("missing tts API key header")
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3 fake audio"))
	}))
	defer ttsSrv.Close()

	mediaRoot := t.TempDir()
	logger := zerolog.Nop()
	svc := NewService(
		NewScriptClient("sk-test", scriptSrv.URL, "", logger),
		NewTTSClient("xi-test", ttsSrv.URL, mediaRoot, logger),
		talent.NewRoster(),
		logger,
	)

	req := genRequest(15)
	req.BreakType = talent.BreakShort

	resp, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	seg := resp.Segment
	if seg.Transcript != script {
		t.Errorf("transcript %q", seg.Transcript)
	}
	// 12 words at 0.4s each, rounded up.
	if seg.Duration != 5 {
		t.Errorf("duration %v, want 5", seg.Duration)
	}
	if !strings.HasPrefix(seg.FileURL, "/media/vo/") {
		t.Errorf("file URL %q", seg.FileURL)
	}
	onDisk := filepath.Join(mediaRoot, "vo", filepath.Base(seg.FileURL))
	if _, err := os.Stat(onDisk); err != nil {
		t.Errorf("audio file not written: %v", err)
	}
	if !strings.Contains(promptSeen, "Peach 95") || !strings.Contains(promptSeen, "Summer Nights") {
		t.Errorf("prompt missing station or track context")
	}
	if !strings.Contains(promptSeen, "morning") {
		t.Errorf("prompt missing daypart")
	}
}

func TestGenerateAIScriptFailure(t *testing.T) {
	scriptSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer scriptSrv.Close()

	logger := zerolog.Nop()
	svc := NewService(
		NewScriptClient("sk-test", scriptSrv.URL, "", logger),
		NewTTSClient("xi-test", "http://127.0.0.1:1", t.TempDir(), logger),
		talent.NewRoster(),
		logger,
	)

	if _, err := svc.Generate(context.Background(), genRequest(10)); err == nil {
		t.Fatal("expected error from failing script API")
	}
}

func TestEstimateDuration(t *testing.T) {
	cases := []struct {
		script string
		want   float64
	}{
		{"one two three four five", 2},     // 5 * 0.4 = 2
		{"word", 1},                        // ceil(0.4)
		{"a b c d e f g h i j k l m n", 6}, // ceil(14 * 0.4)
	}
	for _, tc := range cases {
		if got := EstimateDuration(tc.script); got != tc.want {
			t.Errorf("EstimateDuration(%q) = %v, want %v", tc.script, got, tc.want)
		}
	}
}
