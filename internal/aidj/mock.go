/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package aidj

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/peach95/internal/models"
	"github.com/friendsincode/peach95/internal/talent"
	"github.com/friendsincode/peach95/internal/vogen"
)

const stationCloser = "Peach 95"

// Placeholder audio rendered by EnsureMockAssets, by length.
var mockVOFiles = []string{
	"/media/vo/vo-short.wav",  // 3s
	"/media/vo/vo-medium.wav", // 5s
	"/media/vo/vo-long.wav",   // 7s
}

var personalLines = []string{
	"You know, %s by %s always reminds me of summer road trips. Brings back great memories!",
	"Love this track from %[2]s. Fun fact: I actually saw them live last year - incredible show!",
	"%s... this one never gets old. Been in my playlist since day one.",
}

// MockSegment builds a canned VO segment for installs without API keys.
// The transcript follows the station's branded open/close format and the
// duration is bounded by the break type config and the track intro.
func MockSegment(req vogen.Request, breakType talent.BreakType, now time.Time) *models.VOSegment {
	cfg := talent.BreakTypes[breakType]
	cur := req.CurrentTrack

	opener := "Today's Hits and Yesterday's Favorites"
	if rand.Intn(2) == 0 {
		opener += ", " + stationCloser
	}

	var main string
	switch breakType {
	case talent.BreakShort:
		main = fmt.Sprintf("That was %s with %s.", cur.Artist, cur.Title)
	case talent.BreakPersonal:
		main = fmt.Sprintf(personalLines[rand.Intn(len(personalLines))], cur.Title, cur.Artist)
	case talent.BreakUpsell:
		switch {
		case req.NextTrack != nil:
			main = fmt.Sprintf("That was %s. Coming up, we've got %s by %s, and later this hour, even more hits!", cur.Artist, req.NextTrack.Title, req.NextTrack.Artist)
		case req.Context != nil && req.Context.UpcomingEvent != "":
			main = fmt.Sprintf("%s with %s. Don't forget - %s happening soon!", cur.Artist, cur.Title, req.Context.UpcomingEvent)
		default:
			main = fmt.Sprintf("That was %s. Stay tuned, we've got an amazing hour of music ahead!", cur.Title)
		}
	case talent.BreakBacksell:
		main = fmt.Sprintf("That was %s by %s, great track from their latest album.", cur.Title, cur.Artist)
	case talent.BreakTimeTemp:
		temp := 72
		if req.Context != nil && req.Context.Temperature != 0 {
			temp = req.Context.Temperature
		}
		main = fmt.Sprintf("It's %s, %d degrees outside. That was %s with %s.", now.Format("3:04 PM"), temp, cur.Artist, cur.Title)
	case talent.BreakContest:
		if req.Context != nil && req.Context.ContestActive {
			main = fmt.Sprintf("%s by %s. Remember, call in now for your chance to win - lines are open!", cur.Title, cur.Artist)
		} else {
			main = fmt.Sprintf("That was %s. Keep listening for your chance to win tickets to upcoming shows!", cur.Artist)
		}
	default:
		main = fmt.Sprintf("That was %s with %s.", cur.Artist, cur.Title)
	}

	var transcript string
	if breakType == talent.BreakStationID {
		// Legal ID has its own fixed format.
		transcript = fmt.Sprintf("%s. %s, %s.", opener, cur.Artist, stationCloser)
	} else {
		transcript = fmt.Sprintf("%s. %s %s.", opener, main, stationCloser)
	}

	intro := 0.0
	if cur.Timing != nil {
		intro = cur.Timing.Intro
	}
	target := math.Min(cfg.MaxDuration, math.Max(cfg.MinDuration, intro-1))
	duration := math.Min(target, intro-1)
	if duration < 0 {
		duration = 0
	}

	fileIndex := 2
	switch {
	case duration <= 3:
		fileIndex = 0
	case duration <= 5:
		fileIndex = 1
	}

	return &models.VOSegment{
		ID:          "vo-" + uuid.NewString(),
		FileURL:     mockVOFiles[fileIndex],
		Duration:    duration,
		Transcript:  transcript,
		GeneratedAt: now,
		Persona:     req.Persona,
		BreakType:   string(breakType),
	}
}
