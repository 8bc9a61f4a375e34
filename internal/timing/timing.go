/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timing computes voice-over placement against a track intro.
// A VO segment should end just before the vocal starts ("hitting the post").
package timing

import (
	"fmt"

	"github.com/friendsincode/peach95/internal/models"
)

// DefaultBuffer is the gap left between VO end and vocal entry, in seconds.
const DefaultBuffer = 0.5

// Info describes where a VO segment lands inside a track intro.
type Info struct {
	StartOffset float64 `json:"startOffset"`
	EndTime     float64 `json:"endTime"`
	IntroLength float64 `json:"introLength"`
	// BufferTime is the gap between VO end and intro end. Negative means
	// the VO overlaps the vocal; informational only, Validate is the gate.
	BufferTime float64 `json:"bufferTime"`
}

// StartOffset returns the offset into the track at which a VO of the given
// duration should start so it ends DefaultBuffer seconds before the intro
// ends. The result is clamped to zero; a VO longer than the available lead
// time starts immediately and overlaps the vocal, which Validate rejects.
func StartOffset(introLength, voDuration float64) float64 {
	targetEnd := introLength - DefaultBuffer
	offset := targetEnd - voDuration
	if offset < 0 {
		return 0
	}
	return offset
}

// ForSegment computes timing info for a VO segment against a track.
func ForSegment(track models.Track, vo models.VOSegment) Info {
	start := StartOffset(track.Timing.Intro, vo.Duration)
	end := start + vo.Duration
	return Info{
		StartOffset: start,
		EndTime:     end,
		IntroLength: track.Timing.Intro,
		BufferTime:  track.Timing.Intro - end,
	}
}

// Validate reports whether the VO segment fits the track intro. This is the
// authoritative gate before any secondary playback is scheduled.
func Validate(track models.Track, vo models.VOSegment) (bool, string) {
	if track.Timing.ColdOpen {
		return false, "track has cold open (no intro)"
	}
	if vo.Duration > track.Timing.Intro-DefaultBuffer {
		return false, fmt.Sprintf("VO duration (%gs) exceeds intro length (%gs)", vo.Duration, track.Timing.Intro)
	}
	return true, ""
}
