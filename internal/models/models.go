/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"
)

// RotationCategory is the rotation bucket a track is scheduled from.
type RotationCategory string

const (
	RotationA RotationCategory = "A"
	RotationB RotationCategory = "B"
	RotationC RotationCategory = "C"
	RotationD RotationCategory = "D"
)

// TrackTiming carries the intro/outro markers used for VO placement.
type TrackTiming struct {
	Intro    float64 `json:"intro"`
	Outro    float64 `json:"outro"`
	ColdOpen bool    `json:"coldOpen"`
}

// TrackRotation carries rotation and scheduling metadata.
type TrackRotation struct {
	Category   RotationCategory `json:"category"`
	Energy     int              `json:"energy"`
	PlayCount  int              `json:"playCount"`
	LastPlayed *time.Time       `json:"lastPlayed"`
	AddedDate  time.Time        `json:"addedDate"`
}

// Track is a playable audio asset from the station library.
// Read-only to the playout core; the library layer owns mutation.
type Track struct {
	ID       string `json:"id" gorm:"primaryKey"`
	FilePath string `json:"filePath"`
	Title    string `json:"title" gorm:"index"`
	Artist   string `json:"artist" gorm:"index"`
	Album    string `json:"album,omitempty"`
	Year     int    `json:"year,omitempty"`
	Genre    string `json:"genre,omitempty"`

	Duration float64 `json:"duration"`

	Timing   TrackTiming   `json:"timing" gorm:"embedded;embeddedPrefix:timing_"`
	Rotation TrackRotation `json:"rotation" gorm:"embedded;embeddedPrefix:rotation_"`

	Explicit bool `json:"explicit"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VOSegment is a generated voice-over result.
type VOSegment struct {
	ID          string    `json:"id"`
	FileURL     string    `json:"fileUrl"`
	Duration    float64   `json:"duration"`
	StartOffset float64   `json:"startOffset"`
	Transcript  string    `json:"transcript,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	Persona     string    `json:"persona,omitempty"`
	BreakType   string    `json:"breakType,omitempty"`
}

// QueueItem is one slot in the upcoming-playback list. The ID is a stable
// identity that survives reorders; Position always matches the list index.
type QueueItem struct {
	ID        string     `json:"id"`
	Track     Track      `json:"track"`
	VOSegment *VOSegment `json:"voSegment,omitempty"`
	Position  int        `json:"position"`
	AddedAt   time.Time  `json:"addedAt"`

	// VOPending is true while a generation request for this item is in
	// flight. It clears when the result attaches or the attempt gives up.
	VOPending bool `json:"voPending"`
}

// PlaybackState enumerates dual-track player session states.
type PlaybackState string

const (
	PlaybackEmpty   PlaybackState = "empty"
	PlaybackLoading PlaybackState = "loading"
	PlaybackReady   PlaybackState = "ready"
	PlaybackPlaying PlaybackState = "playing"
	PlaybackPaused  PlaybackState = "paused"
	PlaybackStopped PlaybackState = "stopped"
)
