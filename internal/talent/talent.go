/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package talent manages DJ personas and the break types that shape
// voice-over content.
package talent

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Daypart identifies a broadcast shift.
type Daypart string

const (
	DaypartMorning   Daypart = "morning"
	DaypartAfternoon Daypart = "afternoon"
	DaypartEvening   Daypart = "evening"
	DaypartOvernight Daypart = "overnight"
)

// TimeOfDay maps a wall-clock time onto a daypart.
func TimeOfDay(now time.Time) Daypart {
	hour := now.Hour()
	switch {
	case hour >= 6 && hour < 12:
		return DaypartMorning
	case hour >= 12 && hour < 18:
		return DaypartAfternoon
	case hour >= 18 && hour < 22:
		return DaypartEvening
	default:
		return DaypartOvernight
	}
}

// Persona is a DJ voice configuration.
type Persona struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	DisplayName string    `yaml:"display_name" json:"displayName"`
	VoiceID     string    `yaml:"voice_id" json:"voiceId,omitempty"`
	Style       string    `yaml:"style" json:"style"`
	Dayparts    []Daypart `yaml:"dayparts" json:"dayparts"`
	Bio         string    `yaml:"bio" json:"bio,omitempty"`
}

// BreakType categorizes a VO break.
type BreakType string

const (
	BreakShort     BreakType = "short"
	BreakPersonal  BreakType = "personal"
	BreakUpsell    BreakType = "upsell"
	BreakBacksell  BreakType = "backsell"
	BreakTimeTemp  BreakType = "time-temp"
	BreakContest   BreakType = "contest"
	BreakStationID BreakType = "station-id"
)

// BreakConfig bounds the spoken length of a break and weights its selection.
type BreakConfig struct {
	Type        BreakType
	Label       string
	Description string
	MinDuration float64
	MaxDuration float64
	Weight      int
}

// BreakTypes holds the default break configurations.
var BreakTypes = map[BreakType]BreakConfig{
	BreakShort:     {Type: BreakShort, Label: "Short", Description: "Quick artist/title mention", MinDuration: 3, MaxDuration: 5, Weight: 40},
	BreakPersonal:  {Type: BreakPersonal, Label: "Personal", Description: "DJ shares a story or personality moment", MinDuration: 8, MaxDuration: 12, Weight: 10},
	BreakUpsell:    {Type: BreakUpsell, Label: "Upsell", Description: "Promote upcoming songs, shows, or events", MinDuration: 8, MaxDuration: 10, Weight: 15},
	BreakBacksell:  {Type: BreakBacksell, Label: "Backsell", Description: "Talk about the song that just played", MinDuration: 5, MaxDuration: 8, Weight: 20},
	BreakTimeTemp:  {Type: BreakTimeTemp, Label: "Time & Temp", Description: "Time check with weather info", MinDuration: 5, MaxDuration: 7, Weight: 8},
	BreakContest:   {Type: BreakContest, Label: "Contest", Description: "Contest promotion or reminder", MinDuration: 10, MaxDuration: 15, Weight: 5},
	BreakStationID: {Type: BreakStationID, Label: "Station ID", Description: "Station identification", MinDuration: 3, MaxDuration: 5, Weight: 2},
}

// DefaultPersonas is the built-in roster used when no roster file is
// configured.
var DefaultPersonas = []Persona{
	{
		ID:          "morning-mike",
		Name:        "morning-mike",
		DisplayName: "Morning Mike",
		Style:       "energetic",
		Dayparts:    []Daypart{DaypartMorning},
		Bio:         "Your wake-up call with high energy and great vibes!",
	},
	{
		ID:          "smooth-sarah",
		Name:        "smooth-sarah",
		DisplayName: "Smooth Sarah",
		Style:       "smooth",
		Dayparts:    []Daypart{DaypartAfternoon, DaypartEvening},
		Bio:         "Smooth vibes for your afternoon and evening drive.",
	},
	{
		ID:          "overnight-alex",
		Name:        "overnight-alex",
		DisplayName: "Overnight Alex",
		Style:       "chill",
		Dayparts:    []Daypart{DaypartOvernight},
		Bio:         "Keeping you company through the night with chill beats.",
	},
}

// Roster manages the set of available personas.
type Roster struct {
	personas []Persona
}

// NewRoster returns a roster with the built-in personas.
func NewRoster() *Roster {
	return &Roster{personas: append([]Persona(nil), DefaultPersonas...)}
}

// LoadRoster reads a YAML persona roster. An empty file yields the built-in
// defaults.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(doc.Personas) == 0 {
		return NewRoster(), nil
	}
	return &Roster{personas: doc.Personas}, nil
}

// Personas returns all personas.
func (r *Roster) Personas() []Persona {
	return append([]Persona(nil), r.personas...)
}

// Find returns the persona with the given name or id.
func (r *Roster) Find(name string) (Persona, bool) {
	for _, p := range r.personas {
		if p.Name == name || p.ID == name {
			return p, true
		}
	}
	return Persona{}, false
}

// DefaultForDaypart picks the first persona hosting the daypart, falling
// back to the first persona in the roster.
func (r *Roster) DefaultForDaypart(daypart Daypart) Persona {
	for _, p := range r.personas {
		for _, d := range p.Dayparts {
			if d == daypart {
				return p
			}
		}
	}
	return r.personas[0]
}

// SelectRandomBreakType picks a break type using the configured weights.
func SelectRandomBreakType() BreakType {
	total := 0
	for _, cfg := range BreakTypes {
		total += cfg.Weight
	}

	n := rand.Intn(total)
	for breakType, cfg := range BreakTypes {
		n -= cfg.Weight
		if n < 0 {
			return breakType
		}
	}
	return BreakShort
}
