/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package talent

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want Daypart
	}{
		{6, DaypartMorning},
		{11, DaypartMorning},
		{12, DaypartAfternoon},
		{17, DaypartAfternoon},
		{18, DaypartEvening},
		{21, DaypartEvening},
		{22, DaypartOvernight},
		{3, DaypartOvernight},
		{5, DaypartOvernight},
	}

	for _, tt := range tests {
		now := time.Date(2026, 8, 1, tt.hour, 30, 0, 0, time.UTC)
		if got := TimeOfDay(now); got != tt.want {
			t.Errorf("TimeOfDay(%02d:30) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestDefaultForDaypart(t *testing.T) {
	roster := NewRoster()

	tests := []struct {
		daypart Daypart
		want    string
	}{
		{DaypartMorning, "morning-mike"},
		{DaypartAfternoon, "smooth-sarah"},
		{DaypartEvening, "smooth-sarah"},
		{DaypartOvernight, "overnight-alex"},
	}
	for _, tt := range tests {
		if got := roster.DefaultForDaypart(tt.daypart); got.ID != tt.want {
			t.Errorf("DefaultForDaypart(%s) = %s, want %s", tt.daypart, got.ID, tt.want)
		}
	}
}

func TestDefaultForDaypartFallsBack(t *testing.T) {
	roster := &Roster{personas: []Persona{{ID: "only-one", Dayparts: []Daypart{DaypartMorning}}}}
	if got := roster.DefaultForDaypart(DaypartOvernight); got.ID != "only-one" {
		t.Errorf("fallback persona = %s, want only-one", got.ID)
	}
}

func TestFind(t *testing.T) {
	roster := NewRoster()

	if _, ok := roster.Find("morning-mike"); !ok {
		t.Error("Find(morning-mike) not found")
	}
	if _, ok := roster.Find("nobody"); ok {
		t.Error("Find(nobody) unexpectedly found")
	}
}

func TestSelectRandomBreakTypeIsConfigured(t *testing.T) {
	for i := 0; i < 200; i++ {
		breakType := SelectRandomBreakType()
		if _, ok := BreakTypes[breakType]; !ok {
			t.Fatalf("SelectRandomBreakType returned unknown type %q", breakType)
		}
	}
}

func TestLoadRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talent.yaml")
	doc := `personas:
  - id: night-owl
    name: night-owl
    display_name: Night Owl
    style: chill
    dayparts: [overnight]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(roster.Personas()) != 1 {
		t.Fatalf("persona count = %d, want 1", len(roster.Personas()))
	}
	if got := roster.DefaultForDaypart(DaypartOvernight); got.ID != "night-owl" {
		t.Errorf("DefaultForDaypart(overnight) = %s, want night-owl", got.ID)
	}
}

func TestLoadRosterEmptyFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talent.yaml")
	if err := os.WriteFile(path, []byte("personas: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	if len(roster.Personas()) != len(DefaultPersonas) {
		t.Errorf("persona count = %d, want %d", len(roster.Personas()), len(DefaultPersonas))
	}
}
