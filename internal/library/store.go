/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package library is the station's track catalog, backed by the database
// and fed by JSON metadata sidecar files.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/peach95/internal/models"
)

// ErrNotFound indicates the track is not in the catalog.
var ErrNotFound = errors.New("track not found")

// Store provides access to the track catalog.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewStore creates the catalog store.
func NewStore(database *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     database,
		logger: logger.With().Str("component", "library").Logger(),
	}
}

// List returns all tracks ordered by artist, title.
func (s *Store) List(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	if err := s.db.WithContext(ctx).Order("artist, title").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}
	return tracks, nil
}

// Get returns the track with the given id.
func (s *Store) Get(ctx context.Context, id string) (models.Track, error) {
	var track models.Track
	err := s.db.WithContext(ctx).First(&track, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Track{}, ErrNotFound
	}
	if err != nil {
		return models.Track{}, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// Upsert inserts or updates a track after validation.
func (s *Store) Upsert(ctx context.Context, track models.Track) error {
	if err := Validate(track); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&track).Error
	if err != nil {
		return fmt.Errorf("upsert track: %w", err)
	}
	return nil
}

// Count returns the catalog size.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Track{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return n, nil
}

// ImportDir loads every .json metadata file under dir into the catalog.
// Invalid files are logged and skipped; the import continues.
func (s *Store) ImportDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read metadata dir: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		track, err := readMetadata(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping invalid metadata file")
			continue
		}
		if err := s.Upsert(ctx, track); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("skipping track")
			continue
		}
		imported++
	}

	s.logger.Info().Int("imported", imported).Str("dir", dir).Msg("metadata import complete")
	return imported, nil
}

func readMetadata(path string) (models.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Track{}, err
	}
	var track models.Track
	if err := json.Unmarshal(data, &track); err != nil {
		return models.Track{}, fmt.Errorf("parse metadata: %w", err)
	}
	if err := Validate(track); err != nil {
		return models.Track{}, err
	}
	return track, nil
}

// Validate checks the catalog invariants on a track.
func Validate(track models.Track) error {
	switch {
	case track.ID == "":
		return errors.New("track id is required")
	case track.FilePath == "":
		return errors.New("track file path is required")
	case track.Title == "" || track.Artist == "":
		return errors.New("track title and artist are required")
	case track.Duration <= 0:
		return fmt.Errorf("track duration must be positive, got %g", track.Duration)
	case track.Timing.Intro < 0:
		return fmt.Errorf("intro length must be non-negative, got %g", track.Timing.Intro)
	case track.Timing.Outro < 0:
		return fmt.Errorf("outro length must be non-negative, got %g", track.Timing.Outro)
	case track.Rotation.Energy < 1 || track.Rotation.Energy > 5:
		return fmt.Errorf("energy must be 1-5, got %d", track.Rotation.Energy)
	}
	switch track.Rotation.Category {
	case models.RotationA, models.RotationB, models.RotationC, models.RotationD:
	default:
		return fmt.Errorf("unknown rotation category %q", track.Rotation.Category)
	}
	return nil
}
