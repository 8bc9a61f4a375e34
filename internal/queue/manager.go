/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package queue maintains the upcoming-playback list and keeps the
// lookahead window VO-ready by triggering asynchronous generation.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/events"
	"github.com/friendsincode/peach95/internal/models"
	"github.com/friendsincode/peach95/internal/player"
	"github.com/friendsincode/peach95/internal/talent"
	"github.com/friendsincode/peach95/internal/vogen"
)

// LookaheadWindow is how many upcoming slots are kept VO-ready
// (2 ready + 1 warming).
const LookaheadWindow = 3

// ErrPositionOutOfRange indicates an operation on a missing queue slot.
var ErrPositionOutOfRange = errors.New("queue position out of range")

// Generator produces VO segments. Terminal failures return (nil, nil).
type Generator interface {
	Generate(ctx context.Context, req vogen.Request) (*models.VOSegment, error)
}

// StationContext supplies static script context. Weather and contest state
// are stubs until their integrations land.
type StationContext struct {
	Temperature   int
	ContestActive bool
}

// Manager owns the queue and orchestrates the dual-track player.
type Manager struct {
	player *player.Player
	gen    Generator
	bus    *events.Bus
	roster *talent.Roster
	logger zerolog.Logger
	now    func() time.Time

	station StationContext

	mu           sync.Mutex
	items        []*models.QueueItem
	activeTalent *talent.Persona
	// attempted records item identities whose generation already ran to a
	// terminal result, so the lookahead sweep does not re-trigger them.
	attempted map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates the queue manager.
func NewManager(p *player.Player, gen Generator, bus *events.Bus, roster *talent.Roster, station StationContext, logger zerolog.Logger) *Manager {
	return &Manager{
		player:    p,
		gen:       gen,
		bus:       bus,
		roster:    roster,
		station:   station,
		logger:    logger.With().Str("component", "queue").Logger(),
		now:       time.Now,
		attempted: make(map[string]bool),
		ctx:       context.Background(),
	}
}

// Start begins consuming player events (auto-advance on track end) until
// ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.ctx, m.cancel = context.WithCancel(ctx)
	runCtx := m.ctx
	m.mu.Unlock()

	sub := m.bus.Subscribe(events.EventTrackEnded)
	go func() {
		defer m.bus.Unsubscribe(events.EventTrackEnded, sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-sub:
				m.advance()
			}
		}
	}()
	m.logger.Info().Msg("queue manager started")
}

// Close stops background work.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Items returns a snapshot of the queue.
func (m *Manager) Items() []models.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.QueueItem, len(m.items))
	for i, item := range m.items {
		out[i] = *item
	}
	return out
}

// Enqueue inserts a track at position (append when position is nil) and
// renumbers. Insertion inside the lookahead window triggers VO generation
// without blocking the call.
func (m *Manager) Enqueue(track models.Track, position *int) models.QueueItem {
	m.mu.Lock()

	insert := len(m.items)
	if position != nil && *position >= 0 && *position <= len(m.items) {
		insert = *position
	}

	item := &models.QueueItem{
		ID:      uuid.NewString(),
		Track:   track,
		AddedAt: m.now(),
	}
	m.items = append(m.items, nil)
	copy(m.items[insert+1:], m.items[insert:])
	m.items[insert] = item
	m.renumberLocked()

	snapshot := *item
	m.ensureLookaheadLocked()
	m.mu.Unlock()

	m.publishQueueUpdated()
	return snapshot
}

// Remove deletes the slot at position and renumbers. An in-flight
// generation for the removed item is left to finish; its result is
// discarded at attach time.
func (m *Manager) Remove(position int) error {
	m.mu.Lock()
	if position < 0 || position >= len(m.items) {
		m.mu.Unlock()
		return ErrPositionOutOfRange
	}
	removed := m.items[position]
	m.items = append(m.items[:position], m.items[position+1:]...)
	delete(m.attempted, removed.ID)
	m.renumberLocked()
	m.ensureLookaheadLocked()
	m.mu.Unlock()

	m.publishQueueUpdated()
	return nil
}

// Reorder moves an item and renumbers. Slots shifted into the lookahead
// window get generation triggered.
func (m *Manager) Reorder(from, to int) error {
	m.mu.Lock()
	if from < 0 || from >= len(m.items) || to < 0 || to >= len(m.items) {
		m.mu.Unlock()
		return ErrPositionOutOfRange
	}
	item := m.items[from]
	m.items = append(m.items[:from], m.items[from+1:]...)
	m.items = append(m.items, nil)
	copy(m.items[to+1:], m.items[to:])
	m.items[to] = item
	m.renumberLocked()
	m.ensureLookaheadLocked()
	m.mu.Unlock()

	m.publishQueueUpdated()
	return nil
}

// Clear empties the queue.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.items = nil
	m.attempted = make(map[string]bool)
	m.mu.Unlock()
	m.publishQueueUpdated()
}

// PlayPosition dequeues the slot and hands it to the player. A primary load
// failure is returned to the caller; the item is left at the head so the
// operator sees what refused to start.
func (m *Manager) PlayPosition(ctx context.Context, position int) error {
	m.mu.Lock()
	if position < 0 || position >= len(m.items) {
		m.mu.Unlock()
		return ErrPositionOutOfRange
	}
	item := *m.items[position]
	m.mu.Unlock()

	if err := m.player.LoadWithVO(ctx, item.Track, item.VOSegment); err != nil {
		return fmt.Errorf("play position %d: %w", position, err)
	}
	if err := m.player.PlayWithSync(); err != nil {
		return fmt.Errorf("play position %d: %w", position, err)
	}

	m.mu.Lock()
	// Re-locate by identity: the queue may have shifted during the load.
	for i, it := range m.items {
		if it.ID == item.ID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			delete(m.attempted, it.ID)
			break
		}
	}
	m.renumberLocked()
	m.ensureLookaheadLocked()
	m.mu.Unlock()

	m.publishQueueUpdated()
	return nil
}

// RegenerateVO explicitly retries generation for a slot whose earlier
// attempt gave up.
func (m *Manager) RegenerateVO(position int) error {
	m.mu.Lock()
	if position < 0 || position >= len(m.items) {
		m.mu.Unlock()
		return ErrPositionOutOfRange
	}
	item := m.items[position]
	delete(m.attempted, item.ID)
	item.VOSegment = nil
	m.ensureLookaheadLocked()
	m.mu.Unlock()
	return nil
}

// SetActiveTalent selects the persona used for upcoming VO breaks.
func (m *Manager) SetActiveTalent(name string) error {
	persona, ok := m.roster.Find(name)
	if !ok {
		return fmt.Errorf("unknown persona %q", name)
	}
	m.mu.Lock()
	m.activeTalent = &persona
	m.mu.Unlock()
	return nil
}

// ActiveTalent returns the selected persona, defaulting by daypart.
func (m *Manager) ActiveTalent() talent.Persona {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeTalentLocked()
}

func (m *Manager) activeTalentLocked() talent.Persona {
	if m.activeTalent != nil {
		return *m.activeTalent
	}
	return m.roster.DefaultForDaypart(talent.TimeOfDay(m.now()))
}

// advance plays the head of the queue when the current track ends. A track
// whose primary fails to load is dropped and the next one is tried, so one
// bad asset cannot stall the station.
func (m *Manager) advance() {
	for {
		m.mu.Lock()
		empty := len(m.items) == 0
		ctx := m.ctx
		m.mu.Unlock()
		if empty {
			m.logger.Info().Msg("queue empty, playout idle")
			return
		}

		err := m.PlayPosition(ctx, 0)
		if err == nil {
			return
		}
		m.logger.Error().Err(err).Msg("auto-advance failed, skipping track")
		if removeErr := m.Remove(0); removeErr != nil {
			return
		}
	}
}

// renumberLocked restores the position/index invariant.
func (m *Manager) renumberLocked() {
	for i, item := range m.items {
		item.Position = i
	}
}

// ensureLookaheadLocked triggers generation for every slot in the window
// that lacks a VO and has no outstanding or terminally-finished attempt.
func (m *Manager) ensureLookaheadLocked() {
	limit := LookaheadWindow
	if len(m.items) < limit {
		limit = len(m.items)
	}
	for i := 0; i < limit; i++ {
		item := m.items[i]
		if item.VOSegment != nil || item.VOPending || m.attempted[item.ID] {
			continue
		}
		if item.Track.Timing.ColdOpen {
			// Cold opens never get VO; a stinger will cover the
			// transition once clock scheduling lands.
			m.logger.Debug().Str("title", item.Track.Title).Msg("skipping VO generation for cold open track")
			m.attempted[item.ID] = true
			continue
		}
		item.VOPending = true
		req := m.buildRequestLocked(i)
		go m.generate(item.ID, item.Track, req)
	}
}

// buildRequestLocked assembles the generation request for the slot,
// including previous/next track references for backsells and upsells.
func (m *Manager) buildRequestLocked(position int) vogen.Request {
	item := m.items[position]
	persona := m.activeTalentLocked()

	req := vogen.Request{
		CurrentTrack: vogen.TrackRef{
			ID:       item.Track.ID,
			Title:    item.Track.Title,
			Artist:   item.Track.Artist,
			Timing:   &models.TrackTiming{Intro: item.Track.Timing.Intro, ColdOpen: item.Track.Timing.ColdOpen},
			Rotation: &vogen.RotationRef{Energy: item.Track.Rotation.Energy},
		},
		Persona:     persona.Name,
		TimeOfDay:   talent.TimeOfDay(m.now()),
		EnergyLevel: item.Track.Rotation.Energy,
		BreakType:   talent.SelectRandomBreakType(),
		Context: &vogen.Context{
			Temperature:   m.station.Temperature,
			ContestActive: m.station.ContestActive,
		},
	}
	if position > 0 {
		prev := m.items[position-1]
		req.PreviousTrack = &vogen.TrackRef{Title: prev.Track.Title, Artist: prev.Track.Artist}
	}
	if position+1 < len(m.items) {
		next := m.items[position+1]
		req.NextTrack = &vogen.TrackRef{Title: next.Track.Title, Artist: next.Track.Artist}
	}
	return req
}

// generate runs one VO generation and attaches the result by item
// identity. Results for slots that were removed or already played are
// discarded; a reordered slot still receives its own VO.
func (m *Manager) generate(itemID string, track models.Track, req vogen.Request) {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()

	segment, err := m.gen.Generate(ctx, req)
	if err != nil {
		// The client absorbs generation failures; an error here is a
		// programming or context error, treated the same way.
		m.logger.Warn().Err(err).Str("title", track.Title).Msg("VO generation error")
		segment = nil
	}

	m.mu.Lock()
	item := m.findLocked(itemID)
	if item == nil {
		m.mu.Unlock()
		if segment != nil {
			m.logger.Debug().Str("title", track.Title).Msg("VO arrived for a slot that no longer exists, discarding")
		}
		return
	}
	item.VOPending = false
	m.attempted[itemID] = true
	if segment == nil {
		m.mu.Unlock()
		m.logger.Info().Str("title", track.Title).Msg("track will play without voice-over")
		return
	}
	item.VOSegment = segment
	position := item.Position
	m.mu.Unlock()

	m.logger.Info().Str("title", track.Title).Str("break_type", segment.BreakType).Float64("duration", segment.Duration).Msg("VO generated")
	m.bus.Publish(events.EventVOAttached, events.Payload{
		"item_id":  itemID,
		"position": position,
		"vo_id":    segment.ID,
		"track_id": track.ID,
	})
	m.publishQueueUpdated()
}

func (m *Manager) findLocked(itemID string) *models.QueueItem {
	for _, item := range m.items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

func (m *Manager) publishQueueUpdated() {
	m.mu.Lock()
	depth := len(m.items)
	m.mu.Unlock()
	m.bus.Publish(events.EventQueueUpdated, events.Payload{"depth": depth})
}
