/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package player implements the dual-track playout engine: one primary
// music handle plus named secondary voice-over handles started by one-shot
// timers so the VO lands inside the track intro.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/audio"
	"github.com/friendsincode/peach95/internal/events"
	"github.com/friendsincode/peach95/internal/models"
	"github.com/friendsincode/peach95/internal/timing"
)

const (
	// SlotVO is the secondary slot used for voice-over segments.
	SlotVO = "vo"

	samplerInterval = 100 * time.Millisecond
	endGrace        = 100 * time.Millisecond
)

// ErrNotReady indicates playback was requested without a loaded primary.
var ErrNotReady = errors.New("player not ready")

// secondary tracks one armed or playing sub-resource. Each record owns its
// timer and handle; removal is by slot key.
type secondary struct {
	slot    string
	vo      models.VOSegment
	handle  audio.Handle
	timer   *time.Timer
	started bool
}

// Player owns the primary and secondary audio handles for the live playback
// session. A single instance serves the whole station; all mutation goes
// through its methods.
type Player struct {
	engine audio.Engine
	bus    *events.Bus
	logger zerolog.Logger

	mu          sync.Mutex
	state       models.PlaybackState
	track       *models.Track
	primary     audio.Handle
	secondaries map[string]*secondary

	// session increments on every load and stop so timers and watcher
	// goroutines from a previous track cannot touch the current one.
	session int

	samplerStop chan struct{}

	volume float64
	muted  bool
}

// New creates the player.
func New(engine audio.Engine, bus *events.Bus, logger zerolog.Logger) *Player {
	return &Player{
		engine:      engine,
		bus:         bus,
		logger:      logger.With().Str("component", "player").Logger(),
		state:       models.PlaybackEmpty,
		secondaries: make(map[string]*secondary),
		volume:      0.8,
	}
}

// State returns the current session state.
func (p *Player) State() models.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentTrack returns the loaded track, if any.
func (p *Player) CurrentTrack() *models.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// LoadPrimary loads the music track. Failure is fatal for the track: the
// session returns to empty and the caller must not attempt playback.
func (p *Player) LoadPrimary(ctx context.Context, track models.Track) error {
	p.mu.Lock()
	if p.state != models.PlaybackEmpty && p.state != models.PlaybackStopped {
		p.releaseAllLocked()
	}
	p.session++
	p.state = models.PlaybackLoading
	p.track = nil
	p.mu.Unlock()

	handle, err := p.engine.Load(ctx, track.FilePath, track.Duration)
	if err != nil {
		p.mu.Lock()
		p.state = models.PlaybackEmpty
		p.mu.Unlock()
		p.bus.Publish(events.EventTrackError, events.Payload{
			"code":     "LOAD_ERROR",
			"message":  err.Error(),
			"track_id": track.ID,
			"title":    track.Title,
		})
		return fmt.Errorf("load primary: %w", err)
	}

	p.mu.Lock()
	p.primary = handle
	p.track = &track
	p.state = models.PlaybackReady
	p.mu.Unlock()

	p.bus.Publish(events.EventTrackLoaded, events.Payload{
		"track_id": track.ID,
		"title":    track.Title,
		"artist":   track.Artist,
		"duration": track.Duration,
	})
	return nil
}

// LoadSecondary loads a sub-resource (voice-over) into the named slot.
// Failure is non-fatal: a vo.error event is emitted and the primary stays
// ready, so the track plays without VO.
func (p *Player) LoadSecondary(ctx context.Context, slot string, vo models.VOSegment) error {
	p.mu.Lock()
	if p.primary == nil {
		p.mu.Unlock()
		return ErrNotReady
	}
	if existing, ok := p.secondaries[slot]; ok {
		p.removeSecondaryLocked(existing)
	}
	p.mu.Unlock()

	handle, err := p.engine.Load(ctx, vo.FileURL, vo.Duration)
	if err != nil {
		p.logger.Warn().Err(err).Str("slot", slot).Str("vo_id", vo.ID).Msg("secondary load failed, continuing without VO")
		p.bus.Publish(events.EventVOError, events.Payload{
			"slot":    slot,
			"vo_id":   vo.ID,
			"message": err.Error(),
		})
		return fmt.Errorf("load secondary %s: %w", slot, err)
	}

	p.mu.Lock()
	p.secondaries[slot] = &secondary{slot: slot, vo: vo, handle: handle}
	p.mu.Unlock()

	p.bus.Publish(events.EventVOLoaded, events.Payload{
		"slot":     slot,
		"vo_id":    vo.ID,
		"duration": vo.Duration,
	})
	return nil
}

// LoadWithVO loads the primary track and, if a VO segment is supplied,
// the VO secondary. A secondary failure does not fail the call.
func (p *Player) LoadWithVO(ctx context.Context, track models.Track, vo *models.VOSegment) error {
	if err := p.LoadPrimary(ctx, track); err != nil {
		return err
	}
	if vo != nil {
		_ = p.LoadSecondary(ctx, SlotVO, *vo)
	}
	return nil
}

// PlayWithSync starts the primary immediately and arms a one-shot timer per
// loaded secondary at the offset computed by the timing calculator. Calling
// it while paused resumes: started secondaries continue from their position,
// timers that were cancelled by the pause stay cancelled.
func (p *Player) PlayWithSync() error {
	p.mu.Lock()

	switch p.state {
	case models.PlaybackPaused:
		return p.resumeLocked()
	case models.PlaybackReady:
	default:
		p.mu.Unlock()
		return ErrNotReady
	}

	track := *p.track
	session := p.session
	primary := p.primary

	// The primary must be running before any secondary timer exists: a
	// zero-offset timer fires the moment the lock is released, and it may
	// only ever start a VO over a live primary.
	if err := primary.Play(); err != nil {
		p.mu.Unlock()
		p.bus.Publish(events.EventTrackError, events.Payload{
			"code":     "PLAY_ERROR",
			"message":  err.Error(),
			"track_id": track.ID,
		})
		return fmt.Errorf("play primary: %w", err)
	}

	for slot, sec := range p.secondaries {
		valid, reason := timing.Validate(track, sec.vo)
		if !valid {
			p.logger.Warn().Str("slot", slot).Str("reason", reason).Msg("VO timing invalid, playing without VO")
			p.bus.Publish(events.EventVOError, events.Payload{"slot": slot, "vo_id": sec.vo.ID, "message": reason})
			p.removeSecondaryLocked(sec)
			continue
		}
		offset := timing.StartOffset(track.Timing.Intro, sec.vo.Duration)
		p.armSecondaryLocked(sec, offset, session)
		p.logger.Info().Str("slot", slot).Float64("offset", offset).Float64("vo_duration", sec.vo.Duration).Msg("secondary armed")
	}

	p.state = models.PlaybackPlaying
	p.startSamplerLocked()
	p.mu.Unlock()

	go p.watchPrimary(primary, track, session)

	p.bus.Publish(events.EventTrackPlaying, events.Payload{
		"track_id": track.ID,
		"title":    track.Title,
		"artist":   track.Artist,
	})
	return nil
}

// resumeLocked continues a paused session. Releases p.mu.
func (p *Player) resumeLocked() error {
	track := *p.track
	if err := p.primary.Resume(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("resume primary: %w", err)
	}
	for _, sec := range p.secondaries {
		if sec.started {
			_ = sec.handle.Resume()
		}
	}
	p.state = models.PlaybackPlaying
	p.startSamplerLocked()
	p.mu.Unlock()

	p.bus.Publish(events.EventTrackPlaying, events.Payload{
		"track_id": track.ID,
		"title":    track.Title,
		"artist":   track.Artist,
	})
	return nil
}

// armSecondaryLocked arms the one-shot start timer for a secondary.
func (p *Player) armSecondaryLocked(sec *secondary, offset float64, session int) {
	delay := time.Duration(offset * float64(time.Second))
	sec.timer = time.AfterFunc(delay, func() {
		p.fireSecondary(sec, session)
	})
}

// fireSecondary starts a secondary when its timer fires. The state re-check
// guards against a pause or stop racing the timer.
func (p *Player) fireSecondary(sec *secondary, session int) {
	p.mu.Lock()
	if p.session != session || p.state != models.PlaybackPlaying {
		p.mu.Unlock()
		return
	}
	current, ok := p.secondaries[sec.slot]
	if !ok || current != sec {
		p.mu.Unlock()
		return
	}
	sec.timer = nil
	sec.started = true
	handle := sec.handle
	vo := sec.vo
	slot := sec.slot
	p.mu.Unlock()

	if err := handle.Play(); err != nil {
		p.logger.Warn().Err(err).Str("slot", slot).Msg("secondary playback failed")
		p.mu.Lock()
		p.removeSecondaryLocked(sec)
		p.mu.Unlock()
		p.bus.Publish(events.EventVOError, events.Payload{"slot": slot, "vo_id": vo.ID, "message": err.Error()})
		return
	}

	p.bus.Publish(events.EventVOPlaying, events.Payload{
		"slot":     slot,
		"vo_id":    vo.ID,
		"duration": vo.Duration,
	})

	go func() {
		<-handle.Done()
		p.mu.Lock()
		stale := p.session != session
		if !stale {
			if cur, ok := p.secondaries[slot]; ok && cur == sec {
				delete(p.secondaries, slot)
			}
		}
		p.mu.Unlock()
		if stale {
			return
		}
		if err := handle.Err(); err != nil {
			p.bus.Publish(events.EventVOError, events.Payload{"slot": slot, "vo_id": vo.ID, "message": err.Error()})
			return
		}
		p.bus.Publish(events.EventVOEnded, events.Payload{"slot": slot, "vo_id": vo.ID})
	}()
}

// watchPrimary waits for the primary track's natural end. Before emitting
// track.ended it allows a short grace period for a VO hit that is still
// finishing as the song fades.
func (p *Player) watchPrimary(handle audio.Handle, track models.Track, session int) {
	<-handle.Done()

	p.mu.Lock()
	if p.session != session || p.state != models.PlaybackPlaying {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if err := handle.Err(); err != nil {
		p.mu.Lock()
		if p.session == session {
			p.stopSamplerLocked()
			p.cancelTimersLocked()
			p.state = models.PlaybackStopped
		}
		p.mu.Unlock()
		p.bus.Publish(events.EventTrackError, events.Payload{
			"code":     "PLAY_ERROR",
			"message":  err.Error(),
			"track_id": track.ID,
		})
		return
	}

	for {
		time.Sleep(endGrace)
		p.mu.Lock()
		if p.session != session {
			p.mu.Unlock()
			return
		}
		active := false
		for _, sec := range p.secondaries {
			if sec.started && sec.handle.Playing() {
				active = true
				break
			}
		}
		if !active {
			p.stopSamplerLocked()
			p.cancelTimersLocked()
			p.releaseSecondariesLocked()
			p.state = models.PlaybackStopped
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()
	}

	p.bus.Publish(events.EventTrackEnded, events.Payload{
		"track_id": track.ID,
		"title":    track.Title,
		"artist":   track.Artist,
	})
}

// PauseAll pauses the primary and every started secondary and cancels all
// armed timers. A VO whose timer had not fired is skipped rather than played
// out of sync after resume.
func (p *Player) PauseAll() error {
	p.mu.Lock()
	if p.state != models.PlaybackPlaying {
		p.mu.Unlock()
		return nil
	}

	_ = p.primary.Pause()
	for _, sec := range p.secondaries {
		if sec.timer != nil {
			sec.timer.Stop()
			sec.timer = nil
			p.removeSecondaryLocked(sec)
			continue
		}
		if sec.started {
			_ = sec.handle.Pause()
		}
	}
	p.state = models.PlaybackPaused
	p.stopSamplerLocked()
	track := *p.track
	p.mu.Unlock()

	p.bus.Publish(events.EventTrackPaused, events.Payload{"track_id": track.ID, "title": track.Title})
	return nil
}

// StopAll cancels timers, stops and releases every handle, and resets the
// session.
func (p *Player) StopAll() error {
	p.mu.Lock()
	if p.state == models.PlaybackEmpty || p.state == models.PlaybackStopped {
		p.mu.Unlock()
		return nil
	}
	p.session++
	var track *models.Track
	if p.track != nil {
		t := *p.track
		track = &t
	}
	p.releaseAllLocked()
	p.state = models.PlaybackStopped
	p.mu.Unlock()

	if track != nil {
		p.bus.Publish(events.EventTrackStopped, events.Payload{"track_id": track.ID, "title": track.Title})
	}
	return nil
}

// Seek repositions the primary. All secondaries are unconditionally stopped
// and released: a seek invalidates the chosen VO timing, and dropping the VO
// beats playing it out of sync.
func (p *Player) Seek(position float64) error {
	p.mu.Lock()
	if p.state != models.PlaybackPlaying && p.state != models.PlaybackPaused {
		p.mu.Unlock()
		return ErrNotReady
	}
	p.cancelTimersLocked()
	p.releaseSecondariesLocked()
	primary := p.primary
	p.mu.Unlock()

	if err := primary.Seek(position); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	p.bus.Publish(events.EventPosition, events.Payload{"primary": position, "secondaries": map[string]float64{}})
	return nil
}

// SetVolume sets the process-wide output volume (0-1).
func (p *Player) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	p.mu.Lock()
	p.volume = volume
	p.muted = false
	p.mu.Unlock()
	p.bus.Publish(events.EventVolumeChange, events.Payload{"volume": volume, "muted": false})
}

// Volume returns the current volume.
func (p *Player) Volume() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume, p.muted
}

// ToggleMute flips the process-wide mute flag.
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	p.muted = !p.muted
	muted := p.muted
	volume := p.volume
	p.mu.Unlock()
	p.bus.Publish(events.EventVolumeChange, events.Payload{"volume": volume, "muted": muted})
	return muted
}

// PrimaryPosition returns the primary position in seconds.
func (p *Player) PrimaryPosition() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.primary == nil {
		return 0
	}
	return p.primary.Position()
}

// Dispose releases every resource. The player is unusable afterwards.
func (p *Player) Dispose() {
	p.mu.Lock()
	p.session++
	p.releaseAllLocked()
	p.state = models.PlaybackEmpty
	p.mu.Unlock()
}

// Internal helpers. All *Locked methods require p.mu held.

func (p *Player) startSamplerLocked() {
	if p.samplerStop != nil {
		return
	}
	stop := make(chan struct{})
	p.samplerStop = stop
	session := p.session

	go func() {
		ticker := time.NewTicker(samplerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.mu.Lock()
				if p.session != session || p.state != models.PlaybackPlaying || p.primary == nil {
					p.mu.Unlock()
					return
				}
				snapshot := events.Payload{"primary": p.primary.Position()}
				positions := make(map[string]float64)
				for slot, sec := range p.secondaries {
					if sec.started {
						positions[slot] = sec.handle.Position()
					}
				}
				snapshot["secondaries"] = positions
				p.mu.Unlock()
				p.bus.Publish(events.EventPosition, snapshot)
			}
		}
	}()
}

func (p *Player) stopSamplerLocked() {
	if p.samplerStop != nil {
		close(p.samplerStop)
		p.samplerStop = nil
	}
}

func (p *Player) cancelTimersLocked() {
	for _, sec := range p.secondaries {
		if sec.timer != nil {
			sec.timer.Stop()
			sec.timer = nil
		}
	}
}

func (p *Player) removeSecondaryLocked(sec *secondary) {
	if sec.timer != nil {
		sec.timer.Stop()
		sec.timer = nil
	}
	sec.handle.Release()
	if cur, ok := p.secondaries[sec.slot]; ok && cur == sec {
		delete(p.secondaries, sec.slot)
	}
}

func (p *Player) releaseSecondariesLocked() {
	for _, sec := range p.secondaries {
		if sec.timer != nil {
			sec.timer.Stop()
			sec.timer = nil
		}
		sec.handle.Release()
	}
	p.secondaries = make(map[string]*secondary)
}

func (p *Player) releaseAllLocked() {
	p.stopSamplerLocked()
	p.releaseSecondariesLocked()
	if p.primary != nil {
		p.primary.Release()
		p.primary = nil
	}
	p.track = nil
}
