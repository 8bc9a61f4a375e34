/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/peach95/internal/audio"
	"github.com/friendsincode/peach95/internal/events"
	"github.com/friendsincode/peach95/internal/models"
)

type fakeHandle struct {
	mu       sync.Mutex
	playing  bool
	failPlay bool
	pos      float64
	dur      float64
	err      error
	done     chan struct{}
	once     sync.Once
}

func newFakeHandle(dur float64) *fakeHandle {
	return &fakeHandle{dur: dur, done: make(chan struct{})}
}

func (h *fakeHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failPlay {
		return errors.New("start failed")
	}
	h.playing = true
	return nil
}

func (h *fakeHandle) Pause() error {
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Resume() error { return h.Play() }

func (h *fakeHandle) Stop() error {
	h.finish(nil)
	return nil
}

func (h *fakeHandle) Seek(position float64) error {
	h.mu.Lock()
	h.pos = position
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

func (h *fakeHandle) Duration() float64 { return h.dur }

func (h *fakeHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *fakeHandle) Release() { h.finish(nil) }

// finish simulates the end of playback.
func (h *fakeHandle) finish(err error) {
	h.mu.Lock()
	h.playing = false
	if err != nil {
		h.err = err
	}
	h.mu.Unlock()
	h.once.Do(func() { close(h.done) })
}

type fakeEngine struct {
	mu       sync.Mutex
	handles  map[string]*fakeHandle
	failPath string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{handles: make(map[string]*fakeHandle)}
}

func (e *fakeEngine) Load(ctx context.Context, url string, durationHint float64) (audio.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failPath != "" && e.failPath == url {
		return nil, errors.New("decode failed")
	}
	h := newFakeHandle(durationHint)
	e.handles[url] = h
	return h, nil
}

func (e *fakeEngine) handle(url string) *fakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handles[url]
}

func testTrack(intro float64) models.Track {
	return models.Track{
		ID:       "trk-1",
		FilePath: "/music/track.mp3",
		Title:    "Summer Nights",
		Artist:   "The Paper Planes",
		Duration: 180,
		Timing:   models.TrackTiming{Intro: intro, Outro: 12},
	}
}

func testVO(duration float64) *models.VOSegment {
	return &models.VOSegment{
		ID:       "vo-1",
		FileURL:  "/vo/segment.mp3",
		Duration: duration,
	}
}

func newTestPlayer(t *testing.T) (*Player, *fakeEngine, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	engine := newFakeEngine()
	p := New(engine, bus, zerolog.Nop())
	t.Cleanup(p.Dispose)
	return p, engine, bus
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func drainFor(sub events.Subscriber, d time.Duration) []events.Payload {
	var out []events.Payload
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case payload := <-sub:
			out = append(out, payload)
		case <-timer.C:
			return out
		}
	}
}

func TestLoadPrimaryFailureIsFatal(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	engine.failPath = "/music/track.mp3"
	sub := bus.Subscribe(events.EventTrackError)

	err := p.LoadPrimary(context.Background(), testTrack(10))
	if err == nil {
		t.Fatal("expected load error")
	}
	if p.State() != models.PlaybackEmpty {
		t.Errorf("expected empty state, got %s", p.State())
	}
	select {
	case payload := <-sub:
		if payload["code"] != "LOAD_ERROR" {
			t.Errorf("expected LOAD_ERROR, got %v", payload["code"])
		}
	case <-time.After(time.Second):
		t.Fatal("no track.error event")
	}
	if err := p.PlayWithSync(); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady after failed load, got %v", err)
	}
}

func TestSecondaryLoadFailureIsNotFatal(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	engine.failPath = "/vo/segment.mp3"
	sub := bus.Subscribe(events.EventVOError)

	if err := p.LoadWithVO(context.Background(), testTrack(10), testVO(6)); err != nil {
		t.Fatalf("load with VO: %v", err)
	}
	if p.State() != models.PlaybackReady {
		t.Fatalf("expected ready, got %s", p.State())
	}
	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("no vo.error event")
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play without VO: %v", err)
	}
	if p.State() != models.PlaybackPlaying {
		t.Errorf("expected playing, got %s", p.State())
	}
}

func TestVOFiresAtComputedOffset(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	sub := bus.Subscribe(events.EventVOPlaying)

	// intro 1.0, VO 0.4 -> offset 0.1s.
	if err := p.LoadWithVO(context.Background(), testTrack(1.0), testVO(0.4)); err != nil {
		t.Fatalf("load: %v", err)
	}
	start := time.Now()
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}

	primary := engine.handle("/music/track.mp3")
	if !primary.Playing() {
		t.Fatal("primary not playing immediately")
	}
	vo := engine.handle("/vo/segment.mp3")
	if vo.Playing() {
		t.Fatal("VO started before its offset")
	}

	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("VO never started")
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("VO fired after %v, expected ~100ms", elapsed)
	}
	if !vo.Playing() {
		t.Error("VO handle not playing after vo.playing event")
	}
}

func TestVOStartsImmediatelyWhenOffsetClampsToZero(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	sub := bus.Subscribe(events.EventVOPlaying)

	// intro 1.0, VO 0.5: the offset computes to exactly 0 and the VO is
	// still a valid fit.
	if err := p.LoadWithVO(context.Background(), testTrack(1.0), testVO(0.5)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case <-sub:
	case <-time.After(time.Second):
		t.Fatal("VO never started")
	}
	if !engine.handle("/vo/segment.mp3").Playing() {
		t.Error("VO handle not playing")
	}
}

func TestOverlongVODroppedAtPlay(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	errSub := bus.Subscribe(events.EventVOError)
	playSub := bus.Subscribe(events.EventVOPlaying)

	// VO 5s against a 1s intro can never fit.
	if err := p.LoadWithVO(context.Background(), testTrack(1.0), testVO(5)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case <-errSub:
	case <-time.After(time.Second):
		t.Fatal("no vo.error for overlong VO")
	}
	if got := drainFor(playSub, 300*time.Millisecond); len(got) != 0 {
		t.Error("overlong VO played anyway")
	}
	if !engine.handle("/music/track.mp3").Playing() {
		t.Error("primary should keep playing without the VO")
	}
}

func TestColdOpenVODroppedAtPlay(t *testing.T) {
	p, _, bus := newTestPlayer(t)
	errSub := bus.Subscribe(events.EventVOError)
	playSub := bus.Subscribe(events.EventVOPlaying)

	track := testTrack(0)
	track.Timing.ColdOpen = true
	if err := p.LoadWithVO(context.Background(), track, testVO(0.2)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case <-errSub:
	case <-time.After(time.Second):
		t.Fatal("no vo.error for cold open")
	}
	if got := drainFor(playSub, 300*time.Millisecond); len(got) != 0 {
		t.Error("VO played over a cold open")
	}
}

func TestPauseCancelsUnfiredTimer(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	playSub := bus.Subscribe(events.EventVOPlaying)

	// intro 10, VO 1 -> offset 8.5s, far beyond the test window.
	if err := p.LoadWithVO(context.Background(), testTrack(10), testVO(1)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := p.PauseAll(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if p.State() != models.PlaybackPaused {
		t.Fatalf("expected paused, got %s", p.State())
	}
	if engine.handle("/music/track.mp3").Playing() {
		t.Error("primary still playing after pause")
	}

	// Resume. The cancelled VO must stay cancelled.
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if p.State() != models.PlaybackPlaying {
		t.Fatalf("expected playing, got %s", p.State())
	}
	if got := drainFor(playSub, 300*time.Millisecond); len(got) != 0 {
		t.Error("VO fired despite pause cancelling its timer")
	}
}

func TestPauseResumesStartedVO(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	playSub := bus.Subscribe(events.EventVOPlaying)

	// Offset computes to zero so the VO starts right away.
	if err := p.LoadWithVO(context.Background(), testTrack(1.0), testVO(0.5)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case <-playSub:
	case <-time.After(time.Second):
		t.Fatal("VO never started")
	}

	if err := p.PauseAll(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	vo := engine.handle("/vo/segment.mp3")
	if vo.Playing() {
		t.Error("VO still playing after pause")
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	waitFor(t, vo.Playing, "VO did not resume with the track")
}

func TestSeekDropsSecondaries(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	playSub := bus.Subscribe(events.EventVOPlaying)

	if err := p.LoadWithVO(context.Background(), testTrack(10), testVO(1)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := p.Seek(60); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if got := engine.handle("/music/track.mp3").Position(); got != 60 {
		t.Errorf("primary position %v after seek", got)
	}
	if got := drainFor(playSub, 300*time.Millisecond); len(got) != 0 {
		t.Error("VO fired after a seek invalidated its timing")
	}
	if p.State() != models.PlaybackPlaying {
		t.Errorf("seek should not change state, got %s", p.State())
	}
}

func TestTrackEndWaitsForVOGrace(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	endSub := bus.Subscribe(events.EventTrackEnded)
	playSub := bus.Subscribe(events.EventVOPlaying)

	if err := p.LoadWithVO(context.Background(), testTrack(1.0), testVO(0.5)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	select {
	case <-playSub:
	case <-time.After(time.Second):
		t.Fatal("VO never started")
	}

	// Primary reaches its natural end while the VO is still talking.
	engine.handle("/music/track.mp3").finish(nil)

	select {
	case <-endSub:
		t.Fatal("track.ended fired while a VO was still playing")
	case <-time.After(250 * time.Millisecond):
	}

	engine.handle("/vo/segment.mp3").finish(nil)

	select {
	case <-endSub:
	case <-time.After(time.Second):
		t.Fatal("track.ended never fired after the VO finished")
	}
	waitFor(t, func() bool { return p.State() == models.PlaybackStopped }, "state never reached stopped")
}

func TestPrimaryPlaybackErrorStopsSession(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	errSub := bus.Subscribe(events.EventTrackError)
	endSub := bus.Subscribe(events.EventTrackEnded)

	if err := p.LoadPrimary(context.Background(), testTrack(10)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	engine.handle("/music/track.mp3").finish(errors.New("stream underrun"))

	select {
	case payload := <-errSub:
		if payload["code"] != "PLAY_ERROR" {
			t.Errorf("expected PLAY_ERROR, got %v", payload["code"])
		}
	case <-time.After(time.Second):
		t.Fatal("no track.error event")
	}
	if got := drainFor(endSub, 300*time.Millisecond); len(got) != 0 {
		t.Error("track.ended must not fire on a playback error")
	}
	waitFor(t, func() bool { return p.State() == models.PlaybackStopped }, "state never reached stopped")
}

func TestStopAll(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	stopSub := bus.Subscribe(events.EventTrackStopped)

	if err := p.LoadWithVO(context.Background(), testTrack(10), testVO(1)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := p.StopAll(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if p.State() != models.PlaybackStopped {
		t.Fatalf("expected stopped, got %s", p.State())
	}
	select {
	case <-stopSub:
	case <-time.After(time.Second):
		t.Fatal("no track.stopped event")
	}
	if engine.handle("/music/track.mp3").Playing() {
		t.Error("primary still playing after stop")
	}
	// Stopping again is a no-op.
	if err := p.StopAll(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestPositionSampler(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	posSub := bus.Subscribe(events.EventPosition)

	if err := p.LoadPrimary(context.Background(), testTrack(10)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.PlayWithSync(); err != nil {
		t.Fatalf("play: %v", err)
	}
	engine.handle("/music/track.mp3").Seek(42)

	deadline := time.After(time.Second)
	for {
		select {
		case payload := <-posSub:
			if payload["primary"] == 42.0 {
				return
			}
		case <-deadline:
			t.Fatal("sampler never reported the primary position")
		}
	}
}

func TestVolumeAndMute(t *testing.T) {
	p, _, bus := newTestPlayer(t)
	volSub := bus.Subscribe(events.EventVolumeChange)

	p.SetVolume(1.7)
	if vol, muted := p.Volume(); vol != 1 || muted {
		t.Errorf("expected clamped volume 1, got %v muted=%v", vol, muted)
	}
	p.SetVolume(-0.2)
	if vol, _ := p.Volume(); vol != 0 {
		t.Errorf("expected clamped volume 0, got %v", vol)
	}
	if !p.ToggleMute() {
		t.Error("first toggle should mute")
	}
	if p.ToggleMute() {
		t.Error("second toggle should unmute")
	}
	if got := drainFor(volSub, 100*time.Millisecond); len(got) != 4 {
		t.Errorf("expected 4 volume events, got %d", len(got))
	}
}

func TestPrimaryStartFailureLeavesNoOrphanVO(t *testing.T) {
	p, engine, bus := newTestPlayer(t)
	voSub := bus.Subscribe(events.EventVOPlaying)
	errSub := bus.Subscribe(events.EventTrackError)

	// intro 1.0, VO 0.5 -> offset 0: the VO timer would fire immediately
	// once armed, so arming must not happen before the primary is running.
	if err := p.LoadWithVO(context.Background(), testTrack(1.0), testVO(0.5)); err != nil {
		t.Fatalf("load: %v", err)
	}
	primary := engine.handle("/music/track.mp3")
	primary.mu.Lock()
	primary.failPlay = true
	primary.mu.Unlock()

	if err := p.PlayWithSync(); err == nil {
		t.Fatal("expected play error")
	}
	if p.State() != models.PlaybackReady {
		t.Errorf("expected ready after failed start, got %s", p.State())
	}

	select {
	case payload := <-errSub:
		if payload["code"] != "PLAY_ERROR" {
			t.Errorf("expected PLAY_ERROR, got %v", payload["code"])
		}
	case <-time.After(time.Second):
		t.Fatal("no track.error event")
	}

	if got := drainFor(voSub, 300*time.Millisecond); len(got) != 0 {
		t.Fatalf("VO started despite primary failure: %v", got)
	}
	if vo := engine.handle("/vo/segment.mp3"); vo.Playing() {
		t.Error("VO handle playing after failed start")
	}
}
