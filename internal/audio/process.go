/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// ProcessEngine plays audio by shelling out to a player binary
// (ffplay by default) per handle.
type ProcessEngine struct {
	playerBin string
	mediaRoot string
	logger    zerolog.Logger
}

// NewProcessEngine creates an engine using the given player binary. Served
// /media/ URLs are resolved against mediaRoot before playback.
func NewProcessEngine(playerBin, mediaRoot string, logger zerolog.Logger) *ProcessEngine {
	if playerBin == "" {
		playerBin = "ffplay"
	}
	return &ProcessEngine{
		playerBin: playerBin,
		mediaRoot: mediaRoot,
		logger:    logger.With().Str("component", "audio").Logger(),
	}
}

// resolve maps a served media URL to its backing file. Anything else is
// taken as a filesystem path.
func (e *ProcessEngine) resolve(url string) string {
	if e.mediaRoot != "" && strings.HasPrefix(url, "/media/") {
		return filepath.Join(e.mediaRoot, strings.TrimPrefix(url, "/media/"))
	}
	return url
}

// Load prepares a process handle. The process is not started until Play.
func (e *ProcessEngine) Load(ctx context.Context, url string, durationHint float64) (Handle, error) {
	if url == "" {
		return nil, fmt.Errorf("empty audio url")
	}
	path := e.resolve(url)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio resource %s: %w", url, err)
	}
	return &processHandle{
		engine:   e,
		url:      path,
		duration: durationHint,
		done:     make(chan struct{}),
	}, nil
}

// processHandle runs one player process and tracks position by wall clock.
type processHandle struct {
	engine   *ProcessEngine
	url      string
	duration float64

	mu       sync.Mutex
	cmd      *exec.Cmd
	started  time.Time
	elapsed  float64 // accumulated play time before the current run
	playing  bool
	stopped  bool
	err      error
	done     chan struct{}
	doneOnce sync.Once
}

func (h *processHandle) Play() error {
	return h.startAt(0)
}

// startAt launches the player process seeking to the given offset.
func (h *processHandle) startAt(offset float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return fmt.Errorf("handle released")
	}
	if h.cmd != nil {
		return fmt.Errorf("already started")
	}

	args := []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}
	if offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", offset))
	}
	args = append(args, h.url)

	cmd := exec.Command(h.engine.playerBin, args...)
	if err := cmd.Start(); err != nil {
		h.err = err
		h.signalDone()
		return fmt.Errorf("start player: %w", err)
	}

	h.cmd = cmd
	h.started = time.Now()
	h.elapsed = offset
	h.playing = true

	go func() {
		err := cmd.Wait()

		h.mu.Lock()
		if h.cmd != cmd {
			// Superseded by a Seek restart; that run owns the state now.
			h.mu.Unlock()
			return
		}
		wasStopped := h.stopped
		if h.playing {
			h.elapsed += time.Since(h.started).Seconds()
			h.playing = false
		}
		h.cmd = nil
		if err != nil && !wasStopped {
			h.err = err
		}
		h.mu.Unlock()

		h.signalDone()
		if err != nil && !wasStopped {
			h.engine.logger.Debug().Err(err).Str("url", h.url).Msg("player process exited")
		}
	}()

	return nil
}

func (h *processHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd == nil || h.cmd.Process == nil || !h.playing {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return fmt.Errorf("pause player: %w", err)
	}
	h.elapsed += time.Since(h.started).Seconds()
	h.playing = false
	return nil
}

func (h *processHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd == nil || h.cmd.Process == nil || h.playing {
		return nil
	}
	if err := h.cmd.Process.Signal(syscall.SIGCONT); err != nil {
		return fmt.Errorf("resume player: %w", err)
	}
	h.started = time.Now()
	h.playing = true
	return nil
}

func (h *processHandle) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	cmd := h.cmd
	if h.playing {
		h.elapsed += time.Since(h.started).Seconds()
		h.playing = false
	}
	h.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)

		// Escalate if the process ignores the interrupt. The wait
		// goroutine clears h.cmd once it exits, making this a no-op.
		time.AfterFunc(5*time.Second, func() {
			h.mu.Lock()
			c := h.cmd
			h.mu.Unlock()
			if c != nil && c.Process != nil {
				_ = c.Process.Kill()
			}
		})
	}

	h.signalDone()
	return nil
}

func (h *processHandle) Seek(position float64) error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return fmt.Errorf("handle released")
	}
	cmd := h.cmd
	wasPlaying := h.playing
	h.playing = false
	h.cmd = nil
	h.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}

	if !wasPlaying && cmd == nil {
		// Not started yet, just remember the offset for Play.
		h.mu.Lock()
		h.elapsed = position
		h.mu.Unlock()
		return nil
	}

	if err := h.startAt(position); err != nil {
		return err
	}
	if !wasPlaying {
		return h.Pause()
	}
	return nil
}

func (h *processHandle) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	pos := h.elapsed
	if h.playing {
		pos += time.Since(h.started).Seconds()
	}
	if h.duration > 0 && pos > h.duration {
		pos = h.duration
	}
	return pos
}

func (h *processHandle) Duration() float64 {
	return h.duration
}

func (h *processHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

func (h *processHandle) Done() <-chan struct{} { return h.done }

func (h *processHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *processHandle) Release() {
	_ = h.Stop()
}

func (h *processHandle) signalDone() {
	h.doneOnce.Do(func() { close(h.done) })
}
