/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package audio abstracts playable audio resources behind an engine so the
// dual-track player can be driven by a real playout process in production
// and by fakes in tests.
package audio

import "context"

// Engine loads audio resources into playable handles.
type Engine interface {
	// Load prepares the resource at url for playback. durationHint carries
	// the known duration in seconds (0 if unknown).
	Load(ctx context.Context, url string, durationHint float64) (Handle, error)
}

// Handle is a single loaded audio resource. Handles are not safe for
// concurrent use; the player serializes access.
type Handle interface {
	Play() error
	Pause() error
	Resume() error
	Stop() error
	Seek(position float64) error

	// Position is the current playback position in seconds.
	Position() float64
	// Duration is the resource length in seconds (0 if unknown).
	Duration() float64
	// Playing reports whether the handle is actively producing audio.
	Playing() bool

	// Done is closed when playback finishes, naturally or by Stop.
	Done() <-chan struct{}
	// Err returns the playback error, if any, once Done is closed.
	Err() error

	// Release frees the underlying resource. Safe to call more than once.
	Release()
}
