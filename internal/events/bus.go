/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	// Primary track lifecycle.
	EventTrackLoaded  EventType = "track.loaded"
	EventTrackPlaying EventType = "track.playing"
	EventTrackPaused  EventType = "track.paused"
	EventTrackStopped EventType = "track.stopped"
	EventTrackEnded   EventType = "track.ended"
	EventTrackError   EventType = "track.error"

	// Secondary (voice-over) lifecycle.
	EventVOLoaded  EventType = "vo.loaded"
	EventVOPlaying EventType = "vo.playing"
	EventVOEnded   EventType = "vo.ended"
	EventVOError   EventType = "vo.error"

	// Position sampling and transport.
	EventPosition     EventType = "player.position"
	EventVolumeChange EventType = "player.volume"

	// Queue state.
	EventQueueUpdated EventType = "queue.updated"
	EventVOAttached   EventType = "queue.vo_attached"
)

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. Slow subscribers lose events rather
// than block the publisher.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[eventType]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber and closes its channel. Calling it for
// an already-removed subscriber is a no-op.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			b.subs[eventType] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}
