package loopback

import (
	"context"
	"errors"
	"sync"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

// ErrAlreadyJoined enforces the one-live-join contract: camera and
// microphone must be released before another screen can acquire them.
var ErrAlreadyJoined = errors.New("engine already joined a channel")

// Engine is an in-process MediaEngine for tests and dsn-less runs. It
// models the vendor contract only: permission gating, at most one live
// join, and remote-peer events injected by the harness. No media moves.
type Engine struct {
	mu      sync.Mutex
	joined  bool
	channel string
	muted   bool
	speaker bool
	deny    bool
	joins   int
	leaves  int
	events  chan port.EngineEvent
}

func NewEngine() *Engine {
	return &Engine{
		events: make(chan port.EngineEvent, 8),
	}
}

// DenyPermissions makes subsequent permission requests fail, simulating
// a user declining microphone or camera access.
func (e *Engine) DenyPermissions(deny bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deny = deny
}

func (e *Engine) RequestPermissions(ctx context.Context, t domain.CallType) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.deny, nil
}

func (e *Engine) Join(ctx context.Context, channel string, video bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.joined {
		return ErrAlreadyJoined
	}
	e.joined = true
	e.channel = channel
	e.joins++
	e.emit(port.EngineEvent{Type: port.EngineJoined})
	return nil
}

func (e *Engine) Leave(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.joined {
		return nil
	}
	e.joined = false
	e.leaves++
	return nil
}

func (e *Engine) MuteLocalAudio(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = muted
}

func (e *Engine) EnableSpeaker(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speaker = enabled
}

func (e *Engine) Events() <-chan port.EngineEvent {
	return e.events
}

// EmitRemoteJoined simulates the peer arriving on the channel.
func (e *Engine) EmitRemoteJoined(uid uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emit(port.EngineEvent{Type: port.EngineRemoteJoined, RemoteUID: uid})
}

// EmitRemoteLeft simulates the peer dropping off the channel.
func (e *Engine) EmitRemoteLeft(uid uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emit(port.EngineEvent{Type: port.EngineRemoteLeft, RemoteUID: uid})
}

func (e *Engine) emit(ev port.EngineEvent) {
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Engine) Joined() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.joined
}

func (e *Engine) Channel() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channel
}

func (e *Engine) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Engine) JoinCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.joins
}

func (e *Engine) LeaveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaves
}
