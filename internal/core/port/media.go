package port

import (
	"context"

	"github.com/pealhq/peal/internal/core/domain"
)

type EngineEventType int

const (
	EngineJoined EngineEventType = iota
	EngineRemoteJoined
	EngineRemoteLeft
)

type EngineEvent struct {
	Type      EngineEventType
	RemoteUID uint32
}

// MediaEngine is the vendor audio/video session manager, referenced only
// through its permission/join/leave/mute contract. An instance holds at
// most one live join; callers release it before any other screen can
// acquire the hardware.
type MediaEngine interface {
	RequestPermissions(ctx context.Context, t domain.CallType) (bool, error)
	Join(ctx context.Context, channel string, video bool) error
	Leave(ctx context.Context) error
	MuteLocalAudio(muted bool)
	EnableSpeaker(enabled bool)
	Events() <-chan EngineEvent
}
