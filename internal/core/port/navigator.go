package port

import "github.com/pealhq/peal/internal/core/domain"

type Screen int

const (
	ScreenIncomingCall Screen = iota
	ScreenVoiceCall
	ScreenVideoCall
)

// screenForType resolves the active-call screen for a call type through a
// lookup table rather than string dispatch.
var screenForType = map[domain.CallType]Screen{
	domain.CallVoice: ScreenVoiceCall,
	domain.CallVideo: ScreenVideoCall,
}

// ScreenFor defaults to the video screen for unknown types, matching how
// sessions with an absent type field are rendered.
func ScreenFor(t domain.CallType) Screen {
	if s, ok := screenForType[t]; ok {
		return s
	}
	return ScreenVideoCall
}

type Route struct {
	Screen   Screen
	CallID   domain.CallID
	IsCaller bool
	Type     domain.CallType
	Peer     domain.Profile
}

// Navigator is the screen-transition sink. Callers guarantee at most one
// Replace or Back per screen lifetime.
type Navigator interface {
	Replace(r Route)
	Back()
}
