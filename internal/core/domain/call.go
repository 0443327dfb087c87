package domain

import (
	"errors"
	"fmt"
	"time"
)

type CallType string

const (
	CallVoice CallType = "voice"
	CallVideo CallType = "video"
)

func (t CallType) Valid() bool {
	return t == CallVoice || t == CallVideo
}

type CallStatus string

const (
	StatusRinging   CallStatus = "ringing"
	StatusAccepted  CallStatus = "accepted"
	StatusRejected  CallStatus = "rejected"
	StatusEnded     CallStatus = "ended"
	StatusMissed    CallStatus = "missed"
	StatusCancelled CallStatus = "cancelled"
)

// Terminal reports whether no further transition is expected from s.
// Accepted is not terminal: an accepted call still moves to ended.
func (s CallStatus) Terminal() bool {
	switch s {
	case StatusRejected, StatusEnded, StatusMissed, StatusCancelled:
		return true
	}
	return false
}

// transitions is the forward edge set of the status graph. Status never
// moves backward; terminal statuses have no outgoing edges.
var transitions = map[CallStatus]map[CallStatus]bool{
	StatusRinging: {
		StatusAccepted:  true,
		StatusRejected:  true,
		StatusEnded:     true,
		StatusMissed:    true,
		StatusCancelled: true,
	},
	StatusAccepted: {
		StatusEnded: true,
	},
}

var ErrInvalidTransition = errors.New("invalid status transition")

func CanTransition(from, to CallStatus) bool {
	return transitions[from][to]
}

func ValidateTransition(from, to CallStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Profile is the denormalized display identity carried on the session
// record so either side can render the other party without extra reads.
type Profile struct {
	Name  string
	Image string
}

type Participant struct {
	ID UserID
	Profile
}

type Role int

const (
	RoleCaller Role = iota
	RoleCallee
)

// CallSession is the shared record coordinating one call between two
// users. One record exists per call; it is never deleted and doubles as
// the durable call-history entry.
type CallSession struct {
	ID            CallID
	CallerID      UserID
	CallerName    string
	CallerImage   string
	ReceiverID    UserID
	ReceiverName  string
	ReceiverImage string
	Type          CallType
	Status        CallStatus
	CreatedAt     time.Time
}

// NewCallSession builds a ringing session with a locally generated id.
// CreatedAt is left zero: the store assigns it on create.
func NewCallSession(caller, receiver Participant, t CallType) (*CallSession, error) {
	if caller.ID == receiver.ID {
		return nil, errors.New("caller and receiver cannot be the same user")
	}
	if !t.Valid() {
		return nil, fmt.Errorf("unknown call type %q", t)
	}
	return &CallSession{
		ID:            NewCallID(),
		CallerID:      caller.ID,
		CallerName:    caller.Name,
		CallerImage:   caller.Image,
		ReceiverID:    receiver.ID,
		ReceiverName:  receiver.Name,
		ReceiverImage: receiver.Image,
		Type:          t,
		Status:        StatusRinging,
	}, nil
}

// Role derives the local participant's role by comparing against
// CallerID. The record carries no explicit peer-id field.
func (s *CallSession) Role(local UserID) Role {
	if local == s.CallerID {
		return RoleCaller
	}
	return RoleCallee
}

// Peer returns the other party's display profile, selected by the same
// identity comparison as Role.
func (s *CallSession) Peer(local UserID) Profile {
	if s.Role(local) == RoleCaller {
		return Profile{Name: s.ReceiverName, Image: s.ReceiverImage}
	}
	return Profile{Name: s.CallerName, Image: s.CallerImage}
}
