package domain

import (
	"errors"
	"testing"
)

func TestRoleBothBranches(t *testing.T) {
	caller := Participant{ID: NewUserID(), Profile: Profile{Name: "Alice", Image: "a.jpg"}}
	receiver := Participant{ID: NewUserID(), Profile: Profile{Name: "Bob", Image: "b.jpg"}}
	sess, err := NewCallSession(caller, receiver, CallVoice)
	if err != nil {
		t.Fatalf("NewCallSession: %v", err)
	}

	if got := sess.Role(caller.ID); got != RoleCaller {
		t.Errorf("Role(callerID) = %v, want RoleCaller", got)
	}
	if got := sess.Role(receiver.ID); got != RoleCallee {
		t.Errorf("Role(receiverID) = %v, want RoleCallee", got)
	}
	// Unknown ids fall through to callee, same as the identity check.
	if got := sess.Role(NewUserID()); got != RoleCallee {
		t.Errorf("Role(stranger) = %v, want RoleCallee", got)
	}
}

func TestPeerSelectsOtherParty(t *testing.T) {
	caller := Participant{ID: NewUserID(), Profile: Profile{Name: "Alice", Image: "a.jpg"}}
	receiver := Participant{ID: NewUserID(), Profile: Profile{Name: "Bob", Image: "b.jpg"}}
	sess, err := NewCallSession(caller, receiver, CallVideo)
	if err != nil {
		t.Fatalf("NewCallSession: %v", err)
	}

	if got := sess.Peer(caller.ID); got.Name != "Bob" || got.Image != "b.jpg" {
		t.Errorf("caller's peer = %+v, want receiver profile", got)
	}
	if got := sess.Peer(receiver.ID); got.Name != "Alice" || got.Image != "a.jpg" {
		t.Errorf("callee's peer = %+v, want caller profile", got)
	}
}

func TestNewCallSessionValidation(t *testing.T) {
	p := Participant{ID: NewUserID(), Profile: Profile{Name: "Alice"}}
	other := Participant{ID: NewUserID(), Profile: Profile{Name: "Bob"}}

	if _, err := NewCallSession(p, p, CallVoice); err == nil {
		t.Error("same user on both roles accepted")
	}
	if _, err := NewCallSession(p, other, CallType("hologram")); err == nil {
		t.Error("unknown call type accepted")
	}

	sess, err := NewCallSession(p, other, CallVoice)
	if err != nil {
		t.Fatalf("NewCallSession: %v", err)
	}
	if sess.Status != StatusRinging {
		t.Errorf("initial status = %s, want ringing", sess.Status)
	}
	if sess.ID == (CallID{}) {
		t.Error("session created without an id")
	}
	if !sess.CreatedAt.IsZero() {
		t.Error("CreatedAt set locally; the store assigns it")
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []CallStatus{StatusRejected, StatusEnded, StatusMissed, StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s not terminal", s)
		}
	}
	for _, s := range []CallStatus{StatusRinging, StatusAccepted} {
		if s.Terminal() {
			t.Errorf("%s reported terminal", s)
		}
	}
}

func TestTransitionGraph(t *testing.T) {
	tests := []struct {
		from, to CallStatus
		ok       bool
	}{
		{StatusRinging, StatusAccepted, true},
		{StatusRinging, StatusRejected, true},
		{StatusRinging, StatusMissed, true},
		{StatusRinging, StatusCancelled, true},
		{StatusRinging, StatusEnded, true},
		{StatusAccepted, StatusEnded, true},
		{StatusAccepted, StatusRinging, false},
		{StatusAccepted, StatusRejected, false},
		{StatusEnded, StatusAccepted, false},
		{StatusEnded, StatusRinging, false},
		{StatusRejected, StatusAccepted, false},
		{StatusMissed, StatusRinging, false},
		{StatusCancelled, StatusEnded, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}

	if err := ValidateTransition(StatusEnded, StatusAccepted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ValidateTransition error = %v, want ErrInvalidTransition", err)
	}
}

func TestNewMessageRejectsEmptyContent(t *testing.T) {
	if _, err := NewMessage(NewUserID(), NewUserID(), ""); err == nil {
		t.Error("empty message accepted")
	}

	msg, err := NewMessage(NewUserID(), NewUserID(), "hey")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.CreatedAt.IsZero() {
		t.Error("message without CreatedAt")
	}
}
