package domain

import "fmt"

// CallNotification is the wake-up payload pushed to the callee's device.
// The data fields are exactly what the incoming-call route needs to
// subscribe; entry through a notification behaves the same as organic
// navigation.
type CallNotification struct {
	Title    string
	Body     string
	CallID   CallID
	CallerID UserID
	Type     CallType
}

func NewCallNotification(sess *CallSession) CallNotification {
	kind := "Voice"
	if sess.Type == CallVideo {
		kind = "Video"
	}
	name := sess.CallerName
	if name == "" {
		name = "Someone"
	}
	return CallNotification{
		Title:    fmt.Sprintf("Incoming %s Call", kind),
		Body:     fmt.Sprintf("%s is calling you", name),
		CallID:   sess.ID,
		CallerID: sess.CallerID,
		Type:     sess.Type,
	}
}
