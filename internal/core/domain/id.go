package domain

import (
	"github.com/google/uuid"
)

type UserID uuid.UUID
type CallID uuid.UUID
type MessageID uuid.UUID

func NewUserID() UserID {
	return UserID(uuid.New())
}

// NewCallID is generated locally by the caller before any network I/O so
// navigation can proceed ahead of the durable write.
func NewCallID() CallID {
	return CallID(uuid.New())
}

func NewMessageID() MessageID {
	return MessageID(uuid.New())
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(id), nil
}

func ParseCallID(s string) (CallID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CallID{}, err
	}
	return CallID(id), nil
}

func ParseMessageID(s string) (MessageID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MessageID{}, err
	}
	return MessageID(id), nil
}

func (id UserID) String() string {
	return uuid.UUID(id).String()
}

func (id CallID) String() string {
	return uuid.UUID(id).String()
}

func (id MessageID) String() string {
	return uuid.UUID(id).String()
}
