package domain

import (
	"errors"
	"time"
)

type Message struct {
	ID         MessageID
	SenderID   UserID
	ReceiverID UserID
	Content    string
	CreatedAt  time.Time
}

func NewMessage(senderID, receiverID UserID, content string) (*Message, error) {
	if content == "" {
		return nil, errors.New("message content cannot be empty")
	}
	return &Message{
		ID:         NewMessageID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
