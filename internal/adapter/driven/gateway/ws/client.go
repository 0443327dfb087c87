package ws

import (
	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

type Client interface {
	ID() string
	SendText(msg domain.Message) error
	SendCallNotice(n domain.CallNotification) error
	SendSnapshot(snap port.CallSnapshot) error
	Close() error
}
