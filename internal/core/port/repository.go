package port

import (
	"context"
	"errors"

	"github.com/pealhq/peal/internal/core/domain"
)

// ErrNotFound is returned when a call session record does not exist.
var ErrNotFound = errors.New("call session not found")

// CallSnapshot is one observed state of a call session record. Exists is
// false for missing or deleted records; Session is zero in that case.
type CallSnapshot struct {
	Exists  bool
	Session domain.CallSession
}

// CallRepository is the shared-record store used as the only transport
// for call signaling. Subscriptions deliver snapshots in the order the
// store committed them for that record; there is no cross-record or
// cross-client ordering guarantee. Status updates are last-write-wins.
type CallRepository interface {
	Create(ctx context.Context, sess domain.CallSession) error
	Get(ctx context.Context, id domain.CallID) (domain.CallSession, error)
	UpdateStatus(ctx context.Context, id domain.CallID, status domain.CallStatus) error
	// Subscribe registers for snapshots of one record. The current state
	// is delivered first, even when the record does not exist yet. The
	// returned func cancels the subscription and closes the channel.
	Subscribe(ctx context.Context, id domain.CallID) (<-chan CallSnapshot, func(), error)
}

type MessageRepository interface {
	Save(ctx context.Context, msg domain.Message) error
	History(ctx context.Context, a, b domain.UserID, limit int) ([]domain.Message, error)
}
