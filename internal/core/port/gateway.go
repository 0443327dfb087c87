package port

import (
	"context"

	"github.com/pealhq/peal/internal/core/domain"
)

type RealTimeGateway interface {
	BroadcastMessage(ctx context.Context, msg domain.Message) error
}

// Notifier wakes the callee's device so it can open the incoming-call
// route. Delivery is best effort; an offline device is not an error.
type Notifier interface {
	PushCall(ctx context.Context, to domain.UserID, n domain.CallNotification) error
}
