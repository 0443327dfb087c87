package service

import (
	"context"
	"errors"
	"time"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
	"github.com/rs/zerolog/log"
)

const backgroundWriteTimeout = 10 * time.Second

type CallService struct {
	store       port.CallRepository
	notifier    port.Notifier
	ringTimeout time.Duration
}

// NewCallService wires the caller-side write paths. ringTimeout marks a
// still-ringing session missed after that duration; zero disables it.
func NewCallService(store port.CallRepository, notifier port.Notifier, ringTimeout time.Duration) *CallService {
	return &CallService{
		store:       store,
		notifier:    notifier,
		ringTimeout: ringTimeout,
	}
}

// StartedCall is everything the caller's screen needs before the durable
// write completes.
type StartedCall struct {
	Session domain.CallSession
	Route   port.Route
	// CreateErr delivers at most one value, the outcome of the background
	// create, then closes. Feed it to the caller's Coordinator so a
	// failed create after optimistic navigation resolves to a back
	// navigation instead of a silently dead screen.
	CreateErr <-chan error
}

// Start builds a ringing session with a locally generated id and returns
// immediately so the caller can navigate before any network I/O runs.
// The durable write and the callee wake-up happen in the background.
func (s *CallService) Start(ctx context.Context, caller, receiver domain.Participant, t domain.CallType) (*StartedCall, error) {
	sess, err := domain.NewCallSession(caller, receiver, t)
	if err != nil {
		return nil, err
	}

	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		// Detached from the request context: the caller has already
		// navigated, so the write outlives the originating request.
		ctx, cancel := context.WithTimeout(context.Background(), backgroundWriteTimeout)
		defer cancel()

		if err := s.store.Create(ctx, *sess); err != nil {
			log.Error().Err(err).Str("call_id", sess.ID.String()).Msg("Failed to create call session")
			errc <- err
			return
		}
		if err := s.notifier.PushCall(ctx, receiver.ID, domain.NewCallNotification(sess)); err != nil {
			log.Error().Err(err).Str("call_id", sess.ID.String()).Msg("Failed to push call notification")
		}
		s.scheduleRingTimeout(sess.ID)
	}()

	return &StartedCall{
		Session: *sess,
		Route: port.Route{
			Screen:   port.ScreenFor(t),
			CallID:   sess.ID,
			IsCaller: true,
			Type:     t,
			Peer:     receiver.Profile,
		},
		CreateErr: errc,
	}, nil
}

// scheduleRingTimeout marks the session missed if nobody picked up. The
// check re-reads the record first: any status other than ringing means
// the call was answered or otherwise resolved in the meantime.
func (s *CallService) scheduleRingTimeout(id domain.CallID) {
	if s.ringTimeout <= 0 {
		return
	}
	time.AfterFunc(s.ringTimeout, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundWriteTimeout)
		defer cancel()

		sess, err := s.store.Get(ctx, id)
		if err != nil {
			return
		}
		if sess.Status != domain.StatusRinging {
			return
		}
		if err := s.store.UpdateStatus(ctx, id, domain.StatusMissed); err != nil {
			log.Error().Err(err).Str("call_id", id.String()).Msg("Failed to mark call missed")
		}
	})
}

func (s *CallService) Accept(ctx context.Context, id domain.CallID) error {
	return s.transition(ctx, id, domain.StatusAccepted)
}

func (s *CallService) Reject(ctx context.Context, id domain.CallID) error {
	return s.transition(ctx, id, domain.StatusRejected)
}

func (s *CallService) Cancel(ctx context.Context, id domain.CallID) error {
	return s.transition(ctx, id, domain.StatusCancelled)
}

// End is idempotent: ending an already-terminal session is a no-op, and
// a missing record is not an error.
func (s *CallService) End(ctx context.Context, id domain.CallID) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil
		}
		return err
	}
	if sess.Status.Terminal() {
		return nil
	}
	return s.store.UpdateStatus(ctx, id, domain.StatusEnded)
}

func (s *CallService) Get(ctx context.Context, id domain.CallID) (domain.CallSession, error) {
	return s.store.Get(ctx, id)
}

// transition guards against writes no screen would legitimately issue
// (backward moves). Races between two valid writers still resolve by
// last-write-wins at the store; that is expected, not exceptional.
func (s *CallService) transition(ctx context.Context, id domain.CallID, to domain.CallStatus) error {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.ValidateTransition(sess.Status, to); err != nil {
		return err
	}
	return s.store.UpdateStatus(ctx, id, to)
}
