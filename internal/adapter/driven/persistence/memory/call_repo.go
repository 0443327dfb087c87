package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 32

// CallRepository implements port.CallRepository in process. Snapshots are
// fanned out under the repository lock so per-record delivery order
// matches commit order; a subscriber that falls behind its buffer loses
// snapshots rather than blocking writers.
type CallRepository struct {
	mu       sync.Mutex
	sessions map[domain.CallID]domain.CallSession
	subs     map[domain.CallID]map[int]chan port.CallSnapshot
	nextSub  int
}

func NewCallRepository() *CallRepository {
	return &CallRepository{
		sessions: make(map[domain.CallID]domain.CallSession),
		subs:     make(map[domain.CallID]map[int]chan port.CallSnapshot),
	}
}

func (r *CallRepository) Create(ctx context.Context, sess domain.CallSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sess.ID]; ok {
		return fmt.Errorf("call session %s already exists", sess.ID)
	}
	sess.CreatedAt = time.Now().UTC()
	r.sessions[sess.ID] = sess
	r.notifyLocked(sess.ID)
	return nil
}

func (r *CallRepository) Get(ctx context.Context, id domain.CallID) (domain.CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return domain.CallSession{}, port.ErrNotFound
	}
	return sess, nil
}

// UpdateStatus is last-write-wins: concurrent writers (caller ending
// while callee accepts) are resolved by whichever write lands last.
func (r *CallRepository) UpdateStatus(ctx context.Context, id domain.CallID, status domain.CallStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return port.ErrNotFound
	}
	sess.Status = status
	r.sessions[id] = sess
	r.notifyLocked(id)
	return nil
}

func (r *CallRepository) Subscribe(ctx context.Context, id domain.CallID) (<-chan port.CallSnapshot, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan port.CallSnapshot, subscriberBuffer)
	key := r.nextSub
	r.nextSub++

	if r.subs[id] == nil {
		r.subs[id] = make(map[int]chan port.CallSnapshot)
	}
	r.subs[id][key] = ch

	// Current state first, even when the record does not exist yet.
	ch <- r.snapshotLocked(id)

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id][key]; ok {
			delete(r.subs[id], key)
			close(sub)
		}
	}
	return ch, cancel, nil
}

func (r *CallRepository) snapshotLocked(id domain.CallID) port.CallSnapshot {
	sess, ok := r.sessions[id]
	return port.CallSnapshot{Exists: ok, Session: sess}
}

func (r *CallRepository) notifyLocked(id domain.CallID) {
	snap := r.snapshotLocked(id)
	for _, sub := range r.subs[id] {
		select {
		case sub <- snap:
		default:
			log.Warn().Str("call_id", id.String()).Msg("Subscriber buffer full, dropping snapshot")
		}
	}
}
