package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

// querier is the minimal pgx surface the repository needs; satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CallRepository stores call sessions in the calls table. Records are
// never deleted; they double as the call-history log. Every committed
// write emits pg_notify on a per-call channel, which Subscribe turns into
// snapshots via LISTEN.
type CallRepository struct {
	db   querier
	pool *pgxpool.Pool
}

func NewCallRepository(pool *pgxpool.Pool) *CallRepository {
	return &CallRepository{db: pool, pool: pool}
}

func (r *CallRepository) Create(ctx context.Context, sess domain.CallSession) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO calls (
            id, caller_id, caller_name, caller_image,
            receiver_id, receiver_name, receiver_image,
            type, status, created_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
    `,
		sess.ID.String(),
		sess.CallerID.String(),
		sess.CallerName,
		sess.CallerImage,
		sess.ReceiverID.String(),
		sess.ReceiverName,
		sess.ReceiverImage,
		string(sess.Type),
		string(sess.Status),
	)
	if err != nil {
		return err
	}
	r.notify(ctx, sess.ID, sess.Status)
	return nil
}

func (r *CallRepository) Get(ctx context.Context, id domain.CallID) (domain.CallSession, error) {
	var (
		sess                 domain.CallSession
		rawID, caller, recvr string
		callType, status     string
	)
	err := r.db.QueryRow(ctx, `
        SELECT id, caller_id, caller_name, caller_image,
               receiver_id, receiver_name, receiver_image,
               type, status, created_at
        FROM calls WHERE id = $1
    `, id.String()).Scan(
		&rawID, &caller, &sess.CallerName, &sess.CallerImage,
		&recvr, &sess.ReceiverName, &sess.ReceiverImage,
		&callType, &status, &sess.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CallSession{}, port.ErrNotFound
		}
		return domain.CallSession{}, err
	}

	if sess.ID, err = domain.ParseCallID(rawID); err != nil {
		return domain.CallSession{}, err
	}
	if sess.CallerID, err = domain.ParseUserID(caller); err != nil {
		return domain.CallSession{}, err
	}
	if sess.ReceiverID, err = domain.ParseUserID(recvr); err != nil {
		return domain.CallSession{}, err
	}
	sess.Type = domain.CallType(callType)
	sess.Status = domain.CallStatus(status)
	return sess, nil
}

func (r *CallRepository) UpdateStatus(ctx context.Context, id domain.CallID, status domain.CallStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE calls SET status = $2 WHERE id = $1`, id.String(), string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return port.ErrNotFound
	}
	r.notify(ctx, id, status)
	return nil
}

// Subscribe holds a dedicated connection on LISTEN for the call's channel
// and re-reads the record on every notification. The current state is
// delivered first.
func (r *CallRepository) Subscribe(ctx context.Context, id domain.CallID) (<-chan port.CallSnapshot, func(), error) {
	if r.pool == nil {
		return nil, nil, errors.New("subscriptions require a live pool")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	if _, err := conn.Exec(listenCtx, "LISTEN "+pgx.Identifier{listenChannel(id)}.Sanitize()); err != nil {
		cancel()
		conn.Release()
		return nil, nil, err
	}

	ch := make(chan port.CallSnapshot, 32)
	ch <- r.snapshot(ctx, id)

	go func() {
		defer close(ch)
		defer conn.Release()
		for {
			if _, err := conn.Conn().WaitForNotification(listenCtx); err != nil {
				return
			}
			select {
			case ch <- r.snapshot(listenCtx, id):
			default:
				log.Warn().Str("call_id", id.String()).Msg("Subscriber buffer full, dropping snapshot")
			}
		}
	}()

	return ch, cancel, nil
}

func (r *CallRepository) snapshot(ctx context.Context, id domain.CallID) port.CallSnapshot {
	sess, err := r.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, port.ErrNotFound) {
			log.Error().Err(err).Str("call_id", id.String()).Msg("Snapshot read failed")
		}
		return port.CallSnapshot{}
	}
	return port.CallSnapshot{Exists: true, Session: sess}
}

// notify is best effort: a missed notification only delays observers
// until their next snapshot, it cannot corrupt the record.
func (r *CallRepository) notify(ctx context.Context, id domain.CallID, status domain.CallStatus) {
	if _, err := r.db.Exec(ctx, `SELECT pg_notify($1, $2)`, listenChannel(id), string(status)); err != nil {
		log.Error().Err(err).Str("call_id", id.String()).Msg("pg_notify failed")
	}
}

func listenChannel(id domain.CallID) string {
	return "call_" + id.String()
}
