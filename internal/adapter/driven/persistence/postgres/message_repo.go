package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pealhq/peal/internal/core/domain"
)

type MessageRepository struct {
	db querier
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: pool}
}

func (r *MessageRepository) Save(ctx context.Context, msg domain.Message) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO messages (id, sender_id, receiver_id, content, created_at)
        VALUES ($1,$2,$3,$4,$5)
    `,
		msg.ID.String(),
		msg.SenderID.String(),
		msg.ReceiverID.String(),
		msg.Content,
		msg.CreatedAt,
	)
	return err
}

func (r *MessageRepository) History(ctx context.Context, a, b domain.UserID, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, sender_id, receiver_id, content, created_at
        FROM messages
        WHERE (sender_id = $1 AND receiver_id = $2)
           OR (sender_id = $2 AND receiver_id = $1)
        ORDER BY created_at DESC
        LIMIT $3
    `, a.String(), b.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var (
			msg                  domain.Message
			rawID, sender, recvr string
		)
		if err := rows.Scan(&rawID, &sender, &recvr, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		var err error
		if msg.ID, err = domain.ParseMessageID(rawID); err != nil {
			return nil, err
		}
		if msg.SenderID, err = domain.ParseUserID(sender); err != nil {
			return nil, err
		}
		if msg.ReceiverID, err = domain.ParseUserID(recvr); err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}
