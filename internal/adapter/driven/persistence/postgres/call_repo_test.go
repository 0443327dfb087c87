package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

func testSession() domain.CallSession {
	caller := domain.Participant{ID: domain.NewUserID(), Profile: domain.Profile{Name: "Alice", Image: "a.jpg"}}
	receiver := domain.Participant{ID: domain.NewUserID(), Profile: domain.Profile{Name: "Bob", Image: "b.jpg"}}
	sess, _ := domain.NewCallSession(caller, receiver, domain.CallVideo)
	return *sess
}

func TestCreateInsertsAndNotifies(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	sess := testSession()
	mock.ExpectExec(`INSERT INTO calls`).
		WithArgs(
			sess.ID.String(),
			sess.CallerID.String(),
			"Alice",
			"a.jpg",
			sess.ReceiverID.String(),
			"Bob",
			"b.jpg",
			"video",
			"ringing",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`SELECT pg_notify`).
		WithArgs("call_"+sess.ID.String(), "ringing").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	repo := &CallRepository{db: mock}
	if err := repo.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusNotifiesOnSuccess(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := domain.NewCallID()
	mock.ExpectExec(`UPDATE calls SET status`).
		WithArgs(id.String(), "accepted").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`SELECT pg_notify`).
		WithArgs("call_"+id.String(), "accepted").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	repo := &CallRepository{db: mock}
	if err := repo.UpdateStatus(context.Background(), id, domain.StatusAccepted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusMissingRecord(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := domain.NewCallID()
	mock.ExpectExec(`UPDATE calls SET status`).
		WithArgs(id.String(), "ended").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := &CallRepository{db: mock}
	err = repo.UpdateStatus(context.Background(), id, domain.StatusEnded)
	if !errors.Is(err, port.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetScansSession(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	sess := testSession()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "caller_id", "caller_name", "caller_image",
		"receiver_id", "receiver_name", "receiver_image",
		"type", "status", "created_at",
	}).AddRow(
		sess.ID.String(), sess.CallerID.String(), "Alice", "a.jpg",
		sess.ReceiverID.String(), "Bob", "b.jpg",
		"video", "accepted", created,
	)
	mock.ExpectQuery(`SELECT id, caller_id`).
		WithArgs(sess.ID.String()).
		WillReturnRows(rows)

	repo := &CallRepository{db: mock}
	got, err := repo.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != sess.ID || got.CallerID != sess.CallerID || got.ReceiverID != sess.ReceiverID {
		t.Errorf("ids did not round-trip: %+v", got)
	}
	if got.Type != domain.CallVideo || got.Status != domain.StatusAccepted {
		t.Errorf("type/status = %s/%s", got.Type, got.Status)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}
}

func TestGetMissingRecord(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	id := domain.NewCallID()
	mock.ExpectQuery(`SELECT id, caller_id`).
		WithArgs(id.String()).
		WillReturnError(pgx.ErrNoRows)

	repo := &CallRepository{db: mock}
	if _, err := repo.Get(context.Background(), id); !errors.Is(err, port.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMessageSaveAndHistory(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	msg, _ := domain.NewMessage(domain.NewUserID(), domain.NewUserID(), "hello")
	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(msg.ID.String(), msg.SenderID.String(), msg.ReceiverID.String(), "hello", msg.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := &MessageRepository{db: mock}
	if err := repo.Save(context.Background(), *msg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rows := pgxmock.NewRows([]string{"id", "sender_id", "receiver_id", "content", "created_at"}).
		AddRow(msg.ID.String(), msg.SenderID.String(), msg.ReceiverID.String(), "hello", msg.CreatedAt)
	mock.ExpectQuery(`SELECT id, sender_id`).
		WithArgs(msg.SenderID.String(), msg.ReceiverID.String(), 50).
		WillReturnRows(rows)

	got, err := repo.History(context.Background(), msg.SenderID, msg.ReceiverID, 50)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || got[0].Content != "hello" {
		t.Fatalf("history = %+v, want the saved message", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
