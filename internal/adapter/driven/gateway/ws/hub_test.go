package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

type fakeClient struct {
	id string

	mu      sync.Mutex
	texts   []domain.Message
	notices []domain.CallNotification
	closed  bool
}

func (c *fakeClient) ID() string { return c.id }

func (c *fakeClient) SendText(msg domain.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, msg)
	return nil
}

func (c *fakeClient) SendCallNotice(n domain.CallNotification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
	return nil
}

func (c *fakeClient) SendSnapshot(port.CallSnapshot) error { return nil }

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) textCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.texts)
}

func (c *fakeClient) noticeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.notices)
}

func waitFor(t *testing.T, msg string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDeliverRoutesToPartiesOnly(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	sender := &fakeClient{id: domain.NewUserID().String()}
	receiver := &fakeClient{id: domain.NewUserID().String()}
	bystander := &fakeClient{id: domain.NewUserID().String()}
	hub.Register(sender)
	hub.Register(receiver)
	hub.Register(bystander)

	senderID, _ := domain.ParseUserID(sender.id)
	receiverID, _ := domain.ParseUserID(receiver.id)
	msg, err := domain.NewMessage(senderID, receiverID, "hey")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}

	// The broadcast channel is unbuffered and drop-on-busy, so resend
	// until the hub loop picks one up.
	waitFor(t, "message not delivered to both parties", func() bool {
		_ = hub.BroadcastMessage(context.Background(), *msg)
		return sender.textCount() >= 1 && receiver.textCount() >= 1
	})
	if bystander.textCount() != 0 {
		t.Error("message leaked to a third party")
	}
}

func TestPushCallReachesConnectedReceiver(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	receiver := &fakeClient{id: domain.NewUserID().String()}
	hub.Register(receiver)
	waitFor(t, "client not registered", func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	})

	receiverID, _ := domain.ParseUserID(receiver.id)
	n := domain.NewCallNotification(ringingSession(t, receiverID, domain.CallVideo))
	if err := hub.PushCall(context.Background(), receiverID, n); err != nil {
		t.Fatalf("PushCall: %v", err)
	}
	if receiver.noticeCount() != 1 {
		t.Fatalf("notices = %d, want 1", receiver.noticeCount())
	}
}

func TestPushCallOfflineReceiverIsNotAnError(t *testing.T) {
	hub := NewHub()

	n := domain.NewCallNotification(ringingSession(t, domain.NewUserID(), domain.CallVoice))
	if err := hub.PushCall(context.Background(), domain.NewUserID(), n); err != nil {
		t.Fatalf("PushCall to offline receiver: %v", err)
	}
}

func ringingSession(t *testing.T, receiverID domain.UserID, typ domain.CallType) *domain.CallSession {
	t.Helper()
	caller := domain.Participant{ID: domain.NewUserID(), Profile: domain.Profile{Name: "Alice"}}
	receiver := domain.Participant{ID: receiverID, Profile: domain.Profile{Name: "Bob"}}
	sess, err := domain.NewCallSession(caller, receiver, typ)
	if err != nil {
		t.Fatalf("NewCallSession: %v", err)
	}
	return sess
}

func TestStopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &fakeClient{id: domain.NewUserID().String()}
	hub.Register(client)
	hub.Stop()

	waitFor(t, "client not closed on stop", func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.closed
	})
}
