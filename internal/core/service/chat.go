package service

import (
	"context"

	"github.com/pealhq/peal/internal/core/domain"
	"github.com/pealhq/peal/internal/core/port"
)

type ChatService struct {
	repo    port.MessageRepository
	gateway port.RealTimeGateway
}

func NewChatService(repo port.MessageRepository, gateway port.RealTimeGateway) *ChatService {
	return &ChatService{
		repo:    repo,
		gateway: gateway,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, senderID, receiverID domain.UserID, content string) error {
	msg, err := domain.NewMessage(senderID, receiverID, content)
	if err != nil {
		return err
	}

	if err := s.repo.Save(ctx, *msg); err != nil {
		return err
	}
	return s.gateway.BroadcastMessage(ctx, *msg)
}

func (s *ChatService) History(ctx context.Context, a, b domain.UserID, limit int) ([]domain.Message, error) {
	return s.repo.History(ctx, a, b, limit)
}
