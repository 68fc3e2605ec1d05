package services

import (
	"context"

	"github.com/google/uuid"

	"chatwire/contract"
	"chatwire/domain"
)

type IChatService interface {
	SendDirect(ctx context.Context, cmd domain.SendDirectCommand) error
	SendChannel(ctx context.Context, cmd domain.SendChannelCommand) error
	Connect(userID string, session contract.Session)
	Disconnect(handle uuid.UUID)
	DirectHistory(userA, userB string) ([]domain.EnrichedMessage, error)
	ChannelHistory(channelID string) ([]domain.EnrichedMessage, error)
}

// ChatService is the facade the transports talk to: sends go through the
// router, lifecycle events through the presence directory, history reads
// straight to the store.
type ChatService struct {
	router   contract.Router
	presence contract.Presence
	store    contract.MessageStore
}

func NewChatService(router contract.Router, presence contract.Presence,
	store contract.MessageStore) *ChatService {
	return &ChatService{router: router, presence: presence, store: store}
}

func (s *ChatService) SendDirect(ctx context.Context, cmd domain.SendDirectCommand) error {
	return s.router.SendDirect(ctx, cmd)
}

func (s *ChatService) SendChannel(ctx context.Context, cmd domain.SendChannelCommand) error {
	return s.router.SendChannel(ctx, cmd)
}

func (s *ChatService) Connect(userID string, session contract.Session) {
	s.presence.Register(userID, session)
}

func (s *ChatService) Disconnect(handle uuid.UUID) {
	s.presence.Unregister(handle)
}

func (s *ChatService) DirectHistory(userA, userB string) ([]domain.EnrichedMessage, error) {
	return s.store.DirectHistory(userA, userB)
}

func (s *ChatService) ChannelHistory(channelID string) ([]domain.EnrichedMessage, error) {
	return s.store.ChannelHistory(channelID)
}
