//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"

	"github.com/google/uuid"

	"chatwire/domain"
	"chatwire/domain/event"
)

// EventSink is one connected session's inbox. Consume must not block beyond
// the context: delivery is best-effort and a slow consumer loses frames.
type EventSink interface {
	Consume(ctx context.Context, e event.DeliveryEvent) error
}

// MessageStore durably appends messages and serves them back enriched.
// Create must be acknowledged before any live delivery is attempted.
type MessageStore interface {
	Create(msg domain.Message) (domain.Message, error)
	FetchEnriched(id uuid.UUID) (domain.EnrichedMessage, error)
	DirectHistory(userA, userB string) ([]domain.EnrichedMessage, error)
	ChannelHistory(channelID string) ([]domain.EnrichedMessage, error)
}

// ChannelDirectory owns channel membership. ResolveMembership is read fresh
// on every send so membership changes apply to the very next delivery.
type ChannelDirectory interface {
	AppendMessage(channelID string, messageID uuid.UUID) error
	ResolveMembership(channelID string) (domain.Membership, error)
}

// UserDirectory resolves identities to profile projections.
type UserDirectory interface {
	Get(id string) (domain.Profile, error)
}

// Presence maps user identities to their single live session. Unregister
// matches by session handle, not identity, so a late disconnect cannot evict
// a newer session established by a reconnect.
type Presence interface {
	Register(userID string, session Session)
	Lookup(userID string) (Session, bool)
	Unregister(handle uuid.UUID)
}

// Session is a live connection handle: the transport-owned sink plus the
// opaque id used to match removals.
type Session struct {
	Handle uuid.UUID
	Sink   EventSink
}

// Router orchestrates persist, audience resolution and push for one send.
type Router interface {
	SendDirect(ctx context.Context, cmd domain.SendDirectCommand) error
	SendChannel(ctx context.Context, cmd domain.SendChannelCommand) error
}
