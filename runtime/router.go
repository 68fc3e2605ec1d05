package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/domain/event"
)

// Router runs the persist → resolve → push pipeline for one send request.
// Persistence is the authority: nothing is pushed before the durable write is
// acknowledged, and a failed push is never retried because the record is
// already stored and the client reconciles through history on reconnect.
type Router struct {
	log         *slog.Logger
	store       contract.MessageStore
	channels    contract.ChannelDirectory
	presence    contract.Presence
	sinkTimeout time.Duration
}

func NewRouter(log *slog.Logger, store contract.MessageStore,
	channels contract.ChannelDirectory, presence contract.Presence,
	sinkTimeout time.Duration) *Router {
	return &Router{
		log:         log,
		store:       store,
		channels:    channels,
		presence:    presence,
		sinkTimeout: sinkTimeout,
	}
}

// SendDirect persists a direct message, enriches it with both profile
// projections, and pushes it to whichever of {sender, recipient} are
// connected. The sender's own session receives the push too, so another open
// session of the same user stays in sync.
func (r *Router) SendDirect(ctx context.Context, cmd domain.SendDirectCommand) error {
	stored, err := r.store.Create(domain.Message{
		SenderID:  cmd.SenderID,
		Recipient: cmd.Recipient,
		Kind:      cmd.Kind,
		Contents:  cmd.Contents,
		FileURL:   cmd.FileURL,
	})
	if err != nil {
		return fmt.Errorf("persist direct message: %w", err)
	}

	enriched, err := r.store.FetchEnriched(stored.ID)
	if err != nil {
		return fmt.Errorf("enrich message %s: %w", stored.ID, err)
	}

	evt := event.MessageDelivered{Message: enriched, CorrelationToken: cmd.CorrelationToken}
	r.push(ctx, cmd.Recipient, evt)
	r.push(ctx, cmd.SenderID, evt)
	return nil
}

// SendChannel persists a channel message, appends it to the channel's
// message list, resolves the current membership, and pushes to every
// connected member and to the admin. The admin push is separate and not
// deduplicated: an admin who is also a listed member receives two events.
func (r *Router) SendChannel(ctx context.Context, cmd domain.SendChannelCommand) error {
	stored, err := r.store.Create(domain.Message{
		SenderID:  cmd.SenderID,
		ChannelID: cmd.ChannelID,
		Kind:      cmd.Kind,
		Contents:  cmd.Contents,
		FileURL:   cmd.FileURL,
	})
	if err != nil {
		return fmt.Errorf("persist channel message: %w", err)
	}

	// The message is durable from here on. A missing channel leaves it
	// stored but undelivered; there is no compensating delete.
	if err := r.channels.AppendMessage(cmd.ChannelID, stored.ID); err != nil {
		return fmt.Errorf("append message %s to channel %s: %w", stored.ID, cmd.ChannelID, err)
	}

	membership, err := r.channels.ResolveMembership(cmd.ChannelID)
	if err != nil {
		return fmt.Errorf("resolve channel %s: %w", cmd.ChannelID, err)
	}

	enriched, err := r.store.FetchEnriched(stored.ID)
	if err != nil {
		return fmt.Errorf("enrich message %s: %w", stored.ID, err)
	}

	evt := event.ChannelMessageDelivered{
		Message:          enriched,
		ChannelID:        cmd.ChannelID,
		CorrelationToken: cmd.CorrelationToken,
	}
	for _, member := range membership.Members {
		r.push(ctx, member, evt)
	}
	r.push(ctx, membership.AdminID, evt)
	return nil
}

// push delivers an event to one identity's session if it has one. Absence
// from the presence directory is a normal no-op, and a sink error is logged
// and dropped: the record is durable, live delivery is best-effort.
func (r *Router) push(ctx context.Context, userID string, evt event.DeliveryEvent) {
	session, ok := r.presence.Lookup(userID)
	if !ok {
		return
	}
	pushCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()
	if err := session.Sink.Consume(pushCtx, evt); err != nil {
		r.log.Warn("push lost", "user_id", userID, "session", session.Handle, "error", err)
	}
}
