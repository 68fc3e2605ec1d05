package event

import "chatwire/domain"

// DeliveryEvent is what a connected session's sink consumes. Implementations
// carry the enriched record and the correlation token the client supplied.
type DeliveryEvent interface {
	Correlation() string
}

// MessageDelivered is pushed for direct messages, to the recipient's session
// and to the sender's own session when either is connected.
type MessageDelivered struct {
	Message          domain.EnrichedMessage
	CorrelationToken string
}

func (e MessageDelivered) Correlation() string {
	return e.CorrelationToken
}

// ChannelMessageDelivered is the channel-scoped variant, pushed to every
// connected member and to the admin.
type ChannelMessageDelivered struct {
	Message          domain.EnrichedMessage
	ChannelID        string
	CorrelationToken string
}

func (e ChannelMessageDelivered) Correlation() string {
	return e.CorrelationToken
}
