package ws

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"chatwire/domain"
	"chatwire/domain/event"
)

const (
	TypeSendDirect  = "send-direct"
	TypeSendChannel = "send-channel"

	TypeMessageDelivered        = "message-delivered"
	TypeChannelMessageDelivered = "channel-message-delivered"
	TypeError                   = "error"
)

var validate = validator.New()

// Inbound is a client frame: a direct or channel send intent. The sender is
// never taken from the frame, it is the connection's handshake identity.
type Inbound struct {
	Type             string `json:"type" validate:"required,oneof=send-direct send-channel"`
	Recipient        string `json:"recipient,omitempty" validate:"required_if=Type send-direct,excluded_if=Type send-channel"`
	ChannelID        string `json:"channelId,omitempty" validate:"required_if=Type send-channel,excluded_if=Type send-direct"`
	Kind             string `json:"kind" validate:"required,oneof=text file"`
	Contents         string `json:"contents,omitempty" validate:"required_if=Kind text,excluded_if=Kind file"`
	FileURL          string `json:"fileUrl,omitempty" validate:"required_if=Kind file,excluded_if=Kind text"`
	CorrelationToken string `json:"correlationToken,omitempty"`
}

func (in Inbound) Validate() error {
	return validate.Struct(in)
}

// Outbound is a server push frame.
type Outbound struct {
	Type             string      `json:"type"`
	Message          *MessageDTO `json:"message,omitempty"`
	ChannelID        string      `json:"channelId,omitempty"`
	CorrelationToken string      `json:"correlationToken,omitempty"`
	Reason           string      `json:"reason,omitempty"`
}

type MessageDTO struct {
	ID        string      `json:"id"`
	Sender    ProfileDTO  `json:"sender"`
	Recipient *ProfileDTO `json:"recipient,omitempty"`
	ChannelID string      `json:"channelId,omitempty"`
	Kind      string      `json:"kind"`
	Contents  string      `json:"contents,omitempty"`
	FileURL   string      `json:"fileUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

type ProfileDTO struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
	Color string `json:"color,omitempty"`
}

// ToOutbound converts a delivery event into its wire frame.
func ToOutbound(e event.DeliveryEvent) Outbound {
	switch evt := e.(type) {
	case event.MessageDelivered:
		return Outbound{
			Type:             TypeMessageDelivered,
			Message:          lo.ToPtr(toMessageDTO(evt.Message)),
			CorrelationToken: evt.CorrelationToken,
		}
	case event.ChannelMessageDelivered:
		return Outbound{
			Type:             TypeChannelMessageDelivered,
			Message:          lo.ToPtr(toMessageDTO(evt.Message)),
			ChannelID:        evt.ChannelID,
			CorrelationToken: evt.CorrelationToken,
		}
	default:
		return Outbound{Type: TypeError, Reason: "unknown event"}
	}
}

func toMessageDTO(m domain.EnrichedMessage) MessageDTO {
	dto := MessageDTO{
		ID:        m.ID.String(),
		Sender:    toProfileDTO(m.Sender),
		ChannelID: m.ChannelID,
		Kind:      string(m.Kind),
		Contents:  m.Contents,
		FileURL:   m.FileURL,
		CreatedAt: m.CreatedAt,
	}
	if m.Recipient != nil {
		dto.Recipient = lo.ToPtr(toProfileDTO(*m.Recipient))
	}
	return dto
}

func toProfileDTO(p domain.Profile) ProfileDTO {
	return ProfileDTO{ID: p.ID, Email: p.Email, Name: p.Name, Image: p.Image, Color: p.Color}
}
