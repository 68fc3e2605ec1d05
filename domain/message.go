// Package domain contains core concepts of the messaging system.
// This file defines Message records and their invariants.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"

	"chatwire/errors"
)

type MessageKind string

const (
	KindText MessageKind = "text"
	KindFile MessageKind = "file"
)

// Message represents an immutable chat record. Exactly one of Recipient or
// ChannelID is set, and exactly one of Contents or FileURL matching Kind.
type Message struct {
	ID        uuid.UUID
	SenderID  string
	Recipient string
	ChannelID string
	Kind      MessageKind
	Contents  string
	FileURL   string
	CreatedAt time.Time
}

func (m Message) IsChannel() bool {
	return m.ChannelID != ""
}

// Validate enforces the payload invariant: a text message carries contents
// and no file reference, a file message the reverse, and the record targets
// either a recipient or a channel but never both.
func (m Message) Validate() error {
	if m.SenderID == "" {
		return errors.ErrInvalidMessage
	}
	if (m.Recipient == "") == (m.ChannelID == "") {
		return errors.ErrInvalidMessage
	}
	switch m.Kind {
	case KindText:
		if m.Contents == "" || m.FileURL != "" {
			return errors.ErrInvalidMessage
		}
	case KindFile:
		if m.FileURL == "" || m.Contents != "" {
			return errors.ErrInvalidMessage
		}
	default:
		return errors.ErrInvalidMessage
	}
	return nil
}

// EnrichedMessage is a Message whose foreign keys have been replaced by the
// profile projections a client needs for direct rendering. Recipient is nil
// for channel messages.
type EnrichedMessage struct {
	ID        uuid.UUID
	Sender    Profile
	Recipient *Profile
	ChannelID string
	Kind      MessageKind
	Contents  string
	FileURL   string
	CreatedAt time.Time
}

// SendDirectCommand is an inbound direct send intent. CorrelationToken is
// client-generated, echoed on the push event and never persisted.
type SendDirectCommand struct {
	SenderID         string
	Recipient        string
	Kind             MessageKind
	Contents         string
	FileURL          string
	CorrelationToken string
}

type SendChannelCommand struct {
	SenderID         string
	ChannelID        string
	Kind             MessageKind
	Contents         string
	FileURL          string
	CorrelationToken string
}
