//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chatwire/contract"
	"chatwire/domain"
	"chatwire/errors"
)

type MessageRepository struct {
	db    *badger.DB
	users contract.UserDirectory
	log   *slog.Logger
}

func NewMessageRepository(db *badger.DB, users contract.UserDirectory, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, users: users, log: log}
}

// diskMessage is the stored shape of a message. The client correlation token
// is deliberately absent: it is echoed on the push event, never persisted.
type diskMessage struct {
	ID        uuid.UUID          `json:"id"`
	Sender    string             `json:"sender"`
	Recipient string             `json:"recipient,omitempty"`
	ChannelID string             `json:"channelId,omitempty"`
	Kind      domain.MessageKind `json:"kind"`
	Contents  string             `json:"contents,omitempty"`
	FileURL   string             `json:"fileUrl,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// conversationKey formats the time-sorted key a message lives under:
//
//	"dm:{low|high}:{timestamp_padded}:{uuid}"   for direct messages
//	"ch:{channelId}:{timestamp_padded}:{uuid}"  for channel messages
//
// The 19-digit zero padding keeps lexicographical order chronological, and
// the trailing UUID disambiguates two messages landing on the same nanosecond.
// Direct pairs are ordered low|high so both participants scan one prefix.
func conversationKey(m diskMessage) []byte {
	if m.ChannelID != "" {
		return []byte(fmt.Sprintf("ch:%s:%019d:%s", m.ChannelID, m.CreatedAt.UnixNano(), m.ID))
	}
	return []byte(fmt.Sprintf("dm:%s:%019d:%s", pairKey(m.Sender, m.Recipient), m.CreatedAt.UnixNano(), m.ID))
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// Create durably appends a message. The store assigns the id and timestamp.
// Two keys are written in one transaction: the conversation key holding the
// record, and a "msgid:{uuid}" pointer so FetchEnriched can find it by id.
func (m MessageRepository) Create(msg domain.Message) (domain.Message, error) {
	if err := msg.Validate(); err != nil {
		return domain.Message{}, err
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()

	dm := toDiskMessage(msg)
	data, err := json.Marshal(dm)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}
	key := conversationKey(dm)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte("msgid:"+dm.ID.String()), key)
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("persist failed: %w", err)
	}
	return msg, nil
}

// FetchEnriched reads a message back by id and joins the sender (and, for
// direct messages, recipient) profile projections onto it.
func (m MessageRepository) FetchEnriched(id uuid.UUID) (domain.EnrichedMessage, error) {
	var dm diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		pointer, err := txn.Get([]byte("msgid:" + id.String()))
		if err != nil {
			return err
		}
		var key []byte
		if err := pointer.Value(func(val []byte) error {
			key = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dm)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.EnrichedMessage{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.EnrichedMessage{}, err
	}
	return m.enrich(dm), nil
}

// DirectHistory returns the conversation between two users in chronological
// order, enriched the same way live pushes are.
func (m MessageRepository) DirectHistory(userA, userB string) ([]domain.EnrichedMessage, error) {
	return m.scan(fmt.Sprintf("dm:%s:", pairKey(userA, userB)))
}

// ChannelHistory returns a channel's messages in chronological order.
func (m MessageRepository) ChannelHistory(channelID string) ([]domain.EnrichedMessage, error) {
	return m.scan(fmt.Sprintf("ch:%s:", channelID))
}

func (m MessageRepository) scan(prefixStr string) ([]domain.EnrichedMessage, error) {
	var diskMessages []diskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dm diskMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &dm)
			}); err != nil {
				return err
			}
			diskMessages = append(diskMessages, dm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(diskMessages, func(dm diskMessage, _ int) domain.EnrichedMessage {
		return m.enrich(dm)
	}), nil
}

// enrich joins profile projections onto a stored record. A missing directory
// row degrades to a projection carrying only the id, it never fails the read.
func (m MessageRepository) enrich(dm diskMessage) domain.EnrichedMessage {
	enriched := domain.EnrichedMessage{
		ID:        dm.ID,
		Sender:    m.projection(dm.Sender),
		ChannelID: dm.ChannelID,
		Kind:      dm.Kind,
		Contents:  dm.Contents,
		FileURL:   dm.FileURL,
		CreatedAt: dm.CreatedAt,
	}
	if dm.Recipient != "" {
		enriched.Recipient = lo.ToPtr(m.projection(dm.Recipient))
	}
	return enriched
}

func (m MessageRepository) projection(userID string) domain.Profile {
	profile, err := m.users.Get(userID)
	if err != nil {
		m.log.Debug("no profile for identity, degrading projection", "user_id", userID)
		return domain.Profile{ID: userID}
	}
	return profile
}

func toDiskMessage(msg domain.Message) diskMessage {
	return diskMessage{
		ID:        msg.ID,
		Sender:    msg.SenderID,
		Recipient: msg.Recipient,
		ChannelID: msg.ChannelID,
		Kind:      msg.Kind,
		Contents:  msg.Contents,
		FileURL:   msg.FileURL,
		CreatedAt: msg.CreatedAt,
	}
}
