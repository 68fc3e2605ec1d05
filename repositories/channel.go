//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"chatwire/domain"
	"chatwire/errors"
)

type IChannelRepository interface {
	Create(channel domain.Channel) (domain.Channel, error)
	Get(id string) (domain.Channel, error)
	AppendMessage(channelID string, messageID uuid.UUID) error
	ResolveMembership(channelID string) (domain.Membership, error)
}

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) ChannelRepository {
	return ChannelRepository{db: db}
}

func (c ChannelRepository) Create(channel domain.Channel) (domain.Channel, error) {
	if channel.ID == "" {
		channel.ID = uuid.NewString()
	}
	data, err := json.Marshal(channel)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("marshal failed: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		key := []byte("channel:" + channel.ID)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrChannelExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (c ChannelRepository) Get(id string) (domain.Channel, error) {
	var channel domain.Channel
	err := c.db.View(func(txn *badger.Txn) error {
		return c.read(txn, id, &channel)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

// AppendMessage adds a message id to the channel's ordered message list.
// Read-modify-write inside a single transaction so concurrent appends on the
// same channel cannot lose an entry.
func (c ChannelRepository) AppendMessage(channelID string, messageID uuid.UUID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		var channel domain.Channel
		if err := c.read(txn, channelID, &channel); err != nil {
			return err
		}
		channel.Messages = append(channel.Messages, messageID)
		data, err := json.Marshal(channel)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set([]byte("channel:"+channelID), data)
	})
}

// ResolveMembership reads the current audience of a channel. Callers resolve
// on every send: there is no caching layer to go stale behind a membership
// change.
func (c ChannelRepository) ResolveMembership(channelID string) (domain.Membership, error) {
	channel, err := c.Get(channelID)
	if err != nil {
		return domain.Membership{}, err
	}
	return domain.Membership{Members: channel.Members, AdminID: channel.AdminID}, nil
}

func (c ChannelRepository) read(txn *badger.Txn, id string, channel *domain.Channel) error {
	item, err := txn.Get([]byte("channel:" + id))
	if err == badger.ErrKeyNotFound {
		return errors.ErrChannelNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, channel)
	})
}
