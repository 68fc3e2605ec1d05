package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatwire/domain"
	"chatwire/errors"
)

func Test_Channel_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(newTestDB(t))

	// When a channel is created without an id
	created, err := repository.Create(domain.Channel{
		Name:    "backend-team",
		AdminID: "user-admin",
		Members: []string{"user-a", "user-b"},
	})
	req.NoError(err)
	req.NotEmpty(created.ID)

	// Then it can be read back whole
	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal(created, fetched)
}

func Test_Channel_Create_Duplicate(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(newTestDB(t))

	created, err := repository.Create(domain.Channel{Name: "once", AdminID: "a", Members: []string{"b"}})
	req.NoError(err)

	_, err = repository.Create(domain.Channel{ID: created.ID, Name: "twice", AdminID: "a", Members: []string{"b"}})
	req.ErrorIs(err, errors.ErrChannelExists)
}

func Test_Channel_AppendMessage_Keeps_Order(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(newTestDB(t))
	created, err := repository.Create(domain.Channel{Name: "general", AdminID: "a", Members: []string{"b"}})
	req.NoError(err)

	// When message ids are appended one by one
	first, second := uuid.New(), uuid.New()
	req.NoError(repository.AppendMessage(created.ID, first))
	req.NoError(repository.AppendMessage(created.ID, second))

	// Then the channel's message list preserves append order
	fetched, err := repository.Get(created.ID)
	req.NoError(err)
	req.Equal([]uuid.UUID{first, second}, fetched.Messages)
}

func Test_Channel_AppendMessage_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(newTestDB(t))

	err := repository.AppendMessage(uuid.NewString(), uuid.New())
	req.ErrorIs(err, errors.ErrChannelNotFound)
}

func Test_Channel_ResolveMembership(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(newTestDB(t))
	created, err := repository.Create(domain.Channel{
		Name:    "ops",
		AdminID: "user-admin",
		Members: []string{"user-a", "user-b"},
	})
	req.NoError(err)

	membership, err := repository.ResolveMembership(created.ID)
	req.NoError(err)
	req.Equal(domain.Membership{Members: []string{"user-a", "user-b"}, AdminID: "user-admin"}, membership)
}

func Test_Channel_ResolveMembership_Unknown_Channel(t *testing.T) {
	req := require.New(t)
	repository := NewChannelRepository(newTestDB(t))

	_, err := repository.ResolveMembership(uuid.NewString())
	req.ErrorIs(err, errors.ErrChannelNotFound)
}
