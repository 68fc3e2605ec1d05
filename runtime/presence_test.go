package runtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatwire/contract"
)

func TestPresence_Register_Then_Lookup(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	userID := uuid.NewString()
	session := contract.Session{Handle: uuid.New()}

	// Given no session is registered
	req.Zero(presence.Connected())

	// When a user registers
	presence.Register(userID, session)

	// Then the lookup returns exactly that session
	found, ok := presence.Lookup(userID)
	req.True(ok)
	req.Equal(session, found)
	req.Equal(1, presence.Connected())
}

func TestPresence_Lookup_Absent_User(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	// When the user never connected
	_, ok := presence.Lookup(uuid.NewString())

	// Then the lookup reports absence, not an error
	req.False(ok)
}

func TestPresence_Reconnect_Overwrites_Previous_Session(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	userID := uuid.NewString()
	oldSession := contract.Session{Handle: uuid.New()}
	newSession := contract.Session{Handle: uuid.New()}

	// Given a user already connected once
	presence.Register(userID, oldSession)

	// When the same user connects again
	presence.Register(userID, newSession)

	// Then last-connected-wins: one entry, the new session
	req.Equal(1, presence.Connected())
	found, ok := presence.Lookup(userID)
	req.True(ok)
	req.Equal(newSession, found)
}

func TestPresence_Unregister_Removes_By_Handle(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	userID := uuid.NewString()
	session := contract.Session{Handle: uuid.New()}
	presence.Register(userID, session)

	// When the session's handle unregisters
	presence.Unregister(session.Handle)

	// Then the user is no longer reachable
	_, ok := presence.Lookup(userID)
	req.False(ok)
	req.Zero(presence.Connected())
}

func TestPresence_Late_Disconnect_Does_Not_Evict_Replacement(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	userID := uuid.NewString()
	oldSession := contract.Session{Handle: uuid.New()}
	newSession := contract.Session{Handle: uuid.New()}

	// Given a reconnect already replaced the old session
	presence.Register(userID, oldSession)
	presence.Register(userID, newSession)

	// When the old connection's disconnect arrives late
	presence.Unregister(oldSession.Handle)

	// Then the live replacement survives
	found, ok := presence.Lookup(userID)
	req.True(ok)
	req.Equal(newSession, found)
}

func TestPresence_Unregister_Unknown_Handle_Is_Noop(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	userID := uuid.NewString()
	presence.Register(userID, contract.Session{Handle: uuid.New()})

	// When an unknown handle unregisters
	presence.Unregister(uuid.New())

	// Then nothing changes
	req.Equal(1, presence.Connected())
}
