package ws

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chatwire/domain"
	"chatwire/internal/logs"
	"chatwire/repositories"
	"chatwire/runtime"
	"chatwire/services"
)

type testBackend struct {
	server   *httptest.Server
	users    repositories.UserRepository
	channels repositories.ChannelRepository
	messages repositories.MessageRepository
	presence *runtime.Presence
}

func newTestBackend(t *testing.T) testBackend {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelError)
	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	messages := repositories.NewMessageRepository(db, users, log)
	presence := runtime.NewPresence()
	router := runtime.NewRouter(log, messages, channels, presence, time.Second)
	chat := services.NewChatService(router, presence, messages)

	server := httptest.NewServer(NewHandler(log, chat, nil, 16))
	t.Cleanup(server.Close)
	return testBackend{server: server, users: users, channels: channels, messages: messages, presence: presence}
}

func (b testBackend) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(b.server.URL, "http") + "?userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// waitForSessions blocks until the presence directory holds the expected
// number of entries: registration happens just after the handshake response,
// so a send fired straight after dialing could otherwise race it.
func (b testBackend) waitForSessions(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return b.presence.Connected() == n },
		time.Second, 5*time.Millisecond)
}

func readFrame(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame Outbound
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestServer_Rejects_Connection_Without_Identity(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	url := "ws" + strings.TrimPrefix(backend.server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)

	req.Error(err)
	req.NotNil(resp)
	req.Equal(400, resp.StatusCode)
}

func TestServer_Direct_Message_Reaches_Both_Sessions(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	// Given both users have profiles and open connections
	alice, err := backend.users.Create(domain.Profile{Email: "alice@example.com", Name: "Alice"})
	req.NoError(err)
	bob, err := backend.users.Create(domain.Profile{Email: "bob@example.com", Name: "Bob"})
	req.NoError(err)
	aliceConn := backend.dial(t, alice.ID)
	bobConn := backend.dial(t, bob.ID)
	backend.waitForSessions(t, 2)

	// When alice sends a direct message with a correlation token
	token := uuid.NewString()
	req.NoError(aliceConn.WriteJSON(Inbound{
		Type:             TypeSendDirect,
		Recipient:        bob.ID,
		Kind:             "text",
		Contents:         "hello bob",
		CorrelationToken: token,
	}))

	// Then both sessions receive one identical enriched push
	aliceFrame := readFrame(t, aliceConn)
	bobFrame := readFrame(t, bobConn)
	req.Equal(aliceFrame, bobFrame)
	req.Equal(TypeMessageDelivered, bobFrame.Type)
	req.Equal(token, bobFrame.CorrelationToken)
	req.NotNil(bobFrame.Message)
	req.Equal("hello bob", bobFrame.Message.Contents)
	req.Equal("Alice", bobFrame.Message.Sender.Name)
	req.NotNil(bobFrame.Message.Recipient)
	req.Equal("Bob", bobFrame.Message.Recipient.Name)
}

func TestServer_Direct_Message_Persists_When_Recipient_Offline(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	alice, err := backend.users.Create(domain.Profile{Email: "alice@example.com", Name: "Alice"})
	req.NoError(err)
	offline := uuid.NewString()
	aliceConn := backend.dial(t, alice.ID)
	backend.waitForSessions(t, 1)

	// When alice messages someone who is not connected
	req.NoError(aliceConn.WriteJSON(Inbound{
		Type:      TypeSendDirect,
		Recipient: offline,
		Kind:      "text",
		Contents:  "are you there?",
	}))

	// Then her own session still gets the confirmation push
	frame := readFrame(t, aliceConn)
	req.Equal(TypeMessageDelivered, frame.Type)

	// And the message is durable regardless of delivery
	history, err := backend.messages.DirectHistory(alice.ID, offline)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("are you there?", history[0].Contents)
}

func TestServer_Channel_Message_Admin_Member_Duplication(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	// Given admin A is also a listed member, and A and B are connected
	adminA, memberB := "user-a", "user-b"
	channel, err := backend.channels.Create(domain.Channel{
		Name:    "general",
		AdminID: adminA,
		Members: []string{adminA, memberB},
	})
	req.NoError(err)
	adminConn := backend.dial(t, adminA)
	memberConn := backend.dial(t, memberB)
	backend.waitForSessions(t, 2)

	// When B sends a channel message
	req.NoError(memberConn.WriteJSON(Inbound{
		Type:      TypeSendChannel,
		ChannelID: channel.ID,
		Kind:      "text",
		Contents:  "standup in 5",
	}))

	// Then B receives exactly one push and A two (member and admin): the
	// duplication is the documented delivery contract
	memberFrame := readFrame(t, memberConn)
	req.Equal(TypeChannelMessageDelivered, memberFrame.Type)
	req.Equal(channel.ID, memberFrame.ChannelID)

	first := readFrame(t, adminConn)
	second := readFrame(t, adminConn)
	req.Equal(first, second)
	req.Equal(TypeChannelMessageDelivered, first.Type)

	// And the channel's message list gained the new id
	fetched, err := backend.channels.Get(channel.ID)
	req.NoError(err)
	req.Len(fetched.Messages, 1)
}

func TestServer_Unknown_Channel_Reports_Error_To_Sender_Only(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	conn := backend.dial(t, "user-a")
	backend.waitForSessions(t, 1)

	// When a message targets a channel that does not exist
	req.NoError(conn.WriteJSON(Inbound{
		Type:      TypeSendChannel,
		ChannelID: uuid.NewString(),
		Kind:      "text",
		Contents:  "void",
	}))

	// Then the sender gets an error frame on its own connection
	frame := readFrame(t, conn)
	req.Equal(TypeError, frame.Type)
	req.Contains(frame.Reason, "channel")
}

func TestServer_Invalid_Frame_Reports_Error(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	conn := backend.dial(t, "user-a")
	backend.waitForSessions(t, 1)

	// When a frame mixes text contents with a file url
	req.NoError(conn.WriteJSON(Inbound{
		Type:      TypeSendDirect,
		Recipient: "user-b",
		Kind:      "text",
		Contents:  "hi",
		FileURL:   "/uploads/x.png",
	}))

	frame := readFrame(t, conn)
	req.Equal(TypeError, frame.Type)
}

func TestServer_Disconnect_Unregisters_Session(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	conn := backend.dial(t, "user-a")
	req.Eventually(func() bool { return backend.presence.Connected() == 1 },
		time.Second, 10*time.Millisecond)

	// When the client closes its connection
	req.NoError(conn.Close())

	// Then the presence entry is removed
	req.Eventually(func() bool { return backend.presence.Connected() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestServer_Reconnect_Keeps_User_Reachable(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t)

	alice, err := backend.users.Create(domain.Profile{Email: "alice@example.com", Name: "Alice"})
	req.NoError(err)
	bob, err := backend.users.Create(domain.Profile{Email: "bob@example.com", Name: "Bob"})
	req.NoError(err)

	// Given bob reconnects: a second connection replaces the first
	_ = backend.dial(t, bob.ID)
	secondConn := backend.dial(t, bob.ID)
	req.Eventually(func() bool { return backend.presence.Connected() == 1 },
		time.Second, 10*time.Millisecond)

	aliceConn := backend.dial(t, alice.ID)
	backend.waitForSessions(t, 2)
	req.NoError(aliceConn.WriteJSON(Inbound{
		Type:      TypeSendDirect,
		Recipient: bob.ID,
		Kind:      "text",
		Contents:  "which session?",
	}))

	// Then delivery lands on the replacement connection
	frame := readFrame(t, secondConn)
	req.Equal(TypeMessageDelivered, frame.Type)
	req.Equal("which session?", frame.Message.Contents)
}
