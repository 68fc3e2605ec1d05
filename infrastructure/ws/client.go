package ws

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"chatwire/domain"
	"chatwire/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// client owns one upgraded connection: its identity, its sink, and the two
// pumps. The read pump drives the send pipeline to completion for each frame
// before reading the next, so one connection's sends stay ordered while
// different connections progress independently.
type client struct {
	conn   *websocket.Conn
	userID string
	sink   *Sink
	chat   services.IChatService
	log    *slog.Logger
	done   chan struct{}
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		close(c.done)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("closing connection in read pump", "error", err)
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warn("setting read deadline", "user_id", c.userID, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				c.log.Warn("unexpected websocket error", "user_id", c.userID, "error", err)
			}
			return
		}
		c.dispatch(ctx, in)
	}
}

// dispatch validates one inbound frame and runs its send pipeline. Failures
// are reported back on this connection only, never broadcast, and never
// crash the pump.
func (c *client) dispatch(ctx context.Context, in Inbound) {
	if err := in.Validate(); err != nil {
		c.reportError(ctx, fmt.Sprintf("invalid frame: %v", err), in.CorrelationToken)
		return
	}

	var err error
	switch in.Type {
	case TypeSendDirect:
		err = c.chat.SendDirect(ctx, domain.SendDirectCommand{
			SenderID:         c.userID,
			Recipient:        in.Recipient,
			Kind:             domain.MessageKind(in.Kind),
			Contents:         in.Contents,
			FileURL:          in.FileURL,
			CorrelationToken: in.CorrelationToken,
		})
	case TypeSendChannel:
		err = c.chat.SendChannel(ctx, domain.SendChannelCommand{
			SenderID:         c.userID,
			ChannelID:        in.ChannelID,
			Kind:             domain.MessageKind(in.Kind),
			Contents:         in.Contents,
			FileURL:          in.FileURL,
			CorrelationToken: in.CorrelationToken,
		})
	}
	if err != nil {
		c.log.Error("send failed", "user_id", c.userID, "type", in.Type, "error", err)
		c.reportError(ctx, err.Error(), in.CorrelationToken)
	}
}

// reportError pushes an error frame through the connection's own sink.
func (c *client) reportError(ctx context.Context, reason, token string) {
	_ = c.sink.Consume(ctx, errorEvent{reason: reason, token: token})
}

// errorEvent carries a failure back to the originating connection.
type errorEvent struct {
	reason string
	token  string
}

func (e errorEvent) Correlation() string { return e.token }

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.log.Warn("closing connection in write pump", "error", err)
		}
	}()

	for {
		select {
		case evt := <-c.sink.Events:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			var frame Outbound
			if ee, ok := evt.(errorEvent); ok {
				frame = Outbound{Type: TypeError, Reason: ee.reason, CorrelationToken: ee.token}
			} else {
				frame = ToOutbound(evt)
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				if !isExpectedCloseError(err) {
					c.log.Warn("push write failed", "user_id", c.userID, "error", err)
				}
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
