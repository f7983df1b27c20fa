package ws

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tripchat/internal/chat"
)

// Frame is one client to server message.
type Frame struct {
	Type        string `json:"type" validate:"required,oneof=join-room leave-room send-message"`
	RoomID      int64  `json:"roomId" validate:"gt=0"`
	Body        string `json:"body"`
	SenderID    int64  `json:"senderId"`
	ClientToken string `json:"clientToken" validate:"max=64"`
}

// client pumps one websocket connection. readPump is the only reader and
// writePump the only writer.
type client struct {
	handler *Handler
	conn    *websocket.Conn
	session *chat.Session
	log     logrus.FieldLogger
}

func (c *client) readPump(ctx context.Context) {
	defer c.handler.gateway.Disconnect(c.session)

	opts := c.handler.opts
	c.conn.SetReadLimit(opts.MaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	limit := opts.frameLimit()
	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.WithError(err).Info("websocket closed unexpectedly")
			}
			return
		}
		raw, err := io.ReadAll(io.LimitReader(r, limit+1))
		if err != nil {
			return
		}
		if int64(len(raw)) > limit {
			// drain the rest; past MaxFrameBytes this fails and the connection closes
			if _, err := io.Copy(io.Discard, r); err != nil {
				c.log.WithError(err).Info("frame exceeds transport limit")
				return
			}
			c.fail(Frame{Type: chat.EventSendMessage}, chat.ErrBodyTooLong)
			continue
		}
		c.handle(ctx, raw)
	}
}

func (c *client) handle(ctx context.Context, raw []byte) {
	gw := c.handler.gateway

	f, err := c.handler.decode(raw)
	if err != nil {
		c.fail(f, err)
		return
	}

	switch f.Type {
	case chat.EventJoinRoom:
		if err = gw.Join(ctx, c.session, f.RoomID); err == nil {
			gw.Reply(c.session, chat.AckEvent(f.Type, f.RoomID))
		}
	case chat.EventLeaveRoom:
		if err = gw.Leave(c.session, f.RoomID); err == nil {
			gw.Reply(c.session, chat.AckEvent(f.Type, f.RoomID))
		}
	case chat.EventSendMessage:
		_, err = gw.Send(ctx, c.session, chat.SendRequest{
			RoomID:      f.RoomID,
			Body:        f.Body,
			ClientToken: f.ClientToken,
		})
	}
	if err != nil {
		c.fail(f, err)
	}
}

func (c *client) fail(f Frame, err error) {
	if errors.Is(err, chat.ErrDisconnected) {
		return
	}
	c.log.WithFields(logrus.Fields{"event": f.Type, "room_id": f.RoomID}).WithError(err).Debug("frame rejected")
	c.handler.gateway.Reply(c.session, chat.ErrorEvent(f.Type, f.RoomID, f.ClientToken, err))
}

func (c *client) writePump() {
	opts := c.handler.opts
	ticker := time.NewTicker(opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	events := c.session.Events()
	for {
		select {
		case ev, ok := <-events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				// session closed by the gateway
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.log.WithError(err).Debug("write failed")
				c.handler.gateway.Disconnect(c.session)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.handler.gateway.Disconnect(c.session)
				return
			}
		}
	}
}
