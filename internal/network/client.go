package network

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client is one websocket player connection.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.opts.ClientSendBuffer),
	}
}

// ID returns the client's connection id.
func (c *Client) ID() string { return c.id }

// Register adds the client to the hub. It reports false once the hub has stopped.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// trySend queues msg without blocking. Only valid before the client is
// registered or from the hub goroutine.
func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
	}
}

// ReadPump pumps intents from the websocket connection into the game.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.recorder.RecordWSError()
				c.hub.logger.Warn("websocket read failed", "client", c.id, "error", err)
			}
			break
		}
		c.hub.recorder.RecordWSMessage(true)

		if !c.allow(time.Now()) {
			c.reply(MsgError, ErrorPayload{Message: "rate limit exceeded"})
			continue
		}

		env, err := DecodeEnvelope(message)
		if err != nil {
			c.hub.logger.Warn("failed to parse websocket frame", "client", c.id, "error", err)
			c.reply(MsgError, ErrorPayload{Message: err.Error()})
			continue
		}
		c.handleIntent(env)
	}
}

// allow applies the per-second message budget.
func (c *Client) allow(now time.Time) bool {
	limit := c.hub.opts.MaxMessagesPerSecond
	if limit <= 0 {
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	if c.windowCount >= limit {
		return false
	}
	c.windowCount++
	return true
}

func (c *Client) handleIntent(env Envelope) {
	game := c.hub.game

	switch env.T {
	case MsgClick:
		res := game.Click()
		c.reply(MsgResult, ResultPayload{Intent: MsgClick, OK: true, Points: res.Points, XP: res.XP, Combo: res.Combo})
	case MsgRebirth:
		c.reply(MsgResult, ResultPayload{Intent: MsgRebirth, OK: game.Rebirth()})
	case MsgBuyUpgrade, MsgBuySkill, MsgClaimEureka:
		p, err := DecodePayload[IDPayload](env)
		if err != nil || p.ID == "" {
			c.reply(MsgError, ErrorPayload{Message: "missing id for " + env.T})
			return
		}
		var ok bool
		switch env.T {
		case MsgBuyUpgrade:
			ok = game.BuyUpgrade(p.ID)
		case MsgBuySkill:
			ok = game.BuySkill(p.ID)
		default:
			ok = game.ClaimEureka(p.ID)
		}
		c.reply(MsgResult, ResultPayload{Intent: env.T, ID: p.ID, OK: ok})
	default:
		c.hub.logger.Warn("unknown websocket intent", "client", c.id, "type", env.T)
		c.reply(MsgError, ErrorPayload{Message: "unknown type " + env.T})
	}
}

// reply sends a message to this client only, through the hub so the send
// channel is never written after close.
func (c *Client) reply(t string, payload any) {
	msg, err := Encode(t, payload)
	if err != nil {
		c.hub.logger.Error("failed to encode reply", "type", t, "error", err)
		return
	}
	c.hub.direct(c, msg)
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.recorder.RecordWSError()
				return
			}
			c.hub.recorder.RecordWSMessage(false)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
