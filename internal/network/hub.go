package network

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/brainclicker/internal/engine"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

// Game is the slice of the engine the transport drives.
type Game interface {
	Click() engine.ClickResult
	BuyUpgrade(id string) bool
	BuySkill(id string) bool
	Rebirth() bool
	ClaimEureka(id string) bool
	View() engine.View
}

// Recorder receives transport metrics. Satisfied by *metrics.Collector.
type Recorder interface {
	RecordWSConnection(delta int64)
	RecordWSMessage(incoming bool)
	RecordWSError()
}

// HubOptions sizes the hub's buffers.
type HubOptions struct {
	BroadcastBuffer      int
	ClientSendBuffer     int
	MaxMessagesPerSecond int
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	dirty      chan struct{} // Capacity 1: coalesces state pushes
	done       chan struct{}
	mu         sync.Mutex

	game     Game
	opts     HubOptions
	recorder Recorder
	logger   *logger.Logger
}

// NewHub initializes a new WebSocket Hub.
func NewHub(game Game, opts HubOptions, rec Recorder, log *logger.Logger) *Hub {
	if opts.BroadcastBuffer <= 0 {
		opts.BroadcastBuffer = 256
	}
	if opts.ClientSendBuffer <= 0 {
		opts.ClientSendBuffer = 64
	}
	return &Hub{
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		dirty:      make(chan struct{}, 1),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		game:       game,
		opts:       opts,
		recorder:   rec,
		logger:     log,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
				h.recorder.RecordWSConnection(-1)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.recorder.RecordWSConnection(1)
			h.logger.Info("websocket client connected", "client", client.id)
			h.sendState(client)
		case client := <-h.unregister:
			h.remove(client)
		case <-h.dirty:
			msg, err := Encode(MsgState, h.game.View())
			if err != nil {
				h.logger.Error("failed to encode state", "error", err)
				continue
			}
			h.fanOut(msg)
		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.recorder.RecordWSConnection(-1)
		h.logger.Info("websocket client disconnected", "client", client.id)
	}
}

// fanOut delivers message to every client; a client whose buffer is full is dropped.
func (h *Hub) fanOut(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			h.recorder.RecordWSConnection(-1)
			h.recorder.RecordWSError()
			h.logger.Warn("dropping slow websocket client", "client", client.id)
		}
	}
}

func (h *Hub) sendState(client *Client) {
	msg, err := Encode(MsgState, h.game.View())
	if err != nil {
		h.logger.Error("failed to encode state", "error", err)
		return
	}
	client.trySend(msg)
}

// MarkDirty schedules a state push. Calls between two pushes collapse into one.
// Wire it as a store subscriber.
func (h *Hub) MarkDirty() {
	select {
	case h.dirty <- struct{}{}:
	default:
	}
}

// BroadcastCue sends a presentation cue to every client. Wire it as a cue subscriber.
func (h *Hub) BroadcastCue(c engine.Cue) {
	msg, err := Encode(MsgCue, c)
	if err != nil {
		h.logger.Error("failed to encode cue", "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.recorder.RecordWSError()
		h.logger.Warn("broadcast queue full, dropping cue", "kind", c.Kind)
	}
}

// direct queues msg for a single client if it is still registered.
func (h *Hub) direct(client *Client, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	select {
	case client.send <- msg:
	default:
		h.recorder.RecordWSError()
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // The browser client is served from a separate dev server
	},
}

// ServeWS upgrades the request and starts the client's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.recorder.RecordWSError()
		h.logger.Error("failed to upgrade websocket connection", "error", err)
		return
	}

	client := NewClient(h, conn, uuid.NewString())
	welcome, err := Encode(MsgWelcome, WelcomePayload{ClientID: client.id})
	if err == nil {
		client.trySend(welcome)
	}
	if !client.Register() {
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
