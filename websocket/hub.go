package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
}

type Client struct {
	Hub            *Hub
	Conn           *websocket.Conn
	Send           chan []byte
	CandidateID    string
	SessionID      string
	MessageHandler func(*Client, []byte) // Function to handle incoming messages
}

// Message is the wire shape exchanged with the voice relay. The relay streams
// transcript entries as recognition stabilizes and a terminal session_end or
// session_error once the call drops.
type Message struct {
	Type string `json:"type"` // "transcript_entry", "session_end", "session_error", "ack"

	// transcript_entry fields
	Text       string  `json:"text,omitempty"`
	Role       string  `json:"role,omitempty"`      // "candidate" or "interviewer"
	Timestamp  int64   `json:"timestamp,omitempty"` // unix milliseconds
	Confidence float64 `json:"confidence,omitempty"`
	IsFinal    bool    `json:"is_final,omitempty"`
	TurnOrder  int     `json:"turn_order,omitempty"`

	// session_end / session_error fields
	Reason string `json:"reason,omitempty"`

	SessionID string `json:"session_id,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("Client registered", "candidate_id", client.CandidateID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "candidate_id", client.CandidateID, "session_id", client.SessionID)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, candidateID, sessionID string) *Client {
	client := &Client{
		Hub:         h,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		CandidateID: candidateID,
		SessionID:   sessionID,
	}

	h.register <- client
	return client
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err, "session_id", c.SessionID)
			}
			break
		}

		if c.MessageHandler != nil {
			// Run message handler asynchronously to avoid blocking the pump
			go c.MessageHandler(c, messageBytes)
		} else {
			slog.Warn("No message handler configured", "session_id", c.SessionID)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendAck confirms receipt of a transcript entry back to the relay.
func (c *Client) SendAck(turnOrder int) {
	ack := Message{Type: "ack", SessionID: c.SessionID, TurnOrder: turnOrder}

	ackBytes, err := json.Marshal(ack)
	if err != nil {
		slog.Error("Failed to marshal ack", "error", err)
		return
	}

	select {
	case c.Send <- ackBytes:
	default:
		slog.Warn("Failed to send ack - client channel full", "session_id", c.SessionID)
	}
}
