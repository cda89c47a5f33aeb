package room

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Message is the envelope every connected client receives
type Message struct {
	GameID  string      `json:"gameId"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
	Time    time.Time   `json:"time"`
}

// Broadcaster fans engine events out to the clients watching each game. It
// satisfies the engine's notifier contract: Emit never blocks, and a client
// that can't keep up loses messages instead of stalling the hand.
type Broadcaster struct {
	mu    sync.RWMutex
	games map[string]map[*Client]bool
}

// NewBroadcaster returns an empty broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		games: make(map[string]map[*Client]bool),
	}
}

// Register adds the client to its game's audience
func (b *Broadcaster) Register(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.games[c.GameID]
	if !ok {
		clients = make(map[*Client]bool)
		b.games[c.GameID] = clients
	}

	clients[c] = true
}

// Unregister removes the client. Safe to call twice.
func (b *Broadcaster) Unregister(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, ok := b.games[c.GameID]
	if !ok {
		return
	}

	delete(clients, c)
	if len(clients) == 0 {
		delete(b.games, c.GameID)
	}
}

// Emit delivers an event to every client watching the game
func (b *Broadcaster) Emit(gameID, event string, payload interface{}) {
	msg := Message{
		GameID:  gameID,
		Event:   event,
		Payload: payload,
		Time:    time.Now(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for c := range b.games[gameID] {
		if !c.Send(msg) {
			logrus.WithField("client", c.String()).Warn("send buffer full; dropping message")
		}
	}
}

// ClientCount returns how many clients are watching the game
func (b *Broadcaster) ClientCount(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.games[gameID])
}
