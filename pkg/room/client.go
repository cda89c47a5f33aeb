package room

import (
	"fmt"

	"github.com/gorilla/websocket"
)

const sendBuffer = 256

// Client is a viewer connected to a game via websockets
type Client struct {
	// Conn is the underlying websocket connection
	Conn *websocket.Conn

	// send is a channel for sending messages to the client
	send chan interface{}

	// Close is a channel for closing the client
	Close chan string

	// CloseError contains the reason why the connection was closed
	CloseError error

	// PlayerID is empty for spectators
	PlayerID string

	GameID string
}

// NewClient returns a new client object
func NewClient(conn *websocket.Conn, gameID, playerID string) *Client {
	return &Client{
		send:     make(chan interface{}, sendBuffer),
		Close:    make(chan string),
		Conn:     conn,
		GameID:   gameID,
		PlayerID: playerID,
	}
}

// Send sends a message to the web client. Returns false if the client's
// buffer is full; the message is dropped rather than blocking the caller.
func (c *Client) Send(msg interface{}) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// SendChan returns a read-only channel
func (c *Client) SendChan() <-chan interface{} {
	return c.send
}

// String returns a traceable identifier for the client
func (c *Client) String() string {
	if c.PlayerID == "" {
		return fmt.Sprintf("spectator:%s", c.GameID)
	}

	return fmt.Sprintf("%s:%s", c.PlayerID, c.GameID)
}
