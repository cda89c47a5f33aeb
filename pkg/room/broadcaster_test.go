package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_Emit(t *testing.T) {
	a := assert.New(t)

	b := NewBroadcaster()
	c1 := NewClient(nil, "g1", "alice")
	c2 := NewClient(nil, "g1", "")
	c3 := NewClient(nil, "g2", "bob")
	b.Register(c1)
	b.Register(c2)
	b.Register(c3)

	b.Emit("g1", "player_bet", map[string]int{"amount": 50})

	for _, c := range []*Client{c1, c2} {
		select {
		case raw := <-c.SendChan():
			msg := raw.(Message)
			a.Equal("g1", msg.GameID)
			a.Equal("player_bet", msg.Event)
		default:
			t.Errorf("client %s did not receive the message", c)
		}
	}

	select {
	case <-c3.SendChan():
		t.Error("client on another game received the message")
	default:
	}
}

func TestBroadcaster_Unregister(t *testing.T) {
	a := assert.New(t)

	b := NewBroadcaster()
	c := NewClient(nil, "g1", "alice")
	b.Register(c)
	require.Equal(t, 1, b.ClientCount("g1"))

	b.Unregister(c)
	a.Equal(0, b.ClientCount("g1"))

	// safe to call twice
	b.Unregister(c)

	b.Emit("g1", "player_bet", nil)
	select {
	case <-c.SendChan():
		t.Error("unregistered client received a message")
	default:
	}
}

func TestClient_SendDropsWhenFull(t *testing.T) {
	a := assert.New(t)

	c := NewClient(nil, "g1", "alice")
	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.Send(i))
	}

	a.False(c.Send("overflow"))
}

func TestClient_String(t *testing.T) {
	a := assert.New(t)

	a.Equal("alice:g1", NewClient(nil, "g1", "alice").String())
	a.Equal("spectator:g1", NewClient(nil, "g1", "").String())
}
