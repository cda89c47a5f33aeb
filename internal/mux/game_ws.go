package mux

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/room"
)

const writeWait = time.Second * 10
const pongWait = time.Second * 60
const pingPeriod = pongWait * 9 / 10

// wsCommand is a player action submitted over the socket
type wsCommand struct {
	Action string `json:"action"`
	Amount int    `json:"amount"`
}

func (m *Mux) getGameIDWS() http.HandlerFunc {
	upgrader := &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := gameID(r)
		if _, err := m.engine.Game(r.Context(), id); err != nil {
			writeEngineError(w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("could not upgrade connection")
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		playerID := r.FormValue("playerId")
		client := room.NewClient(conn, id, playerID)

		m.broadcaster.Register(client)
		if playerID != "" {
			// a reconnecting player gets their frozen countdown back
			if err := m.engine.ResumeActionTimer(context.Background(), id, playerID); err != nil {
				logrus.WithError(err).WithField("client", client.String()).Warn("could not resume action timer")
			}
		}

		waitForCloseFrame := make(chan bool)
		defer func() {
			m.broadcaster.Unregister(client)
			if playerID != "" {
				if err := m.engine.PauseActionTimer(context.Background(), id, playerID); err != nil {
					logrus.WithError(err).WithField("client", client.String()).Warn("could not pause action timer")
				}
			}
			_ = conn.Close()
			close(waitForCloseFrame)
		}()

		go m.webSocketWriteLoop(client, waitForCloseFrame)
		m.webSocketReadLoop(client)
	}
}

func (m *Mux) webSocketWriteLoop(client *room.Client, waitForCloseFrame chan bool) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.Conn.Close()
	}()

	for {
		select {
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case reason := <-client.Close:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = client.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))

			// wait for the close frame
			select {
			case <-waitForCloseFrame:
			case <-time.After(time.Second):
			}
			return
		case msg, ok := <-client.SendChan():
			if !ok {
				return
			}

			msgBytes, _ := json.Marshal(msg)
			logrus.WithField("message", string(msgBytes)).WithField("client", client.String()).Trace("sending message to client")

			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithField("client", client.String()).Error("could not write message")
				return
			}
		}
	}
}

func (m *Mux) webSocketReadLoop(client *room.Client) {
	for {
		var cmd wsCommand
		if err := client.Conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsUnexpectedCloseError(err) {
				logrus.WithError(err).Error("could not read JSON")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				logrus.WithError(err).Error("could not read command")
			}

			client.CloseError = err
			return
		}

		m.receivedCommand(client, &cmd)
	}
}

// receivedCommand dispatches a socket-submitted action to the engine,
// replying to just this client when it fails
func (m *Mux) receivedCommand(client *room.Client, cmd *wsCommand) {
	if client.PlayerID == "" {
		client.Send(room.Message{
			GameID:  client.GameID,
			Event:   "error",
			Payload: "spectators cannot act",
			Time:    time.Now(),
		})
		return
	}

	action, err := game.ActionTypeFromString(cmd.Action)
	if err == nil {
		err = m.engine.PlayerAction(context.Background(), client.GameID, client.PlayerID, action, cmd.Amount)
	}

	if err != nil {
		client.Send(room.Message{
			GameID:  client.GameID,
			Event:   "error",
			Payload: err.Error(),
			Time:    time.Now(),
		})
	}
}
