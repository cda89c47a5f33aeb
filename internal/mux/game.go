package mux

import (
	"net/http"
	"time"

	"holdemtable-server/internal/util"
	"holdemtable-server/pkg/game"
)

type createGameResponse struct {
	ID string `json:"id"`
}

func (m *Mux) postGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := util.RandomID()
		if _, err := m.engine.CreateGame(r.Context(), id); err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createGameResponse{ID: id})
	}
}

func (m *Mux) getGameID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := m.engine.Game(r.Context(), gameID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}

		viewer := r.FormValue("playerId")
		writeJSON(w, http.StatusOK, rec.BuildSnapshot(viewer, time.Now()))
	}
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	IsAI     bool   `json:"isAI"`
}

func (m *Mux) postGameIDJoin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload joinRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		if payload.PlayerID == "" {
			payload.PlayerID = "guest:" + util.RandomID()
		}
		if payload.Username == "" {
			payload.Username = payload.PlayerID
		}

		if err := m.engine.Join(r.Context(), gameID(r), payload.PlayerID, payload.Username, payload.IsAI); err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"playerId": payload.PlayerID})
	}
}

type leaveRequest struct {
	PlayerID string `json:"playerId"`
}

func (m *Mux) postGameIDLeave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload leaveRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		if err := m.engine.Leave(r.Context(), gameID(r), payload.PlayerID); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type actionRequest struct {
	PlayerID string `json:"playerId"`
	Action   string `json:"action"`
	Amount   int    `json:"amount"`
}

func (m *Mux) postGameIDAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload actionRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		action, err := game.ActionTypeFromString(payload.Action)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		if err := m.engine.PlayerAction(r.Context(), gameID(r), payload.PlayerID, action, payload.Amount); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (m *Mux) postGameIDTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload actionRequest
		if !decodeRequest(w, r, &payload) {
			return
		}

		action, err := game.ActionTypeFromString(payload.Action)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		if err := m.engine.SelectTimerAction(r.Context(), gameID(r), payload.PlayerID, action, payload.Amount); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
