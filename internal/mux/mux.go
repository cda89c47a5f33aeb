package mux

import (
	"net/http"

	gmux "github.com/gorilla/mux"

	"holdemtable-server/pkg/engine"
	"holdemtable-server/pkg/room"
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version     string
	engine      *engine.Engine
	broadcaster *room.Broadcaster
}

// NewMux returns a new HTTP mux
func NewMux(version string, eng *engine.Engine, broadcaster *room.Broadcaster) *Mux {
	this := &Mux{
		Router:      gmux.NewRouter(),
		version:     version,
		engine:      eng,
		broadcaster: broadcaster,
	}

	r := this.Router
	r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
	r.Methods(http.MethodPost).Path("/game").Handler(this.postGame())

	gr := r.PathPrefix("/game/{id:(?i)[a-f0-9]{8}(?:-[a-f0-9]{4}){3}-[a-f0-9]{12}}").Subrouter()
	gr.Methods(http.MethodGet).Path("").Handler(this.getGameID())
	gr.Methods(http.MethodGet).Path("/ws").Handler(this.getGameIDWS())
	gr.Methods(http.MethodPost).Path("/join").Handler(this.postGameIDJoin())
	gr.Methods(http.MethodPost).Path("/leave").Handler(this.postGameIDLeave())
	gr.Methods(http.MethodPost).Path("/action").Handler(this.postGameIDAction())
	gr.Methods(http.MethodPost).Path("/timer").Handler(this.postGameIDTimer())

	return this
}

func gameID(r *http.Request) string {
	return gmux.Vars(r)["id"]
}
