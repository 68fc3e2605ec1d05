package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRouter wires the REST surface and mounts the websocket endpoint.
func SetupRouter(h *Handler, wsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/channel", h.CreateChannel).Methods(http.MethodPost)
	api.HandleFunc("/channel/{id}", h.GetChannel).Methods(http.MethodGet)
	api.HandleFunc("/channel/{id}/messages", h.GetChannelMessages).Methods(http.MethodGet)
	api.HandleFunc("/messages/{userA}/{userB}", h.GetDirectMessages).Methods(http.MethodGet)

	r.Handle("/ws", wsHandler).Methods(http.MethodGet)

	return r
}
