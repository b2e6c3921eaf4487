package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/security"
)

// NewRouter wires the HTTP surface: public auth endpoints, token-protected
// device management, the health endpoint, and the WebSocket telemetry
// channel.
func NewRouter(h *Handlers, ws *WSHandler, tokens *security.TokenProvider) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	r.Handle("/api/device/register", RequireAuth(tokens, http.HandlerFunc(h.RegisterDevice))).Methods(http.MethodPost)
	r.Handle("/api/devices", RequireAuth(tokens, http.HandlerFunc(h.ListDevices))).Methods(http.MethodGet)

	r.HandleFunc("/ws", ws.Serve)

	return r
}
