// Package server exposes the HTTP surface: user registration and login,
// device registration for authenticated users, a health endpoint, and the
// WebSocket telemetry channel.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	devicedomain "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/device/domain"
	identityservice "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/identity/service"
)

// DeviceRepo is the minimal device repository needed by the HTTP handlers.
type DeviceRepo interface {
	Create(ctx context.Context, d *devicedomain.Device) error
	ListByUser(ctx context.Context, userID int64) ([]*devicedomain.Device, error)
}

// Pinger reports storage reachability for the health endpoint (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers carries the handler dependencies for the HTTP surface.
type Handlers struct {
	auth    *identityservice.AuthService
	devices DeviceRepo
	pinger  Pinger
}

// NewHandlers returns the HTTP handler set. pinger may be nil; the health
// endpoint then reports serving without a storage check.
func NewHandlers(auth *identityservice.AuthService, devices DeviceRepo, pinger Pinger) *Handlers {
	return &Handlers{auth: auth, devices: devices, pinger: pinger}
}

type userPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Register handles POST /register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	u, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "User registered successfully",
			"user":    userPayload{ID: u.ID, Username: u.Username, Email: u.Email},
		})
	case errors.Is(err, identityservice.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, "username, email and password are required")
	case errors.Is(err, identityservice.ErrEmailAlreadyRegistered):
		writeJSONError(w, http.StatusConflict, "Email already registered")
	default:
		log.Printf("server: register failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Login handles POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"token":   res.Token,
			"user":    userPayload{ID: res.User.ID, Username: res.User.Username},
		})
	case errors.Is(err, identityservice.ErrInvalidCredentials):
		writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		log.Printf("server: login failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

type devicePayload struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"device_name"`
	Type      string    `json:"device_type"`
	Token     string    `json:"device_token"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterDevice handles POST /api/device/register (authenticated). The
// minted token is the credential the device later presents on the telemetry
// channel.
func (h *Handlers) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Access denied")
		return
	}

	var req struct {
		Name  string `json:"device_name"`
		Type  string `json:"device_type"`
		Token string `json:"device_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	d := &devicedomain.Device{UserID: userID, Name: req.Name, Type: req.Type, Token: req.Token}
	if err := d.Validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.devices.Create(r.Context(), d); err != nil {
		log.Printf("server: device registration failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error registering device")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Device registered successfully",
		"device":  devicePayload{ID: d.ID, UserID: d.UserID, Name: d.Name, Type: d.Type, Token: d.Token, CreatedAt: d.CreatedAt},
	})
}

// ListDevices handles GET /api/devices (authenticated).
func (h *Handlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Access denied")
		return
	}

	list, err := h.devices.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("server: device listing failed: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error listing devices")
		return
	}

	out := make([]devicePayload, 0, len(list))
	for _, d := range list {
		out = append(out, devicePayload{ID: d.ID, UserID: d.UserID, Name: d.Name, Type: d.Type, Token: d.Token, CreatedAt: d.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": out})
}

// Health handles GET /healthz. Storage failure reports 503 but never panics.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "serving"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: response encode failed: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
