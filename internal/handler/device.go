package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/cuidamed/internal/auth"
	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/push"
	"github.com/dukerupert/cuidamed/internal/reminder"
	"github.com/dukerupert/cuidamed/internal/store"
	"github.com/dukerupert/cuidamed/internal/websocket"
)

type DeviceHandler struct {
	notifier

	devices    *store.DeviceStore
	client     *push.Client
	dispatcher *reminder.Dispatcher
	logger     *slog.Logger
}

// NewDeviceHandler creates the device handler. client may be nil when push
// failed to initialize; registration still works and test sends report it.
func NewDeviceHandler(ds *store.DeviceStore, client *push.Client, hub *websocket.Hub, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{
		notifier:   notifier{hub},
		devices:    ds,
		client:     client,
		dispatcher: reminder.NewDispatcher(client, ds, logger),
		logger:     logger,
	}
}

type deviceRequest struct {
	Platform      string `json:"platform"`
	DeviceID      string `json:"device_id"`
	EndpointToken string `json:"endpoint_token"`
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.ListByUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list devices", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	if devices == nil {
		devices = []model.UserDevice{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// Register handles POST /api/devices. Re-registering the same platform and
// device id replaces the endpoint token.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req deviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.EndpointToken = strings.TrimSpace(req.EndpointToken)

	if !model.ValidPlatform(req.Platform) {
		writeError(w, http.StatusBadRequest, "platform must be ios, android, or web")
		return
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}
	if err := push.ValidateToken(req.Platform, req.EndpointToken); err != nil {
		writeError(w, http.StatusBadRequest, "invalid endpoint_token for platform")
		return
	}

	d, err := h.devices.Upsert(r.Context(), userID, req.Platform, req.DeviceID, req.EndpointToken)
	if err != nil {
		h.logger.Error("register device", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register device")
		return
	}

	h.broadcast(userID, "device", "registered", d.ID, map[string]any{"platform": d.Platform})
	writeJSON(w, http.StatusOK, d)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.devices.GetByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get device")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "device not found")
		return
	}

	if err := h.devices.Delete(r.Context(), id, userID); err != nil {
		h.logger.Error("delete device", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete device")
		return
	}

	h.broadcast(userID, "device", "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Test handles POST /api/devices/test by sending a sample notification to
// every device of the caller.
func (h *DeviceHandler) Test(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if h.client == nil {
		writeError(w, http.StatusServiceUnavailable, push.ErrNotInitialized.Error())
		return
	}

	devices, err := h.devices.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("list devices", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	if len(devices) == 0 {
		writeError(w, http.StatusNotFound, "no registered devices")
		return
	}

	msg := push.Message{
		Title: "Test Notification",
		Body:  "Push notifications are working!",
		Data:  map[string]string{"type": "test"},
	}
	sent := h.dispatcher.Dispatch(r.Context(), userID, devices, msg)

	writeJSON(w, http.StatusOK, map[string]int{"sent": sent, "total": len(devices)})
}

// VAPIDKey handles GET /api/push/vapid-key, which browsers need before they
// can subscribe.
func (h *DeviceHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	key := h.client.VAPIDPublicKey()
	if key == "" {
		writeError(w, http.StatusNotFound, "web push is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": key})
}
