package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/websocket"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

// notifier pushes entity changes to the owning user's open sessions. A nil
// hub disables it.
type notifier struct {
	hub *websocket.Hub
}

func (n notifier) broadcast(userID int64, entity, action string, id int64, extra map[string]any) {
	if n.hub != nil {
		n.hub.BroadcastToUser(userID, websocket.NewMessage(entity, action, id, extra))
	}
}

func validDate(s string) bool {
	if len(s) != len(model.DateLayout) {
		return false
	}
	_, err := time.Parse(model.DateLayout, s)
	return err == nil
}

func validTime(s string) bool {
	if len(s) != len(model.TimeLayout) {
		return false
	}
	_, err := time.Parse(model.TimeLayout, s)
	return err == nil
}

func validDayOfWeek(d *int) bool {
	return d == nil || (*d >= 1 && *d <= 7)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
