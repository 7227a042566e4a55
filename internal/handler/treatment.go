package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/cuidamed/internal/auth"
	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/store"
	"github.com/dukerupert/cuidamed/internal/websocket"
)

type TreatmentHandler struct {
	notifier

	treatments *store.TreatmentStore
	logger     *slog.Logger
}

func NewTreatmentHandler(ts *store.TreatmentStore, hub *websocket.Hub, logger *slog.Logger) *TreatmentHandler {
	return &TreatmentHandler{notifier: notifier{hub}, treatments: ts, logger: logger}
}

type treatmentRequest struct {
	Name      string  `json:"name"`
	Notes     string  `json:"notes"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

// validate normalizes req in place and returns a message for the first
// invalid field.
func (req *treatmentRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Notes = strings.TrimSpace(req.Notes)
	req.StartDate = strings.TrimSpace(req.StartDate)
	req.EndDate = trimPtr(req.EndDate)

	if req.Name == "" {
		return "name is required"
	}
	if !validDate(req.StartDate) {
		return "start_date must be YYYY-MM-DD"
	}
	if req.EndDate != nil {
		if !validDate(*req.EndDate) {
			return "end_date must be YYYY-MM-DD"
		}
		if *req.EndDate < req.StartDate {
			return "end_date must not be before start_date"
		}
	}
	return ""
}

func (h *TreatmentHandler) List(w http.ResponseWriter, r *http.Request) {
	treatments, err := h.treatments.ListByUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list treatments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list treatments")
		return
	}
	if treatments == nil {
		treatments = []model.Treatment{}
	}
	writeJSON(w, http.StatusOK, treatments)
}

func (h *TreatmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req treatmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	t, err := h.treatments.Create(r.Context(), userID, req.Name, req.Notes, req.StartDate, req.EndDate)
	if err != nil {
		h.logger.Error("create treatment", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create treatment")
		return
	}

	h.broadcast(userID, "treatment", "created", t.ID, nil)
	writeJSON(w, http.StatusCreated, t)
}

func (h *TreatmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	t, err := h.treatments.GetByID(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get treatment")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "treatment not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TreatmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req treatmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	t, err := h.treatments.Update(r.Context(), id, userID, req.Name, req.Notes, req.StartDate, req.EndDate)
	if err != nil {
		h.logger.Error("update treatment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update treatment")
		return
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "treatment not found")
		return
	}

	h.broadcast(userID, "treatment", "updated", id, nil)
	writeJSON(w, http.StatusOK, t)
}

func (h *TreatmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.treatments.GetByID(r.Context(), id, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get treatment")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "treatment not found")
		return
	}

	if err := h.treatments.Delete(r.Context(), id, userID); err != nil {
		h.logger.Error("delete treatment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete treatment")
		return
	}

	h.broadcast(userID, "treatment", "deleted", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
