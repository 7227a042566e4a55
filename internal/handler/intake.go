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

type IntakeHandler struct {
	notifier

	medicines *store.MedicineStore
	intakes   *store.IntakeStore
	logger    *slog.Logger
}

func NewIntakeHandler(ms *store.MedicineStore, is *store.IntakeStore, hub *websocket.Hub, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{notifier: notifier{hub}, medicines: ms, intakes: is, logger: logger}
}

type intakeRequest struct {
	ScheduledTime string `json:"scheduled_time"`
	DayOfWeek     *int   `json:"day_of_week"`
}

func (req *intakeRequest) validate() string {
	req.ScheduledTime = strings.TrimSpace(req.ScheduledTime)
	if !validTime(req.ScheduledTime) {
		return "scheduled_time must be HH:MM between 00:00 and 23:59"
	}
	if !validDayOfWeek(req.DayOfWeek) {
		return "day_of_week must be 1 (Monday) to 7 (Sunday) or null"
	}
	return ""
}

func (h *IntakeHandler) ownedMedicine(w http.ResponseWriter, r *http.Request) *model.Medicine {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	m, err := h.medicines.GetByID(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get medicine", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get medicine")
		return nil
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "medicine not found")
		return nil
	}
	return m
}

func (h *IntakeHandler) ownedIntake(w http.ResponseWriter, r *http.Request) *model.Intake {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	in, err := h.intakes.GetByID(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get intake", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get intake")
		return nil
	}
	if in == nil {
		writeError(w, http.StatusNotFound, "intake not found")
		return nil
	}
	return in
}

// List handles GET /api/medicines/{id}/intakes.
func (h *IntakeHandler) List(w http.ResponseWriter, r *http.Request) {
	m := h.ownedMedicine(w, r)
	if m == nil {
		return
	}

	intakes, err := h.intakes.ListByMedicine(r.Context(), m.ID)
	if err != nil {
		h.logger.Error("list intakes", "medicine_id", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list intakes")
		return
	}
	if intakes == nil {
		intakes = []model.Intake{}
	}
	writeJSON(w, http.StatusOK, intakes)
}

// Create handles POST /api/medicines/{id}/intakes.
func (h *IntakeHandler) Create(w http.ResponseWriter, r *http.Request) {
	m := h.ownedMedicine(w, r)
	if m == nil {
		return
	}

	var req intakeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	in, err := h.intakes.Create(r.Context(), m.ID, req.ScheduledTime, req.DayOfWeek)
	if err != nil {
		h.logger.Error("create intake", "medicine_id", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create intake")
		return
	}

	h.broadcast(auth.UserID(r.Context()), "intake", "created", in.ID, map[string]any{"medicine_id": m.ID})
	writeJSON(w, http.StatusCreated, in)
}

func (h *IntakeHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing := h.ownedIntake(w, r)
	if existing == nil {
		return
	}

	var req intakeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	in, err := h.intakes.Update(r.Context(), existing.ID, req.ScheduledTime, req.DayOfWeek)
	if err != nil {
		h.logger.Error("update intake", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update intake")
		return
	}

	h.broadcast(auth.UserID(r.Context()), "intake", "updated", in.ID, map[string]any{"medicine_id": in.MedicineID})
	writeJSON(w, http.StatusOK, in)
}

func (h *IntakeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing := h.ownedIntake(w, r)
	if existing == nil {
		return
	}

	if err := h.intakes.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("delete intake", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete intake")
		return
	}

	h.broadcast(auth.UserID(r.Context()), "intake", "deleted", existing.ID, map[string]any{"medicine_id": existing.MedicineID})
	w.WriteHeader(http.StatusNoContent)
}
