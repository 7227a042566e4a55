package handler

import (
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/dukerupert/cuidamed/internal/auth"
	"github.com/dukerupert/cuidamed/internal/model"
	"github.com/dukerupert/cuidamed/internal/store"
	"github.com/dukerupert/cuidamed/internal/websocket"
)

type MedicineHandler struct {
	notifier

	treatments *store.TreatmentStore
	medicines  *store.MedicineStore
	logger     *slog.Logger
}

func NewMedicineHandler(ts *store.TreatmentStore, ms *store.MedicineStore, hub *websocket.Hub, logger *slog.Logger) *MedicineHandler {
	return &MedicineHandler{notifier: notifier{hub}, treatments: ts, medicines: ms, logger: logger}
}

type medicineRequest struct {
	Name       string  `json:"name"`
	DoseAmount float64 `json:"dose_amount"`
	DoseUnit   string  `json:"dose_unit"`
}

func (req *medicineRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.DoseUnit = strings.TrimSpace(req.DoseUnit)

	if req.Name == "" {
		return "name is required"
	}
	if !(req.DoseAmount > 0) || math.IsInf(req.DoseAmount, 0) {
		return "dose_amount must be greater than zero"
	}
	if req.DoseUnit == "" {
		return "dose_unit is required"
	}
	return ""
}

// ownedMedicine loads the {id} medicine for the caller, writing the error
// response itself when it returns nil.
func (h *MedicineHandler) ownedMedicine(w http.ResponseWriter, r *http.Request) *model.Medicine {
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

func (h *MedicineHandler) ownedTreatment(w http.ResponseWriter, r *http.Request) *model.Treatment {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	t, err := h.treatments.GetByID(r.Context(), id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get treatment", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get treatment")
		return nil
	}
	if t == nil {
		writeError(w, http.StatusNotFound, "treatment not found")
		return nil
	}
	return t
}

// List handles GET /api/treatments/{id}/medicines.
func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	t := h.ownedTreatment(w, r)
	if t == nil {
		return
	}

	medicines, err := h.medicines.ListByTreatment(r.Context(), t.ID)
	if err != nil {
		h.logger.Error("list medicines", "treatment_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list medicines")
		return
	}
	if medicines == nil {
		medicines = []model.Medicine{}
	}
	writeJSON(w, http.StatusOK, medicines)
}

// Create handles POST /api/treatments/{id}/medicines.
func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	t := h.ownedTreatment(w, r)
	if t == nil {
		return
	}

	var req medicineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	m, err := h.medicines.Create(r.Context(), t.ID, req.Name, req.DoseAmount, req.DoseUnit)
	if err != nil {
		h.logger.Error("create medicine", "treatment_id", t.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create medicine")
		return
	}

	h.broadcast(t.UserID, "medicine", "created", m.ID, map[string]any{"treatment_id": t.ID})
	writeJSON(w, http.StatusCreated, m)
}

func (h *MedicineHandler) Get(w http.ResponseWriter, r *http.Request) {
	if m := h.ownedMedicine(w, r); m != nil {
		writeJSON(w, http.StatusOK, m)
	}
}

func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing := h.ownedMedicine(w, r)
	if existing == nil {
		return
	}

	var req medicineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	m, err := h.medicines.Update(r.Context(), existing.ID, req.Name, req.DoseAmount, req.DoseUnit)
	if err != nil {
		h.logger.Error("update medicine", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update medicine")
		return
	}

	h.broadcast(auth.UserID(r.Context()), "medicine", "updated", m.ID, map[string]any{"treatment_id": m.TreatmentID})
	writeJSON(w, http.StatusOK, m)
}

func (h *MedicineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing := h.ownedMedicine(w, r)
	if existing == nil {
		return
	}

	if err := h.medicines.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("delete medicine", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete medicine")
		return
	}

	h.broadcast(auth.UserID(r.Context()), "medicine", "deleted", existing.ID, map[string]any{"treatment_id": existing.TreatmentID})
	w.WriteHeader(http.StatusNoContent)
}
