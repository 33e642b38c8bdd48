package handlers

import (
	"encoding/json"
	"net/http"

	"keyadmin/internal/engine/keys"
	"keyadmin/internal/engine/session"
	apperrors "keyadmin/internal/pkg/errors"
	"keyadmin/internal/platform/models"
)

type KeysHandler struct {
	identity    *session.Identity
	aggregator  *keys.Aggregator
	spend       *keys.SpendCache
	budget      *keys.BudgetMutator
	provisioner *keys.Provisioner
}

func NewKeysHandler(identity *session.Identity, aggregator *keys.Aggregator, spend *keys.SpendCache, budget *keys.BudgetMutator, provisioner *keys.Provisioner) *KeysHandler {
	return &KeysHandler{
		identity:    identity,
		aggregator:  aggregator,
		spend:       spend,
		budget:      budget,
		provisioner: provisioner,
	}
}

func (h *KeysHandler) scope(r *http.Request) (keys.Scope, error) {
	user, err := h.identity.Current(r.Context())
	if err != nil {
		return keys.Scope{}, err
	}
	if user.IsAdmin && r.URL.Query().Get("all") == "true" {
		return keys.Scope{AllKeys: true}, nil
	}
	return keys.Scope{UserID: user.ID}, nil
}

func (h *KeysHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := h.scope(r)
	if err != nil {
		writeFailure(w, err)
		return
	}

	views, err := h.aggregator.ListKeys(r.Context(), scope)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *KeysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RegionID   int    `json:"region_id"`
		Name       string `json:"name"`
		Capability string `json:"capability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	key, err := h.provisioner.Create(r.Context(), req.RegionID, req.Name, models.KeyCapability(req.Capability))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (h *KeysHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := keyIDParam(r)
	if !ok {
		apperrors.WriteError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "Invalid key id", nil)
		return
	}

	if err := h.aggregator.DeleteKey(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Spend serves the lazily loaded snapshot for one key. ?refresh=true forces
// a new fetch; otherwise a loaded snapshot is served from cache.
func (h *KeysHandler) Spend(w http.ResponseWriter, r *http.Request) {
	id, ok := keyIDParam(r)
	if !ok {
		apperrors.WriteError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "Invalid key id", nil)
		return
	}

	view, err := h.findKey(r, id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if view == nil {
		apperrors.WriteError(w, http.StatusNotFound, apperrors.ErrCodeNotFound, "Key not found", nil)
		return
	}
	if !view.Meterable() {
		writeFailure(w, apperrors.ErrNotMetered)
		return
	}

	var snap *models.SpendSnapshot
	if r.URL.Query().Get("refresh") == "true" {
		snap, err = h.spend.Refresh(r.Context(), id)
	} else {
		snap, err = h.spend.Load(r.Context(), id)
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Budget applies a budget-period change, then refreshes spend so the
// response carries the server's recomputed budget fields, never a locally
// assumed value.
func (h *KeysHandler) Budget(w http.ResponseWriter, r *http.Request) {
	id, ok := keyIDParam(r)
	if !ok {
		apperrors.WriteError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "Invalid key id", nil)
		return
	}

	var req struct {
		BudgetDuration string `json:"budget_duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, http.StatusBadRequest, apperrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	view, err := h.findKey(r, id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if view == nil {
		apperrors.WriteError(w, http.StatusNotFound, apperrors.ErrCodeNotFound, "Key not found", nil)
		return
	}
	if !view.Meterable() {
		writeFailure(w, apperrors.ErrNotMetered)
		return
	}

	if err := h.budget.SetBudgetPeriod(r.Context(), id, req.BudgetDuration); err != nil {
		writeFailure(w, err)
		return
	}

	snap, err := h.spend.Refresh(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *KeysHandler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.aggregator.Regions(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, regions)
}

func (h *KeysHandler) findKey(r *http.Request, id int) (*models.KeyView, error) {
	scope, err := h.scope(r)
	if err != nil {
		return nil, err
	}
	views, err := h.aggregator.ListKeys(r.Context(), scope)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].ID == id {
			return &views[i], nil
		}
	}
	return nil, nil
}
