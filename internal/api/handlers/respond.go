package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	apiContext "keyadmin/internal/api/context"
	apperrors "keyadmin/internal/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeFailure maps engine and backend errors onto console responses. Backend
// validation failures keep the server's detail message so the dialog shows a
// single user-facing reason.
func writeFailure(w http.ResponseWriter, err error) {
	var apiErr *apperrors.APIError
	var decodeErr *apperrors.DecodeError

	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		apperrors.WriteError(w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Session expired", nil)
	case errors.Is(err, apperrors.ErrBudgetBusy):
		apperrors.WriteError(w, http.StatusConflict, apperrors.ErrCodeBusy, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNotMetered):
		apperrors.WriteError(w, http.StatusConflict, apperrors.ErrCodeConflict, err.Error(), nil)
	case errors.As(err, &apiErr):
		apperrors.WriteError(w, apiErr.Status, apperrors.ErrCodeUpstream, apiErr.Error(), nil)
	case errors.As(err, &decodeErr):
		apperrors.WriteError(w, http.StatusBadGateway, apperrors.ErrCodeUpstream, "Backend returned an unreadable response", nil)
	default:
		apperrors.WriteError(w, http.StatusBadGateway, apperrors.ErrCodeUpstream, err.Error(), nil)
	}
}

func keyIDParam(r *http.Request) (int, bool) {
	params, ok := r.Context().Value(apiContext.Params).(httprouter.Params)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(params.ByName("key_id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
