package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"inkwell/app/images"
	"inkwell/app/keyschema"
	"inkwell/app/repositories"
	"inkwell/app/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto HTTP status codes. Inconsistent state
// is retryable and distinct from not-found; partial multi-key failures name
// the failed step so the client can decide to retry the whole operation.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	var (
		validationErr *keyschema.ValidationError
		fieldErrs     validator.ValidationErrors
		checkErr      *services.CheckError
		stepErr       *repositories.StepError
	)
	switch {
	case errors.As(err, &checkErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":        checkErr.Error(),
			"broken_links": checkErr.Broken,
		})
	case errors.As(err, &validationErr), errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, images.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, repositories.ErrInconsistent):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	case errors.Is(err, images.ErrExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, keyschema.ErrCorrupt):
		log.Error("corrupt entity", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	case errors.As(err, &stepErr):
		log.Error("partial write", "step", stepErr.Step, "error", stepErr.Err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": stepErr.Error(),
			"step":  stepErr.Step,
		})
	default:
		log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
