package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
)

var validate = validator.New()

type errorMapping struct {
	err     error
	status  int
	code    string
	message string // replaces err.Error() when set
}

var errorMappings = []errorMapping{
	{err: domainErrors.ErrNotFound, status: http.StatusNotFound, code: "not_found"},
	{err: domainErrors.ErrInvalidPaymentType, status: http.StatusBadRequest, code: "invalid_payment_type"},
	{err: domainErrors.ErrInvalidRefundKind, status: http.StatusBadRequest, code: "invalid_refund_kind"},
	{err: domainErrors.ErrInvalidStateTransition, status: http.StatusConflict, code: "invalid_state_transition"},
	{
		err:     domainErrors.ErrConcurrentModification,
		status:  http.StatusConflict,
		code:    "conflict",
		message: "someone already acted on this, refresh and retry",
	},
	{err: domainErrors.ErrActiveRefundExists, status: http.StatusConflict, code: "active_refund_exists"},
	{err: domainErrors.ErrBackendUnavailable, status: http.StatusServiceUnavailable, code: "store_unavailable"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			if m.message != "" {
				resp.Error = m.message
			}
			if m.status >= http.StatusInternalServerError {
				log.Warn().Err(err).Msg("ledger store unavailable")
			}
			writeJSON(w, m.status, resp)
			return
		}
	}

	var domainErr *domainErrors.DomainError
	if errors.As(err, &domainErr) {
		resp.Code = domainErr.Code
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

// actorFrom names who performed a request. Authentication lives upstream;
// the gateway forwards the caller in X-Actor-ID.
func actorFrom(r *http.Request, fallback string) string {
	if a := strings.TrimSpace(r.Header.Get("X-Actor-ID")); a != "" {
		return a
	}
	return fallback
}

func invalidQuery(param string) error {
	return domainErrors.NewValidationError(param, "invalid query parameter")
}
