package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/tourneyhub/settlement/internal/domain/errors"
	"github.com/tourneyhub/settlement/internal/domain/refund"
	"github.com/tourneyhub/settlement/internal/domain/settlement"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		payload      any
		expectedBody string
	}{
		{
			name:         "simple map",
			status:       http.StatusOK,
			payload:      map[string]string{"message": "hello"},
			expectedBody: `{"message":"hello"}`,
		},
		{
			name:         "struct",
			status:       http.StatusCreated,
			payload:      struct{ ID string }{ID: "123"},
			expectedBody: `{"ID":"123"}`,
		},
		{
			name:         "error response",
			status:       http.StatusBadRequest,
			payload:      ErrorResponse{Error: "bad request", Code: "invalid_input"},
			expectedBody: `{"error":"bad request","code":"invalid_input"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.status, tt.payload)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWriteError_ValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewValidationError("commission_percentage", "must be between 0 and 100")

	writeError(w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "validation_error", response.Code)
	assert.Contains(t, response.Error, "commission_percentage")
}

func TestWriteError_DomainErrors(t *testing.T) {
	_, badType := settlement.ParsePaymentType("subscription")
	_, badKind := refund.ParseKind("merch")

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "commission not found",
			err:            domainErrors.ErrCommissionNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name:           "refund not found",
			err:            domainErrors.ErrRefundNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name:           "invalid payment type",
			err:            badType,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_payment_type",
		},
		{
			name:           "invalid refund kind",
			err:            badKind,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_refund_kind",
		},
		{
			name:           "invalid state transition",
			err:            domainErrors.NewTransitionError("payment", "verified", "paid"),
			expectedStatus: http.StatusConflict,
			expectedCode:   "invalid_state_transition",
		},
		{
			name:           "concurrent modification",
			err:            fmt.Errorf("update commission: %w", domainErrors.ErrConcurrentModification),
			expectedStatus: http.StatusConflict,
			expectedCode:   "conflict",
		},
		{
			name:           "store unavailable",
			err:            domainErrors.Unavailable(errors.New("dial tcp: connection refused")),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "store_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ErrorResponse
			err := json.NewDecoder(w.Body).Decode(&response)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedCode, response.Code)
		})
	}
}

func TestWriteError_ConcurrentModification_CustomMessage(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, domainErrors.ErrConcurrentModification)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response ErrorResponse
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "someone already acted on this, refresh and retry", response.Error)
	assert.Equal(t, "conflict", response.Code)
}

func TestWriteError_GenericDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainErrors.NewDomainError("custom_error", "custom error message", nil)

	writeError(w, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response ErrorResponse
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "custom_error", response.Code)
	assert.Equal(t, "custom error message", response.Error)
}

func TestWriteError_UnknownError_FallbackToInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.New("unexpected error")

	writeError(w, err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response ErrorResponse
	json.NewDecoder(w.Body).Decode(&response)
	assert.Equal(t, "internal_error", response.Code)
	assert.Equal(t, "internal server error", response.Error)
}

func TestDecodeAndValidate_Success(t *testing.T) {
	var result VerifyPaymentRequest
	body := `{"decision":"approved","verifier_id":"admin-1"}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

	err := decodeAndValidate(req, &result)

	require.NoError(t, err)
	assert.Equal(t, "approved", result.Decision)
	assert.Equal(t, "admin-1", result.VerifierID)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	type TestStruct struct {
		Name string `json:"name"`
	}

	body := `{invalid json}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

	var result TestStruct
	err := decodeAndValidate(req, &result)

	assert.Error(t, err)
	var validationErr *domainErrors.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "body", validationErr.Field)
	assert.Contains(t, validationErr.Message, "invalid JSON")
}

func TestDecodeAndValidate_ValidationFailure_OneOf(t *testing.T) {
	body := `{"decision":"maybe","verifier_id":"admin-1"}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

	var result VerifyPaymentRequest
	err := decodeAndValidate(req, &result)

	assert.Error(t, err)
	var validationErr *domainErrors.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "Decision", validationErr.Field)
	assert.Contains(t, validationErr.Message, "oneof")
}

func TestDecodeAndValidate_ValidationFailure_URL(t *testing.T) {
	body := `{"proof_url":"not a url","payment_method":"bank_transfer"}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

	var result SubmitProofRequest
	err := decodeAndValidate(req, &result)

	var validationErr *domainErrors.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "ProofURL", validationErr.Field)
}

func TestDecodeAndValidate_EmptyBody(t *testing.T) {
	type TestStruct struct {
		Name string `json:"name" validate:"required"`
	}

	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte{}))

	var result TestStruct
	err := decodeAndValidate(req, &result)

	assert.Error(t, err)
}

func TestActorFrom(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", nil)
	assert.Equal(t, "system", actorFrom(req, "system"))

	req.Header.Set("X-Actor-ID", " admin-7 ")
	assert.Equal(t, "admin-7", actorFrom(req, "system"))
}
