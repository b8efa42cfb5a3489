// internal/api/errors.go
package api

import (
	"encoding/json"
	"net/http"

	apperrors "offer-ledger/internal/common/errors"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeApplicationValidationFailed:
		return http.StatusBadRequest
	case apperrors.ErrCodeApplicationNotFound, apperrors.ErrCodeUserNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeUserNotApproved:
		return http.StatusForbidden
	case apperrors.ErrCodeInvalidTransition:
		return http.StatusConflict
	case apperrors.ErrCodeStoreUnavailable, apperrors.ErrCodeLedgerUnavailable, apperrors.ErrCodeExternalService:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr := apperrors.Normalize(err)
	status := statusFor(stdErr.Code)
	fields := map[string]interface{}{
		"code":  stdErr.Code,
		"error": err,
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", fields)
	} else {
		s.log.Debug("request rejected", fields)
	}
	writeJSON(w, status, errorBody{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
