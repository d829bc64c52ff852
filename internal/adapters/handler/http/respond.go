package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vncsmyrnk/chainpoll/internal/core/domain"
	"github.com/vncsmyrnk/chainpoll/internal/core/ports"
)

const codeInvalidBody = "invalid_body"

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeError renders err with the status of its kind. Storage conflicts
// surface as 409; other errors that are not domain errors are logged and
// hidden from the caller.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, ports.ErrTxConflict) {
		log.Warn("storage conflict", zap.Error(err))
		writeErrorCode(w, http.StatusConflict, "conflict", "concurrent update, retry the request")
		return
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		log.Error("request failed", zap.Error(err))
		writeErrorCode(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	status := statusFor(de.Kind)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
	}
	writeErrorCode(w, status, de.Code, de.Message)
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidReference:
		return http.StatusUnprocessableEntity
	case domain.KindUnsupported:
		return http.StatusNotImplemented
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidBody, "invalid request body: "+err.Error())
		return false
	}
	return true
}
