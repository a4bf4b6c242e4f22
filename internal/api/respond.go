package api

import (
	"encoding/json"
	"net/http"
	"strings"

	xerrors "ProfileFinder/internal/errors"
	"ProfileFinder/internal/lookup"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "仅支持 "+strings.Join(methods, "/"))
}

// writeServiceError 根据错误码映射 HTTP 状态。
func writeServiceError(w http.ResponseWriter, err error) {
	code := xerrors.CodeOf(err)
	message := err.Error()
	if typed, ok := xerrors.From(err); ok && typed.Message() != "" {
		message = typed.Message()
	}
	writeError(w, statusForCode(code), string(code), message)
}

func statusForCode(code xerrors.Code) int {
	switch code {
	case xerrors.CodeInvalidArgument, lookup.CodeJobValidation:
		return http.StatusBadRequest
	case xerrors.CodeNotFound, lookup.CodeJobNotFound:
		return http.StatusNotFound
	case xerrors.CodeConflict, lookup.CodeJobConflict, lookup.CodeJobCompleted:
		return http.StatusConflict
	case xerrors.CodeInitializationFailure, xerrors.CodeQueueFailure, lookup.CodeJobPublish:
		return http.StatusServiceUnavailable
	case xerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
