package server

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/rushteam/reorder/logging"
)

// 对外错误消息
const (
	msgInternalError = "An internal error occurred."
	msgInvalidBody   = "Request body must be a JSON object."
	msgMissingUserID = "Missing 'user_id' in request body."
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// respondJSON 写出 JSON 响应
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondError 写出 {"error": message}
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
