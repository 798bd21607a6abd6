package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// maxRequestBody bounds request bodies to keep oversized batches from
// exhausting memory.
const maxRequestBody = 10 << 20 // 10MB

// writeJSON writes a JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}, logger *zap.SugaredLogger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorw("Failed to encode response", "error", err)
	}
}

// writeError logs the full error internally and returns the message to
// the client.
func writeError(w http.ResponseWriter, statusCode int, message string, err error, logger *zap.SugaredLogger) {
	if err != nil {
		logger.Errorw(message, "error", err.Error(), "status_code", statusCode)
	}
	writeJSON(w, statusCode, map[string]string{"error": message}, logger)
}

// decodeJSON decodes a bounded request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
