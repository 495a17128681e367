package handler

import (
	"encoding/json"
	"net/http"
)

// maxBody caps request bodies read by the handlers.
const maxBody = 1 << 20

// MessageEnvelope is the generic response wrapper. Details carries the
// backend's field errors when it sent any.
type MessageEnvelope struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// IssueEnvelope answers POST /otp/issue.
type IssueEnvelope struct {
	Message     string `json:"message"`
	IssuanceKey string `json:"issuanceKey"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Message: msg})
}

// writeRaw relays a backend JSON payload unchanged.
func writeRaw(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
