package api

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform response shape for every endpoint. Failures
// carry a list of human-readable messages; reads of a missing entity
// deliberately answer success with null data, which keeps a missing
// entity indistinguishable from an empty one for API consumers.
type envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors,omitempty"`
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, msgs ...string) {
	writeJSON(w, status, envelope{Success: false, Errors: msgs})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(body)
	_, _ = w.Write(data)
}
