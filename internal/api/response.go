package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse es el cuerpo de todas las respuestas de error.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondJSON escribe data como JSON con el status dado. Si data no se puede
// serializar responde 500 en vez de un 200 vacío.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		slog.Warn("encode JSON response", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		body, _ = json.Marshal(errorResponse{Error: "encode response", Details: err.Error()})
	} else {
		w.WriteHeader(status)
	}
	body = append(body, '\n')
	if _, err := w.Write(body); err != nil {
		slog.Debug("write JSON response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	respondJSON(w, status, resp)
}
