package handlers

import (
	"encoding/json"
	"net/http"
)

// единый конверт ошибки: статус, сообщение и путь запроса
type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, status, errorResponse{
		Status:  status,
		Message: message,
		Path:    r.URL.Path,
	})
}
