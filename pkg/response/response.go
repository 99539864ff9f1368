package response

import (
	"encoding/json"
	"net/http"
)

type Meta struct {
	Page      int64 `json:"page"`
	Size      int64 `json:"size"`
	TotalPage int64 `json:"total_page"`
	TotalData int64 `json:"total_data"`
}

type RESTEnvelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// JSON writes the envelope as a JSON response body.
func JSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
