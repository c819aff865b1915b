package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// JSONError reports err to the client. The first code, if any, is the HTTP
// status; the default is 500.
func JSONError(h *handler, w http.ResponseWriter, r *http.Request, err error, code ...int) {
	status := http.StatusInternalServerError
	for _, c := range code {
		status = c
		break // Take the first, if any is given
	}

	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.Log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("code", status), zap.Error(err))
	}

	writeJSON(w, status, struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{
		false,
		err.Error(),
	})
}
