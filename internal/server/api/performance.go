package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/perf"
)

// PerformanceControl reads and overrides the performance mode.
type PerformanceControl interface {
	Performance() perf.Status
	SetToggle(t perf.Toggle)
}

// PerformanceHandler serves GET and PUT /api/performance.
type PerformanceHandler struct {
	control PerformanceControl
}

// NewPerformanceHandler creates a PerformanceHandler.
func NewPerformanceHandler(c PerformanceControl) *PerformanceHandler {
	return &PerformanceHandler{control: c}
}

type toggleRequest struct {
	Toggle string `json:"toggle"`
}

func (h *PerformanceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.control.Performance())
	case http.MethodPut:
		var req toggleRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		t, err := perf.ParseToggle(req.Toggle)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.control.SetToggle(t)
		writeJSON(w, http.StatusOK, h.control.Performance())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
