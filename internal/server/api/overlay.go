package api

import "net/http"

// OverlayControl reads and sets the blocking-overlay flag.
type OverlayControl interface {
	SetOverlayOpen(open bool)
	OverlayOpen() bool
}

// OverlayHandler serves GET and PUT /api/overlay.
type OverlayHandler struct {
	control OverlayControl
}

// NewOverlayHandler creates an OverlayHandler.
func NewOverlayHandler(c OverlayControl) *OverlayHandler {
	return &OverlayHandler{control: c}
}

type overlayBody struct {
	Open *bool `json:"open"`
}

func (h *OverlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		open := h.control.OverlayOpen()
		writeJSON(w, http.StatusOK, overlayBody{Open: &open})
	case http.MethodPut:
		var req overlayBody
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Open == nil {
			writeError(w, http.StatusBadRequest, "open is required")
			return
		}
		h.control.SetOverlayOpen(*req.Open)
		writeJSON(w, http.StatusOK, req)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
