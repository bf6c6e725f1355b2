package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/interaction"
)

// FrameSink processes landmark frames pushed from outside the process.
type FrameSink interface {
	PushFrame(frame detector.Frame) (interaction.Event, error)
}

// FramesHandler accepts landmark frames from external trackers, such as a
// browser running MediaPipe, and answers with the resulting event.
type FramesHandler struct {
	sink FrameSink
}

// NewFramesHandler creates a FramesHandler feeding sink.
func NewFramesHandler(sink FrameSink) *FramesHandler {
	return &FramesHandler{sink: sink}
}

type frameRequest struct {
	TimestampMs int64               `json:"timestamp_ms"`
	Hands       []detector.WireHand `json:"hands"`
}

type frameErrorResponse struct {
	Error string            `json:"error"`
	Last  interaction.Event `json:"last"`
}

// ServeHTTP handles POST /api/frames.
//
// Frames keep the client's timestamp_ms and must not go backwards. Pushed
// frames and the camera loop cannot share the engine: while capture runs
// every pushed frame is refused with 409 Conflict.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req frameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hands, err := detector.DecodeHands(req.Hands)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ev, err := h.sink.PushFrame(detector.Frame{
		Hands:     hands,
		Timestamp: time.UnixMilli(req.TimestampMs),
	})
	switch {
	case errors.Is(err, app.ErrCaptureActive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, detector.ErrMalformedInput):
		writeJSON(w, http.StatusUnprocessableEntity, frameErrorResponse{Error: err.Error(), Last: ev})
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to process frame")
	default:
		writeJSON(w, http.StatusOK, ev)
	}
}
