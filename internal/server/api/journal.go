package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/store"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
)

// JournalHandler serves GET /api/journal?limit=N, newest first.
type JournalHandler struct {
	store *store.Store
}

// NewJournalHandler creates a JournalHandler.
func NewJournalHandler(s *store.Store) *JournalHandler {
	return &JournalHandler{store: s}
}

type journalResponse struct {
	Entries []*store.Entry `json:"entries"`
}

func (h *JournalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultJournalLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := h.store.Journal().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}
	if entries == nil {
		entries = []*store.Entry{}
	}

	writeJSON(w, http.StatusOK, journalResponse{Entries: entries})
}
