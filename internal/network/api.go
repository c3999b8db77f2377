// Package network exposes the game over a websocket hub and a small JSON API.
package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/brainclicker/internal/engine"
	"github.com/MRamiBalles/brainclicker/internal/events"
	"github.com/MRamiBalles/brainclicker/internal/platform/logger"
)

const maxJournalLimit = 500

// JournalReader is the read side of the action journal.
type JournalReader interface {
	Len() int
	Recent(limit int) []events.Entry
	ByType(t events.ActionType, limit int) []events.Entry
}

// APIHandler serves the state snapshot and the journal replay.
type APIHandler struct {
	game    Game
	journal JournalReader
	logger  *logger.Logger
}

// NewAPIHandler creates the JSON API. journal may be nil.
func NewAPIHandler(game Game, journal JournalReader, log *logger.Logger) *APIHandler {
	return &APIHandler{game: game, journal: journal, logger: log}
}

// JournalResponse is the API response for a journal replay.
type JournalResponse struct {
	Total       int            `json:"total"`
	FilteredBy  string         `json:"filtered_by,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Entries     []events.Entry `json:"entries"`
}

// HandleState returns the current view.
// GET /api/state
func (ah *APIHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ah.writeJSON(w, ah.game.View())
}

// HandleSnapshot returns the raw reduced state held by the request's store,
// without derived figures. The store comes from the server's base context.
// GET /api/snapshot
func (ah *APIHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	store, ok := engine.LookupStore(r.Context())
	if !ok {
		ah.logger.Error("snapshot requested without a store in the request context")
		ah.jsonError(w, "Store unavailable", http.StatusServiceUnavailable)
		return
	}
	ah.writeJSON(w, store.GetState())
}

// HandleJournal returns recent journal entries.
// GET /api/journal?type=BUY_UPGRADE&limit=50
func (ah *APIHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ah.journal == nil {
		ah.jsonError(w, "Journal disabled", http.StatusNotFound)
		return
	}

	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			ah.jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxJournalLimit)
	}

	var entries []events.Entry
	filter := r.URL.Query().Get("type")
	if filter != "" {
		t := events.ActionType(filter)
		if !events.Known(t) {
			ah.jsonError(w, "Unknown action type", http.StatusBadRequest)
			return
		}
		entries = ah.journal.ByType(t, limit)
	} else {
		entries = ah.journal.Recent(limit)
	}
	if entries == nil {
		entries = []events.Entry{}
	}

	ah.writeJSON(w, JournalResponse{
		Total:       len(entries),
		FilteredBy:  filter,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Entries:     entries,
	})
}

// HandleJournalStats counts the retained entries per action type.
// GET /api/journal/stats
func (ah *APIHandler) HandleJournalStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ah.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if ah.journal == nil {
		ah.jsonError(w, "Journal disabled", http.StatusNotFound)
		return
	}

	counts := make(map[events.ActionType]int)
	for _, e := range ah.journal.Recent(0) {
		counts[e.Type]++
	}
	ah.writeJSON(w, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"total":        ah.journal.Len(),
		"by_type":      counts,
	})
}

// RegisterRoutes sets up the API routes.
func (ah *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", ah.HandleState)
	mux.HandleFunc("/api/snapshot", ah.HandleSnapshot)
	mux.HandleFunc("/api/journal", ah.HandleJournal)
	mux.HandleFunc("/api/journal/stats", ah.HandleJournalStats)
}

func (ah *APIHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ah.logger.Warn("failed to write api response", "error", err)
	}
}

// jsonError sends an error response.
func (ah *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
