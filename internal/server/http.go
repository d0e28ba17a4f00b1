package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/padmiss/cabd/internal/records"
	"github.com/padmiss/cabd/internal/tournament"
	"github.com/padmiss/cabd/internal/websocket"
)

// Request-level errors surfaced in the response envelope
var (
	errInvalidRequest = errors.New("invalid request")
	errPlayerNotFound = errors.New("player not found")
	errNoScores       = errors.New("no scores found")
	errInternalError  = errors.New("internal server error")
)

// TournamentAPI is the slice of the tournament client the local API
// depends on, kept as an interface so tests can stub the remote service.
type TournamentAPI interface {
	GetPlayer(ctx context.Context, q tournament.PlayerQuery) (*records.Player, error)
	GetLastScore(ctx context.Context, playerID string) (map[string]any, error)
	GetScoreHistory(ctx context.Context, playerID string) (map[string]*tournament.StepchartHistory, error)
	PostScore(ctx context.Context, player *records.Player, upload *records.ChartUpload) error
}

// Handler provides the local cabinet HTTP API: player lookup and score
// history for attract screens, and score submission from the game side.
type Handler struct {
	api    TournamentAPI
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(api TournamentAPI, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		api:    api,
		hub:    hub,
		logger: logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)

	// WebSocket endpoint for overlay clients
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/players/lookup", h.LookupPlayer)
		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/scores/last", h.GetLastScore)
			r.Get("/scores/history", h.GetScoreHistory)
		})

		r.Post("/scores", h.SubmitScore)

		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers for overlays served from other origins
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]any{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns daemon health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// LookupPlayer resolves a player by any combination of id, RFID uid and
// nickname. No unique match is a 404, not an error: tapping an unknown
// card is an everyday event on a cabinet.
func (h *Handler) LookupPlayer(w http.ResponseWriter, r *http.Request) {
	q := tournament.PlayerQuery{
		PlayerID: r.URL.Query().Get("playerId"),
		RfidUID:  r.URL.Query().Get("rfidUid"),
		Nickname: r.URL.Query().Get("nickname"),
	}
	if q.PlayerID == "" && q.RfidUID == "" && q.Nickname == "" {
		h.writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}

	player, err := h.api.GetPlayer(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to look up player", "error", err)
		h.writeError(w, http.StatusInternalServerError, errInternalError)
		return
	}
	if player == nil {
		h.writeError(w, http.StatusNotFound, errPlayerNotFound)
		return
	}

	h.writeSuccess(w, player)
}

// GetLastScore returns the player's most recent score document
func (h *Handler) GetLastScore(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}

	doc, err := h.api.GetLastScore(r.Context(), playerID)
	if err != nil {
		h.logger.Error("failed to get last score", "error", err)
		h.writeError(w, http.StatusInternalServerError, errInternalError)
		return
	}
	if doc == nil {
		h.writeError(w, http.StatusNotFound, errNoScores)
		return
	}

	h.writeSuccess(w, doc)
}

// GetScoreHistory returns the player's score history grouped by step chart
func (h *Handler) GetScoreHistory(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if playerID == "" {
		h.writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}

	history, err := h.api.GetScoreHistory(r.Context(), playerID)
	if err != nil {
		h.logger.Error("failed to get score history", "error", err)
		h.writeError(w, http.StatusInternalServerError, errInternalError)
		return
	}

	h.writeSuccess(w, history)
}

// submitRequest is the body posted by the game side after a play
type submitRequest struct {
	PlayerID string         `json:"playerId"`
	RfidUID  string         `json:"rfidUid"`
	Upload   map[string]any `json:"upload"`
}

// SubmitScore hydrates the posted upload document, resolves the player,
// submits the score upstream and pushes the result to the overlay feed.
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}
	if req.Upload == nil || (req.PlayerID == "" && req.RfidUID == "") {
		h.writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}

	upload, err := records.NewChartUpload(req.Upload)
	if err != nil {
		if records.IsMissingField(err) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to hydrate upload", "error", err)
		h.writeError(w, http.StatusInternalServerError, errInternalError)
		return
	}

	player, err := h.api.GetPlayer(r.Context(), tournament.PlayerQuery{
		PlayerID: req.PlayerID,
		RfidUID:  req.RfidUID,
	})
	if err != nil {
		h.logger.Error("failed to resolve player", "error", err)
		h.writeError(w, http.StatusInternalServerError, errInternalError)
		return
	}
	if player == nil {
		h.writeError(w, http.StatusNotFound, errPlayerNotFound)
		return
	}

	h.logger.Info("submitting score", "player", player.Nickname, "upload", upload)

	if err := h.api.PostScore(r.Context(), player, upload); err != nil {
		var subErr *tournament.ScoreSubmissionError
		if errors.As(err, &subErr) {
			h.writeError(w, http.StatusBadGateway, subErr)
			return
		}
		h.logger.Error("failed to post score", "error", err)
		h.writeError(w, http.StatusInternalServerError, errInternalError)
		return
	}

	h.hub.BroadcastScore(scoreEvent(player, upload))

	h.writeSuccess(w, map[string]string{"status": "submitted"})
}

// scoreEvent builds the overlay feed payload for a submitted upload
func scoreEvent(player *records.Player, upload *records.ChartUpload) websocket.ScoreEvent {
	event := websocket.ScoreEvent{
		PlayerID: player.ID,
		Nickname: player.Nickname,
	}
	if upload.CabSide != nil {
		event.CabSide = *upload.CabSide
	}
	if upload.Score != nil {
		if upload.Score.ScoreValue != nil {
			event.ScoreValue = *upload.Score.ScoreValue
		}
		if upload.Score.Passed != nil {
			event.Passed = *upload.Score.Passed
		}
	}
	if upload.Song != nil {
		if upload.Song.Title != nil {
			event.Title = *upload.Song.Title
		}
		if upload.Song.Artist != nil {
			event.Artist = *upload.Song.Artist
		}
	}
	return event
}
