package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/league-engine/internal/domain"
	"github.com/league-engine/internal/service"
	"github.com/league-engine/internal/websocket"
)

// Handler provides HTTP handlers for the league API
type Handler struct {
	service *service.LeagueService
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.LeagueService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/leagues", func(r chi.Router) {
			r.Post("/", h.CreateLeague)
			r.Get("/", h.ListLeagues)

			r.Route("/{leagueID}", func(r chi.Router) {
				r.Get("/", h.GetLeague)
				r.Get("/stats", h.GetLeagueStats)

				// Derived views
				r.Get("/leaderboard", h.GetLeaderboard)
				r.Get("/character-sheets", h.GetCharacterSheets)

				// Admin recalculation
				r.Post("/recalculate", h.Recalculate)

				// Game records
				r.Post("/games", h.RecordGame)
				r.Get("/games", h.GetRecentGames)

				// Roster
				r.Post("/players", h.AddPlayer)
				r.Get("/players", h.ListPlayers)
				r.Get("/players/{playerID}/rating", h.GetPlayerRating)

				// Scoring rules
				r.Post("/rules", h.CreateRule)
				r.Get("/rules", h.ListRules)
			})
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
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

// kindFilter parses the optional ?kind= query parameter. An empty value
// means "all kinds"; anything else must be a known game kind.
func kindFilter(r *http.Request) (domain.GameKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return "", nil
	}
	kind := domain.GameKind(raw)
	if !kind.Valid() {
		return "", domain.ErrInvalidGameKind
	}
	return kind, nil
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// CreateLeague handles league creation
func (h *Handler) CreateLeague(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	league, err := h.service.CreateLeague(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("failed to create league", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    league,
	})
}

// ListLeagues returns all leagues
func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.service.ListLeagues(r.Context())
	if err != nil {
		h.logger.Error("failed to list leagues", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, leagues)
}

// GetLeague returns a league by ID
func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	league, err := h.service.GetLeague(r.Context(), leagueID)
	if err != nil {
		if errors.Is(err, domain.ErrLeagueNotFound) {
			h.writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to get league", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, league)
}

// GetLeagueStats returns summary statistics for a league
func (h *Handler) GetLeagueStats(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	stats, err := h.service.GetLeagueStats(r.Context(), leagueID)
	if err != nil {
		h.logger.Error("failed to get league stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, stats)
}

// GetLeaderboard returns the ranked leaderboard for a league
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	kind, err := kindFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := h.service.ComputeLeaderboard(r.Context(), leagueID, kind, limit)
	if err != nil {
		h.logger.Error("failed to compute leaderboard", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, entries)
}

// GetCharacterSheets returns the derived stat blocks for a league
func (h *Handler) GetCharacterSheets(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	kind, err := kindFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	sheets, err := h.service.ComputeCharacterSheets(r.Context(), leagueID, kind)
	if err != nil {
		h.logger.Error("failed to compute character sheets", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, sheets)
}

// Recalculate re-runs the rule evaluator over a league's stored games
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, err := h.service.RecalculatePoints(r.Context(), leagueID)
	if err != nil {
		h.logger.Error("failed to recalculate points", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, result)
}

// RecordGame handles game submission
func (h *Handler) RecordGame(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var submission domain.GameSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	submission.LeagueID = leagueID

	game, err := h.service.RecordGame(r.Context(), submission)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidGame), errors.Is(err, domain.ErrInvalidGameKind):
			h.writeError(w, http.StatusBadRequest, err)
		case domain.IsNotFoundError(err):
			h.writeError(w, http.StatusNotFound, err)
		default:
			h.logger.Error("failed to record game", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    game,
	})
}

// GetRecentGames returns a league's most recent games
func (h *Handler) GetRecentGames(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	games, err := h.service.ListRecentGames(r.Context(), leagueID, limit)
	if err != nil {
		h.logger.Error("failed to list recent games", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, games)
}

// AddPlayer adds a player to a league roster
func (h *Handler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	player, err := h.service.AddPlayer(r.Context(), leagueID, req.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			h.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, domain.ErrLeagueNotFound):
			h.writeError(w, http.StatusNotFound, err)
		default:
			h.logger.Error("failed to add player", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    player,
	})
}

// ListPlayers returns a league's roster
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	players, err := h.service.ListPlayers(r.Context(), leagueID)
	if err != nil {
		h.logger.Error("failed to list players", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, players)
}

// GetPlayerRating returns a player's rating and form summary
func (h *Handler) GetPlayerRating(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	playerID := chi.URLParam(r, "playerID")
	if leagueID == "" || playerID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	kind, err := kindFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	rating, err := h.service.GetPlayerRating(r.Context(), leagueID, playerID, kind)
	if err != nil {
		h.logger.Error("failed to get player rating", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, rating)
}

// CreateRule adds a scoring rule to a league
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req domain.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	rule, err := h.service.CreateRule(r.Context(), leagueID, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidGameKind):
			h.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, domain.ErrLeagueNotFound):
			h.writeError(w, http.StatusNotFound, err)
		case errors.Is(err, domain.ErrRuleExists):
			h.writeError(w, http.StatusConflict, err)
		default:
			h.logger.Error("failed to create rule", "error", err)
			h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    rule,
	})
}

// ListRules returns a league's scoring rules
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "leagueID")
	if leagueID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	rules, err := h.service.ListRules(r.Context(), leagueID)
	if err != nil {
		h.logger.Error("failed to list rules", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}

	h.writeSuccess(w, rules)
}
