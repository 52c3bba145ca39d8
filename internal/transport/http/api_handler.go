package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
	"knowledge-quiz/internal/trivia"
)

type APIHandler struct {
	players   app.PlayerStore
	questions app.QuestionSource
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewAPIHandler(players app.PlayerStore, questions app.QuestionSource, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		players:   players,
		questions: questions,
		validate:  validator.New(),
		logger:    logger,
	}
}

type createPlayerRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type updatePlayerRequest struct {
	PlayerID     string `json:"playerId" validate:"required"`
	Score        int    `json:"score" validate:"gte=0"`
	TotalAnswers int    `json:"totalAnswers" validate:"gte=0,gtefield=Score"`
}

type categoriesResponse struct {
	Categories   []domain.CategoryOption   `json:"categories"`
	Difficulties []domain.DifficultyOption `json:"difficulties"`
}

type rankResponse struct {
	Rank int `json:"rank"`
}

func (h *APIHandler) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Categories:   trivia.Categories(),
		Difficulties: trivia.Difficulties(),
	})
}

func (h *APIHandler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	settings := domain.QuizSettings{
		Category:   r.URL.Query().Get("category"),
		Difficulty: r.URL.Query().Get("difficulty"),
	}.Normalized()

	questions, err := h.questions.FetchQuestions(r.Context(), settings)
	if err != nil {
		var apiErr *trivia.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusUnprocessableEntity, apiErr.Error())
			return
		}
		h.logger.Error("fetch questions", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Failed to fetch questions")
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *APIHandler) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	player, err := h.players.CreateOrUpdatePlayer(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPlayerName) {
			writeError(w, http.StatusBadRequest, "Name is required")
			return
		}
		h.logger.Error("create player", zap.String("name", req.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create player")
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *APIHandler) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req updatePlayerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Player ID, score, and total answers are required")
		return
	}

	player, err := h.players.UpdatePlayerStats(r.Context(), req.PlayerID, req.Score, req.TotalAnswers)
	if err != nil {
		if errors.Is(err, domain.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, "Player not found")
			return
		}
		h.logger.Error("update player stats", zap.String("player_id", req.PlayerID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update player stats")
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *APIHandler) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != "leaderboard" {
		writeError(w, http.StatusBadRequest, "Invalid action")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	players, err := h.players.GetLeaderboard(r.Context(), limit)
	if err != nil {
		h.logger.Error("leaderboard", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, players)
}

func (h *APIHandler) handlePlayerRank(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rank, ok, err := h.players.GetPlayerRank(r.Context(), id)
	if err != nil {
		h.logger.Error("player rank", zap.String("player_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch player rank")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Player not found")
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{Rank: rank})
}
