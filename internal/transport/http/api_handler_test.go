package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-quiz/internal/domain"
	"knowledge-quiz/internal/infra/memory"
	"knowledge-quiz/internal/trivia"
)

func newAPI(t *testing.T, questions *stubQuestions) (http.Handler, *memory.PlayerStore) {
	t.Helper()
	players := memory.NewPlayerStore()
	return NewRouter(Deps{Players: players, Questions: questions}), players
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthz(t *testing.T) {
	h, _ := newAPI(t, &stubQuestions{})
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCreatePlayer(t *testing.T) {
	h, _ := newAPI(t, &stubQuestions{})

	rec := do(t, h, http.MethodPost, "/api/players", `{"name":" Ann "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created domain.Player
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Ann", created.Name)
	assert.NotEmpty(t, created.ID)

	rec = do(t, h, http.MethodPost, "/api/players", `{"name":"Ann"}`)
	var again domain.Player
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, created.ID, again.ID)

	rec = do(t, h, http.MethodPost, "/api/players", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name is required", decodeError(t, rec))

	rec = do(t, h, http.MethodPost, "/api/players", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePlayer(t *testing.T) {
	h, players := newAPI(t, &stubQuestions{})
	ann, err := players.CreateOrUpdatePlayer(context.Background(), "Ann")
	require.NoError(t, err)

	rec := do(t, h, http.MethodPut, "/api/players", `{"playerId":"`+ann.ID+`","score":7,"totalAnswers":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Player
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 7, updated.Score)
	assert.Equal(t, 10, updated.TotalAnswers)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "missing id", body: `{"score":1,"totalAnswers":1}`, status: http.StatusBadRequest},
		{name: "negative score", body: `{"playerId":"x","score":-1,"totalAnswers":1}`, status: http.StatusBadRequest},
		{name: "more correct than answered", body: `{"playerId":"x","score":5,"totalAnswers":1}`, status: http.StatusBadRequest},
		{name: "unknown player", body: `{"playerId":"missing","score":1,"totalAnswers":1}`, status: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, "/api/players", tc.body)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestLeaderboardAndRank(t *testing.T) {
	h, players := newAPI(t, &stubQuestions{})
	ctx := context.Background()
	ann, _ := players.CreateOrUpdatePlayer(ctx, "Ann")
	bob, _ := players.CreateOrUpdatePlayer(ctx, "Bob")
	_, _ = players.UpdatePlayerStats(ctx, ann.ID, 3, 10)
	_, _ = players.UpdatePlayerStats(ctx, bob.ID, 9, 10)

	rec := do(t, h, http.MethodGet, "/api/players?action=leaderboard&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var board []domain.Player
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "Bob", board[0].Name)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/players", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/players?action=leaderboard&limit=abc", "").Code)

	rec = do(t, h, http.MethodGet, "/api/players/"+ann.ID+"/rank", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rank":2}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/players/missing/rank", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories(t *testing.T) {
	h, _ := newAPI(t, &stubQuestions{})
	rec := do(t, h, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body categoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "any", body.Categories[0].ID)
	assert.Len(t, body.Difficulties, 4)
}

func TestQuestions(t *testing.T) {
	stub := &stubQuestions{questions: sampleQuestions(), settings: make(chan domain.QuizSettings, 1)}
	h, _ := newAPI(t, stub)

	rec := do(t, h, http.MethodGet, "/api/questions?category=24", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.QuizSettings{Category: "24", Difficulty: "any"}, <-stub.settings)

	var questions []domain.ProcessedQuestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &questions))
	assert.Len(t, questions, 2)
}

func TestQuestionsErrors(t *testing.T) {
	apiErr := &trivia.APIError{Code: trivia.CodeNoResults, Category: "24", Difficulty: "easy"}
	h, _ := newAPI(t, &stubQuestions{err: apiErr})
	rec := do(t, h, http.MethodGet, "/api/questions?category=24&difficulty=easy", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec), "Politics")

	h, _ = newAPI(t, &stubQuestions{err: errors.New("dial tcp: connection refused")})
	rec = do(t, h, http.MethodGet, "/api/questions", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to fetch questions", decodeError(t, rec))
}
