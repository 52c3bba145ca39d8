package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
)

// WSHandler runs one QuizSession per websocket connection. Nothing outlives
// the connection except in-flight stats updates.
type WSHandler struct {
	questions app.QuestionSource
	players   app.PlayerStore
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

func NewWSHandler(questions app.QuestionSource, players app.PlayerStore, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		questions: questions,
		players:   players,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type setupPlayerPayload struct {
	Name string `json:"name"`
}

type answerPayload struct {
	Choice string `json:"choice"`
}

type leaderboardPayload struct {
	Limit int `json:"limit"`
}

type rankPayload struct {
	Rank *int `json:"rank"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a quiz session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	session := app.NewQuizSession(h.questions, h.players, logger)
	defer session.Wait()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", zap.Error(err))
				cancel()
				// Keep draining so producers never block on a dead connection.
				for range send {
				}
				return
			}
		}
	}()

	// emit never blocks once the connection is going away.
	emit := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-ctx.Done():
		}
	}
	emitError := func(err error) {
		emit("error", errorPayload{Message: err.Error()})
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case state, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: state}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Commands that wait on the network run concurrently with the read loop
	// so a cancel can overtake a slow question fetch.
	var inflight sync.WaitGroup
	async := func(fn func() error) {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			if err := fn(); err != nil {
				emitError(err)
			}
		}()
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "setupPlayer":
			var payload setupPlayerPayload
			if !decodePayload(inbound.Payload, &payload) {
				emitError(errInvalidPayload)
				continue
			}
			async(func() error { return session.SetupPlayer(ctx, payload.Name) })
		case "updateSettings":
			var settings domain.QuizSettings
			if !decodePayload(inbound.Payload, &settings) {
				emitError(errInvalidPayload)
				continue
			}
			session.UpdateSettings(settings)
		case "startQuiz":
			var settings domain.QuizSettings
			if !decodePayload(inbound.Payload, &settings) {
				emitError(errInvalidPayload)
				continue
			}
			async(func() error { return session.StartQuiz(ctx, settings) })
		case "answer":
			var payload answerPayload
			if !decodePayload(inbound.Payload, &payload) {
				emitError(errInvalidPayload)
				continue
			}
			if err := session.AnswerQuestion(payload.Choice); err != nil {
				emitError(err)
			}
		case "next":
			if err := session.NextQuestion(ctx); err != nil {
				emitError(err)
			}
		case "cancel":
			if err := session.CancelQuiz(); err != nil {
				emitError(err)
			}
		case "reset":
			session.ResetQuiz()
		case "goToPlayerSetup":
			session.GoToPlayerSetup()
		case "goToLeaderboard":
			if err := session.GoToLeaderboard(); err != nil {
				emitError(err)
			}
		case "goToQuizSettings":
			if err := session.GoToQuizSettings(); err != nil {
				emitError(err)
			}
		case "leaderboard":
			var payload leaderboardPayload
			if !decodePayload(inbound.Payload, &payload) {
				emitError(errInvalidPayload)
				continue
			}
			async(func() error {
				players, err := session.Leaderboard(ctx, payload.Limit)
				if err != nil {
					logger.Error("leaderboard", zap.Error(err))
					return errLeaderboardUnavailable
				}
				emit("leaderboard", players)
				return nil
			})
		case "rank":
			async(func() error {
				rank, ok, err := session.PlayerRank(ctx)
				if err != nil {
					logger.Error("player rank", zap.Error(err))
					return errRankUnavailable
				}
				out := rankPayload{}
				if ok {
					out.Rank = &rank
				}
				emit("rank", out)
				return nil
			})
		default:
			emitError(errUnsupportedMessage)
		}
	}

	cancel()
	inflight.Wait()
	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// decodePayload accepts a missing payload as the zero value.
func decodePayload(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	return json.Unmarshal(raw, v) == nil
}

type wsError string

func (e wsError) Error() string { return string(e) }

const (
	errInvalidPayload         wsError = "invalid payload"
	errUnsupportedMessage     wsError = "unsupported message type"
	errLeaderboardUnavailable wsError = "Failed to fetch leaderboard"
	errRankUnavailable        wsError = "Failed to fetch player rank"
)
