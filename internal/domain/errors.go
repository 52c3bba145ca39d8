package domain

import "errors"

var (
	// ErrPlayerNotFound is returned when a player id is unknown to the store.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrInvalidPlayerName is returned when a player name is blank.
	ErrInvalidPlayerName = errors.New("player name is required")
	// ErrOptionNotFound indicates a submitted choice is not one of the options.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNoActiveQuestion is returned when answering outside an active quiz.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrAlreadyAnswered is returned when the current question already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidPhase is returned when an operation is not allowed in the current phase.
	ErrInvalidPhase = errors.New("operation not allowed in current phase")
)
