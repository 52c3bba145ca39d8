package trivia

import (
	"errors"
	"fmt"
	"strings"
)

// Open Trivia DB response codes.
const (
	CodeSuccess          = 0
	CodeNoResults        = 1
	CodeInvalidParameter = 2
	CodeTokenNotFound    = 3
	CodeTokenEmpty       = 4
)

var (
	ErrInsufficientResults = errors.New("not enough questions available")
	ErrInvalidParameters   = errors.New("invalid parameters")
	ErrTokenNotFound       = errors.New("session token not found")
	ErrTokenEmpty          = errors.New("session token exhausted")
	ErrUnexpectedCode      = errors.New("unexpected response code")
)

// APIError is a non-zero response_code translated into guidance for the
// player.
type APIError struct {
	Code       int
	Category   string
	Difficulty string
}

func (e *APIError) Error() string {
	switch e.Code {
	case CodeNoResults:
		if e.Difficulty != "" {
			return fmt.Sprintf(
				"Not enough %s questions available for %s. Try selecting a different difficulty level or category.",
				strings.ToLower(e.Difficulty), CategoryName(e.Category),
			)
		}
		return fmt.Sprintf(
			"Not enough questions available for %s. Try selecting a different category.",
			CategoryName(e.Category),
		)
	case CodeInvalidParameter:
		return "Invalid parameters provided to the quiz API."
	case CodeTokenNotFound:
		return "Session token not found."
	case CodeTokenEmpty:
		return "Session token has returned all possible questions."
	default:
		return fmt.Sprintf("API returned error code %d", e.Code)
	}
}

// Is lets callers match an APIError against the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInsufficientResults:
		return e.Code == CodeNoResults
	case ErrInvalidParameters:
		return e.Code == CodeInvalidParameter
	case ErrTokenNotFound:
		return e.Code == CodeTokenNotFound
	case ErrTokenEmpty:
		return e.Code == CodeTokenEmpty
	case ErrUnexpectedCode:
		return e.Code > CodeTokenEmpty || e.Code < CodeSuccess
	}
	return false
}

// HTTPError reports a non-2xx answer from the trivia API.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}
