package trivia

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"knowledge-quiz/internal/domain"
)

// DefaultBaseURL is the public Open Trivia DB endpoint.
const DefaultBaseURL = "https://opentdb.com/api.php"

type apiResponse struct {
	ResponseCode int                  `json:"response_code"`
	Results      []domain.RawQuestion `json:"results"`
}

// Client fetches question batches from Open Trivia DB. It keeps no state
// between calls and is safe for concurrent use.
type Client struct {
	baseURL    string
	http       *resty.Client
	normalizer *Normalizer
	logger     *zap.Logger
	timeout    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = resty.NewWithClient(hc) }
}

// WithTimeout bounds each request. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithNormalizer(n *Normalizer) Option {
	return func(c *Client) { c.normalizer = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		http:       resty.New(),
		normalizer: NewNormalizer(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		c.http.SetTimeout(c.timeout)
	}
	return c
}

// FetchQuestions requests one batch of multiple-choice questions matching
// settings. When a specific difficulty has too few questions it retries once
// with the difficulty dropped.
func (c *Client) FetchQuestions(ctx context.Context, settings domain.QuizSettings) ([]domain.ProcessedQuestion, error) {
	settings = settings.Normalized()

	payload, err := c.fetch(ctx, settings)
	if err != nil {
		return nil, err
	}

	if insufficient(payload) && settings.HasDifficulty() {
		c.logger.Info("not enough questions, retrying with any difficulty",
			zap.String("category", settings.Category),
			zap.String("difficulty", settings.Difficulty),
		)
		relaxed := settings
		relaxed.Difficulty = domain.AnySetting
		payload, err = c.fetch(ctx, relaxed)
		if err != nil {
			return nil, err
		}
		if insufficient(payload) {
			return nil, &APIError{Code: CodeNoResults, Category: settings.Category, Difficulty: settings.Difficulty}
		}
	}

	if insufficient(payload) {
		return nil, &APIError{Code: CodeNoResults, Category: settings.Category}
	}
	if payload.ResponseCode != CodeSuccess {
		return nil, &APIError{Code: payload.ResponseCode, Category: settings.Category}
	}

	return c.normalizer.Normalize(payload.Results, 0), nil
}

func (c *Client) fetch(ctx context.Context, settings domain.QuizSettings) (apiResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(QueryParams(settings)).
		SetResult(&apiResponse{}).
		ForceContentType("application/json").
		Get(c.baseURL)
	if err != nil {
		// A 2xx response with an error means the body did not decode.
		if resp != nil && resp.IsSuccess() {
			return apiResponse{}, fmt.Errorf("decode trivia response: %w", err)
		}
		return apiResponse{}, err
	}
	if !resp.IsSuccess() {
		return apiResponse{}, &HTTPError{StatusCode: resp.StatusCode()}
	}
	return *resp.Result().(*apiResponse), nil
}

// QueryParams builds the request parameters for settings. Category and
// difficulty are omitted when set to "any".
func QueryParams(settings domain.QuizSettings) map[string]string {
	params := map[string]string{
		"amount": strconv.Itoa(domain.QuestionsPerQuiz),
		"type":   "multiple",
	}
	if settings.HasCategory() {
		params["category"] = settings.Category
	}
	if settings.HasDifficulty() {
		params["difficulty"] = settings.Difficulty
	}
	return params
}

// insufficient treats an empty successful batch like response_code 1.
func insufficient(payload apiResponse) bool {
	if payload.ResponseCode == CodeNoResults {
		return true
	}
	return payload.ResponseCode == CodeSuccess && len(payload.Results) == 0
}
