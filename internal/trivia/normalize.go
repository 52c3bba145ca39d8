package trivia

import (
	"html"
	"math/rand"
	"sync"
	"time"

	"knowledge-quiz/internal/domain"
)

// Normalizer turns raw API questions into display-ready ones. It is safe for
// concurrent use.
type Normalizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewNormalizer returns a Normalizer seeded from the clock.
func NewNormalizer() *Normalizer {
	return NewNormalizerWithSeed(time.Now().UnixNano())
}

// NewNormalizerWithSeed is useful for reproducible shuffles in tests.
func NewNormalizerWithSeed(seed int64) *Normalizer {
	return &Normalizer{rnd: rand.New(rand.NewSource(seed))}
}

// Normalize decodes and shuffles every question in raw. IDs start at base and
// follow the position in the batch.
func (n *Normalizer) Normalize(raw []domain.RawQuestion, base int) []domain.ProcessedQuestion {
	questions := make([]domain.ProcessedQuestion, 0, len(raw))
	for i, item := range raw {
		questions = append(questions, n.normalizeOne(item, base+i))
	}
	return questions
}

func (n *Normalizer) normalizeOne(raw domain.RawQuestion, id int) domain.ProcessedQuestion {
	correct := DecodeEntities(raw.CorrectAnswer)

	options := make([]string, 0, len(raw.IncorrectAnswers)+1)
	options = append(options, correct)
	for _, incorrect := range raw.IncorrectAnswers {
		options = append(options, DecodeEntities(incorrect))
	}
	n.shuffle(options)

	return domain.ProcessedQuestion{
		ID:            id,
		Question:      DecodeEntities(raw.Question),
		Options:       options,
		CorrectAnswer: correct,
		Category:      DecodeEntities(raw.Category),
		Difficulty:    raw.Difficulty,
	}
}

// shuffle is a Fisher-Yates permutation; rand.Shuffle walks from the end
// swapping with a uniformly chosen index in [0, i].
func (n *Normalizer) shuffle(options []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
}

// DecodeEntities converts HTML entities (named, decimal and hex) to text.
// Text without entities is returned unchanged.
func DecodeEntities(s string) string {
	return html.UnescapeString(s)
}
