package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// CandidateSource produces candidate slugs. Injected so tests can drive the
// collision-retry loop with a fixed sequence.
type CandidateSource interface {
	Candidate(length int) string
}

type randomSource struct {
	alphabet []rune
	mutex    sync.Mutex
	rng      *rand.Rand
}

// NewRandomSource draws case-sensitive alphanumeric candidates, giving 62^n
// possible slugs of length n.
func NewRandomSource() CandidateSource {
	var alphabet []rune

	for c := '0'; c <= '9'; c++ {
		alphabet = append(alphabet, c)
	}
	for c := 'A'; c <= 'Z'; c++ {
		alphabet = append(alphabet, c)
	}
	for c := 'a'; c <= 'z'; c++ {
		alphabet = append(alphabet, c)
	}

	return &randomSource{
		alphabet: alphabet,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *randomSource) Candidate(length int) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var slug string
	for i := 0; i < length; i++ {
		random := s.rng.Intn(len(s.alphabet))
		slug += string(s.alphabet[random])
	}

	return slug
}

// SlugGenerator finds a free slug by probing candidates against the store.
// The probe is advisory - a racing writer can still claim a freshly-checked
// slug - so the conditional create downstream remains the final authority.
type SlugGenerator struct {
	source      CandidateSource
	length      int
	maxAttempts int
}

func NewSlugGenerator(source CandidateSource, length, maxAttempts int) *SlugGenerator {
	if length <= 0 {
		length = 7
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	return &SlugGenerator{
		source:      source,
		length:      length,
		maxAttempts: maxAttempts,
	}
}

func (g *SlugGenerator) Generate(ctx context.Context, taken func(ctx context.Context, slug string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate := g.source.Candidate(g.length)

		used, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}

	return "", ErrSlugSpaceExhausted
}
