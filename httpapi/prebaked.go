package httpapi

import (
	"encoding/json"
	"math/rand"
	"os"
	"sync"

	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/pkg/logger"
)

// prebakedStore loads and caches the static prebaked-prompt file,
// keyed by each prompt's checksum, matching gateway.py's
// _parse_prebaked_prompts (an absent file is a warning, not a failure).
type prebakedStore struct {
	path   string
	log    *logger.Logger
	once   sync.Once
	byHash map[string]model.DetailedPrompt
}

func newPrebakedStore(path string, log *logger.Logger) *prebakedStore {
	return &prebakedStore{path: path, log: log}
}

func (s *prebakedStore) load() map[string]model.DetailedPrompt {
	s.once.Do(func() {
		s.byHash = make(map[string]model.DetailedPrompt)
		if s.path == "" {
			return
		}
		raw, err := os.ReadFile(s.path)
		if err != nil {
			s.log.Warn("prebaked prompt file not found, returning empty prebaked prompts")
			return
		}
		var prompts []model.DetailedPrompt
		if err := json.Unmarshal(raw, &prompts); err != nil {
			s.log.Warn("prebaked prompt file is not valid JSON, returning empty prebaked prompts")
			return
		}
		for _, p := range prompts {
			s.byHash[p.Checksum()] = p
		}
	})
	return s.byHash
}

// Map returns the checksum->prompt mapping, loaded once on first call.
func (s *prebakedStore) Map() map[string]model.DetailedPrompt {
	return s.load()
}

// IsPrebaked reports whether checksum belongs to a known prebaked
// prompt, used to choose the "prebaked"/"original" audio key prefix.
func (s *prebakedStore) IsPrebaked(checksum string) bool {
	_, ok := s.load()[checksum]
	return ok
}

// Random returns a randomly chosen prebaked prompt for /health_check's
// synthetic battle, using rng (injected for deterministic tests). ok is
// false when no prebaked prompts are loaded.
func (s *prebakedStore) Random(rng *rand.Rand) (model.DetailedPrompt, bool) {
	m := s.load()
	if len(m) == 0 {
		return model.DetailedPrompt{}, false
	}
	prompts := make([]model.DetailedPrompt, 0, len(m))
	for _, p := range m {
		prompts = append(prompts, p)
	}
	return prompts[rng.Intn(len(prompts))], true
}
