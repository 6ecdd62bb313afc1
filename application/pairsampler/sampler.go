// Package pairsampler draws a weighted, eligibility-filtered, randomly
// ordered pair of systems for a battle. Ported from the original
// gateway's BattleGenerator.sample_pair.
package pairsampler

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Skryldev/battlegw/domain/model"
	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
)

// PairKey identifies a weighted system pair; A and B are stored in
// whatever order NewSampler received them ({A,B} and {B,A} are distinct
// map keys), and Sample always returns a (possibly swapped) ordering
// independent of this storage order.
type PairKey struct {
	A, B model.SystemKey
}

// Sampler implements ports.PairSampler.
type Sampler struct {
	systems map[model.SystemKey]model.SystemMetadata
	weights map[PairKey]float64
	rng     *rand.Rand
}

// NewSampler validates and normalizes systems/weights exactly as
// BattleGenerator.__init__ does: at least 2 systems, positive weights,
// every weighted pair's systems present in systems, and no system paired
// with itself. rng is injected for deterministic tests; pass
// rand.New(rand.NewSource(time.Now().UnixNano())) in production.
func NewSampler(systems map[model.SystemKey]model.SystemMetadata, weights map[PairKey]float64, rng *rand.Rand) (*Sampler, error) {
	if len(systems) < 2 {
		return nil, fmt.Errorf("pairsampler: at least 2 systems are required")
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("pairsampler: no weights specified")
	}
	var total float64
	for pair, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("pairsampler: weights must be positive")
		}
		if _, ok := systems[pair.A]; !ok {
			return nil, fmt.Errorf("pairsampler: system %s not found", pair.A)
		}
		if _, ok := systems[pair.B]; !ok {
			return nil, fmt.Errorf("pairsampler: system %s not found", pair.B)
		}
		if pair.A == pair.B {
			return nil, fmt.Errorf("pairsampler: system cannot battle itself")
		}
		total += w
	}
	normalized := make(map[PairKey]float64, len(weights))
	for pair, w := range weights {
		normalized[pair] = w / total
	}
	return &Sampler{systems: systems, weights: normalized, rng: rng}, nil
}

// Sample draws one eligible pair and returns it in a randomly shuffled
// order, matching BattleGenerator.sample_pair. Eligibility: for an
// instrumental prompt, at most one system in the pair may support
// lyrics; for a vocal prompt, both systems must support lyrics.
func (s *Sampler) Sample(_ context.Context, prompt model.DetailedPrompt) (model.SystemKey, model.SystemKey, error) {
	type candidate struct {
		pair   PairKey
		weight float64
	}
	var candidates []candidate
	for pair, weight := range s.weights {
		a := s.systems[pair.A]
		b := s.systems[pair.B]
		lyricsCount := 0
		if a.SupportsLyrics {
			lyricsCount++
		}
		if b.SupportsLyrics {
			lyricsCount++
		}
		eligible := false
		if prompt.Instrumental {
			eligible = lyricsCount <= 1
		} else {
			eligible = lyricsCount == 2
		}
		if eligible {
			candidates = append(candidates, candidate{pair, weight})
		}
	}
	if len(candidates) == 0 {
		return model.SystemKey{}, model.SystemKey{}, pkgerrors.NewNoEligiblePair("no system pairs available for this prompt's lyric requirements")
	}

	var totalWeight float64
	for _, c := range candidates {
		totalWeight += c.weight
	}
	r := s.rng.Float64() * totalWeight
	var chosen candidate
	for _, c := range candidates {
		r -= c.weight
		if r <= 0 {
			chosen = c
			break
		}
		chosen = c // guards against float rounding leaving r slightly positive
	}

	a, b := chosen.pair.A, chosen.pair.B
	if s.rng.Intn(2) == 1 {
		a, b = b, a
	}
	return a, b, nil
}
