package pairsampler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/Skryldev/battlegw/domain/model"
)

func keys(t *testing.T) (a, b, c model.SystemKey) {
	t.Helper()
	a, _ = model.NewSystemKey("sys", "a")
	b, _ = model.NewSystemKey("sys", "b")
	c, _ = model.NewSystemKey("sys", "c")
	return
}

func TestNewSamplerRejectsTooFewSystems(t *testing.T) {
	a, _, _ := keys(t)
	systems := map[model.SystemKey]model.SystemMetadata{a: {Key: a}}
	if _, err := NewSampler(systems, map[PairKey]float64{{a, a}: 1}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for fewer than 2 systems")
	}
}

func TestNewSamplerRejectsSelfPair(t *testing.T) {
	a, b, _ := keys(t)
	systems := map[model.SystemKey]model.SystemMetadata{a: {Key: a}, b: {Key: b}}
	if _, err := NewSampler(systems, map[PairKey]float64{{a, a}: 1}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for self-pairing")
	}
}

func TestNewSamplerRejectsNonPositiveWeight(t *testing.T) {
	a, b, _ := keys(t)
	systems := map[model.SystemKey]model.SystemMetadata{a: {Key: a}, b: {Key: b}}
	if _, err := NewSampler(systems, map[PairKey]float64{{a, b}: 0}, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for zero weight")
	}
}

func TestSampleInstrumentalRequiresAtMostOneLyricSystem(t *testing.T) {
	a, b, c := keys(t)
	systems := map[model.SystemKey]model.SystemMetadata{
		a: {Key: a, SupportsLyrics: true},
		b: {Key: b, SupportsLyrics: true},
		c: {Key: c, SupportsLyrics: false},
	}
	weights := map[PairKey]float64{
		{a, b}: 1, // both support lyrics: ineligible for instrumental
		{a, c}: 1, // only one supports lyrics: eligible
	}
	sampler, err := NewSampler(systems, weights, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	prompt, _ := model.NewDetailedPrompt("x", true, nil, nil, nil)
	for i := 0; i < 50; i++ {
		got1, got2, err := sampler.Sample(context.Background(), prompt)
		if err != nil {
			t.Fatal(err)
		}
		pair := map[model.SystemKey]bool{got1: true, got2: true}
		if pair[a] && pair[b] {
			t.Fatalf("instrumental prompt must not pair two lyric-supporting systems, got %v/%v", got1, got2)
		}
	}
}

func TestSampleVocalRequiresBothSupportLyrics(t *testing.T) {
	a, b, c := keys(t)
	systems := map[model.SystemKey]model.SystemMetadata{
		a: {Key: a, SupportsLyrics: true},
		b: {Key: b, SupportsLyrics: true},
		c: {Key: c, SupportsLyrics: false},
	}
	weights := map[PairKey]float64{
		{a, b}: 1,
		{a, c}: 1,
	}
	sampler, err := NewSampler(systems, weights, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	prompt, _ := model.NewDetailedPrompt("x", false, nil, nil, nil)
	for i := 0; i < 50; i++ {
		got1, got2, err := sampler.Sample(context.Background(), prompt)
		if err != nil {
			t.Fatal(err)
		}
		pair := map[model.SystemKey]bool{got1: true, got2: true}
		if !(pair[a] && pair[b]) {
			t.Fatalf("vocal prompt must only pair two lyric-supporting systems, got %v/%v", got1, got2)
		}
	}
}

func TestSampleReturnsNoEligiblePairError(t *testing.T) {
	a, b, _ := keys(t)
	systems := map[model.SystemKey]model.SystemMetadata{
		a: {Key: a, SupportsLyrics: false},
		b: {Key: b, SupportsLyrics: false},
	}
	weights := map[PairKey]float64{{a, b}: 1}
	sampler, err := NewSampler(systems, weights, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	prompt, _ := model.NewDetailedPrompt("x", false, nil, nil, nil)
	if _, _, err := sampler.Sample(context.Background(), prompt); err == nil {
		t.Fatal("expected NoEligiblePair error when no pair satisfies both-support-lyrics")
	}
}
