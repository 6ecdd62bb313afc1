// Package battlegen orchestrates one battle from a submitted prompt to
// two anonymized system responses. Ported from
// BattleGenerator.generate_battle in the original gateway.
package battlegen

import (
	"context"
	"fmt"

	"github.com/Skryldev/battlegw/application/promptpipeline"
	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/domain/ports"
	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
	"github.com/Skryldev/battlegw/pkg/timeline"
)

// GenerateBattleRequest carries everything needed to start one battle.
// At least one of Prompt/PromptDetailed must be non-nil: a SimplePrompt
// alone routes through the chat backend, while a DetailedPrompt bypasses
// routing entirely (the degraded path — see DESIGN.md) and is used as-is
// when both are set.
type GenerateBattleRequest struct {
	Prompt         *model.SimplePrompt
	PromptDetailed *model.DetailedPrompt
	User           model.User
	Session        model.Session
	BattleUUID     string
	PromptPrebaked bool
}

// SystemURLs resolves a worker URL for a system key, letting the
// generator stay storage/transport agnostic — its only knowledge of
// "where" a system lives comes through this lookup.
type SystemURLs interface {
	URLFor(key model.SystemKey) (string, error)
}

// Generator wires the prompt pipeline, pair sampler, and worker client
// into the full battle-generation protocol.
type Generator struct {
	pipeline   *promptpipeline.Pipeline
	sampler    ports.PairSampler
	worker     ports.Worker
	urls       SystemURLs
	numRetries int
}

func New(pipeline *promptpipeline.Pipeline, sampler ports.PairSampler, worker ports.Worker, urls SystemURLs, numRetries int) *Generator {
	return &Generator{pipeline: pipeline, sampler: sampler, worker: worker, urls: urls, numRetries: numRetries}
}

type generateOutcome struct {
	side  string
	audio []byte
	meta  model.ResponseMetadata
	err   error
}

// GenerateBattle runs the full protocol: parse, route (or skip routing
// when a DetailedPrompt was supplied directly), sample a pair, fan out
// both worker calls in parallel, and assemble the resulting Battle. No
// partial Battle is ever returned: the first worker error cancels the
// other in-flight call and is the sole error returned.
func (g *Generator) GenerateBattle(ctx context.Context, req GenerateBattleRequest) (*model.Battle, []byte, []byte, error) {
	rec := timeline.NewLog()
	rec.Record("parse")

	if req.Prompt == nil && req.PromptDetailed == nil {
		return nil, nil, nil, pkgerrors.NewInvalidRequest("prompt", "one of prompt or prompt_detailed must be set")
	}

	rec.Record("generate")

	detailed := req.PromptDetailed
	routed := false
	if detailed == nil {
		routedPrompt, err := g.pipeline.Route(ctx, *req.Prompt, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		detailed = &routedPrompt
		routed = true
	}

	if detailed.GenerateLyrics() {
		lyrics, err := g.pipeline.GenerateLyrics(ctx, *detailed, nil)
		if err != nil {
			return nil, nil, nil, err
		}
		withLyrics, err := model.NewDetailedPrompt(detailed.OverallPrompt, detailed.Instrumental, &lyrics, detailed.Duration, detailed.BPM)
		if err != nil {
			return nil, nil, nil, err
		}
		detailed = &withLyrics
	}

	rec.Record("sample_pair")
	systemA, systemB, err := g.sampler.Sample(ctx, *detailed)
	if err != nil {
		return nil, nil, nil, err
	}

	urlA, err := g.urls.URLFor(systemA)
	if err != nil {
		return nil, nil, nil, pkgerrors.NewWorkerUnavailable(systemA.String(), "no URL configured for system", err)
	}
	urlB, err := g.urls.URLFor(systemB)
	if err != nil {
		return nil, nil, nil, pkgerrors.NewWorkerUnavailable(systemB.String(), "no URL configured for system", err)
	}

	rec.Record("generate_parallel_start")
	aAudio, bAudio, aMeta, bMeta, err := g.generateParallel(ctx, systemA, urlA, systemB, urlB, *detailed, rec)
	if err != nil {
		return nil, nil, nil, err
	}
	rec.Record("generate_parallel_end")

	rec.Record("create_battle_obj")
	battleUUID := req.BattleUUID
	if battleUUID == "" {
		battleUUID = model.NewBattleUUID()
	}
	battle := &model.Battle{
		UUID:           battleUUID,
		Prompt:         req.Prompt,
		PromptDetailed: detailed,
		PromptUser:     &req.User,
		PromptSession:  &req.Session,
		PromptPrebaked: req.PromptPrebaked,
		PromptRouted:   routed,
		AMetadata:      &aMeta,
		BMetadata:      &bMeta,
		Timings:        toTimings(rec.Events()),
	}
	battle.SortTimings()
	return battle, aAudio, bAudio, nil
}

// generateParallel launches both worker calls as goroutines, cancelling
// the shared context on the first error so the losing call stops as
// soon as possible. Slot assignment (A vs B) is fixed by the caller's
// ordering, independent of which goroutine finishes first.
func (g *Generator) generateParallel(ctx context.Context, systemA model.SystemKey, urlA string, systemB model.SystemKey, urlB string, prompt model.DetailedPrompt, rec *timeline.Log) ([]byte, []byte, model.ResponseMetadata, model.ResponseMetadata, error) {
	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan generateOutcome, 2)

	launch := func(side string, key model.SystemKey, url string) {
		audio, meta, err := g.worker.Generate(genCtx, key, url, prompt, g.numRetries, rec)
		results <- generateOutcome{side: side, audio: audio, meta: meta, err: err}
	}

	go launch("a", systemA, urlA)
	go launch("b", systemB, urlB)

	var aAudio, bAudio []byte
	var aMeta, bMeta model.ResponseMetadata
	var firstErr error

	for i := 0; i < 2; i++ {
		outcome := <-results
		if outcome.err != nil {
			if firstErr == nil {
				firstErr = outcome.err
				cancel()
			}
			continue
		}
		switch outcome.side {
		case "a":
			aAudio, aMeta = outcome.audio, outcome.meta
		case "b":
			bAudio, bMeta = outcome.audio, outcome.meta
		}
	}

	if firstErr != nil {
		return nil, nil, model.ResponseMetadata{}, model.ResponseMetadata{}, firstErr
	}
	return aAudio, bAudio, aMeta, bMeta, nil
}

// staticSystemURLs is the simplest SystemURLs implementation: a fixed
// map, suitable for cmd/battlegw's --systems-base-url flag deriving one
// URL per configured system.
type staticSystemURLs struct {
	urls map[model.SystemKey]string
}

func NewStaticSystemURLs(urls map[model.SystemKey]string) SystemURLs {
	return &staticSystemURLs{urls: urls}
}

func (s *staticSystemURLs) URLFor(key model.SystemKey) (string, error) {
	url, ok := s.urls[key]
	if !ok {
		return "", fmt.Errorf("no worker URL configured for system %s", key)
	}
	return url, nil
}

// toTimings converts the timeline's internal event log into the battle
// model's wire-shaped timing events.
func toTimings(events []timeline.Event) []model.TimingEvent {
	out := make([]model.TimingEvent, len(events))
	for i, e := range events {
		out[i] = model.TimingEvent{Label: e.Label, Timestamp: e.Timestamp}
	}
	return out
}
