// Package promptpipeline implements the gateway's three LLM-backed
// prompt operations: moderation, routing (combined moderation +
// instrumental/duration inference), and lyric generation. Ported from
// music_arena/chat/{moderate,route,lyrics}.py.
package promptpipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/domain/ports"
	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
)

// Pipeline drives moderation/routing/lyrics against a ports.ChatBackend.
type Pipeline struct {
	backend ports.ChatBackend
}

func New(backend ports.ChatBackend) *Pipeline {
	return &Pipeline{backend: backend}
}

type moderationResult struct {
	IsOkay        bool    `json:"is_okay"`
	Rationale     *string `json:"rationale"`
	ErrorMessage  *string `json:"error_message"`
}

// Moderate runs a moderation-only check, matching
// music_arena/chat/moderate.py's prompt_is_okay. It is exposed as a
// standalone operation (the original's moderate.py module is a separate
// public entry point from route.py) even though the battle flow below
// never calls it directly — Route performs its own inline moderation in
// the same chat call the original's route_prompt makes, exactly mirroring
// the original's design (see DESIGN.md).
func (p *Pipeline) Moderate(ctx context.Context, prompt model.SimplePrompt) error {
	text := moderatePrompt(prompt.Prompt)
	raw, err := p.backend.Complete(ctx, text, 64, true, nil)
	if err != nil {
		return pkgerrors.NewChatException("moderation chat call failed", err)
	}
	var result moderationResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		return pkgerrors.NewChatException("invalid JSON output from moderation", err)
	}
	if !result.IsOkay {
		rationale := ""
		if result.Rationale != nil {
			rationale = *result.Rationale
		}
		msg := ""
		if result.ErrorMessage != nil {
			msg = *result.ErrorMessage
		}
		return pkgerrors.NewPromptRejected(rationale, msg)
	}
	return nil
}

type routeResult struct {
	IsOkay       bool     `json:"is_okay"`
	Rationale    *string  `json:"rationale"`
	ErrorMessage *string  `json:"error_message"`
	Instrumental *bool    `json:"instrumental"`
	Duration     *float64 `json:"duration"`
}

// Route performs moderation and instrumental/duration inference in a
// single chat call, matching route_prompt's combined prompt template.
func (p *Pipeline) Route(ctx context.Context, prompt model.SimplePrompt, seed *int64) (model.DetailedPrompt, error) {
	text := routePrompt(prompt.Prompt)
	raw, err := p.backend.Complete(ctx, text, 64, true, seed)
	if err != nil {
		return model.DetailedPrompt{}, pkgerrors.NewChatException("routing chat call failed", err)
	}
	var result routeResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		return model.DetailedPrompt{}, pkgerrors.NewChatException("invalid JSON output from routing", err)
	}
	if !result.IsOkay {
		rationale := ""
		if result.Rationale != nil {
			rationale = *result.Rationale
		}
		msg := ""
		if result.ErrorMessage != nil {
			msg = *result.ErrorMessage
		}
		return model.DetailedPrompt{}, pkgerrors.NewPromptRejected(rationale, msg)
	}
	if result.Instrumental == nil {
		return model.DetailedPrompt{}, pkgerrors.NewChatException("routing response missing instrumental field", nil)
	}
	detailed, err := model.NewDetailedPrompt(prompt.Prompt, *result.Instrumental, nil, result.Duration, nil)
	if err != nil {
		return model.DetailedPrompt{}, pkgerrors.NewChatException(fmt.Sprintf("routed prompt failed validation: %v", err), err)
	}
	return detailed, nil
}

// GenerateLyrics writes lyrics for a routed, non-instrumental prompt that
// doesn't already have them. Callers must check prompt.GenerateLyrics()
// before invoking this, matching the battle generator's guard in the
// original (generate_lyrics was never unconditionally called).
func (p *Pipeline) GenerateLyrics(ctx context.Context, prompt model.DetailedPrompt, seed *int64) (string, error) {
	text := lyricsPrompt(prompt.OverallPrompt, prompt.Duration)
	raw, err := p.backend.Complete(ctx, text, 512, false, seed)
	if err != nil {
		return "", pkgerrors.NewChatException("lyrics chat call failed", err)
	}
	return strings.TrimSpace(raw), nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
