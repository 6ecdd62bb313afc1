package model

import "fmt"

// SimplePrompt is the free-text prompt a user submits before routing.
type SimplePrompt struct {
	Prompt string `json:"prompt"`
}

// NewSimplePrompt mirrors SimpleTextToMusicPrompt.from_text.
func NewSimplePrompt(text string) SimplePrompt {
	return SimplePrompt{Prompt: text}
}

// Checksum hashes the JSON object {"prompt": ...} (included even when
// empty), matching BasePrompt.checksum.
func (p SimplePrompt) Checksum() string {
	return checksumFields([]jsonField{jsonStringField("prompt", p.Prompt)})
}

// DetailedPrompt is the routed, generation-ready prompt: either produced
// by the prompt pipeline's Route step or supplied directly by a caller
// that wants to bypass routing.
type DetailedPrompt struct {
	OverallPrompt string   `json:"overall_prompt"`
	Instrumental  bool     `json:"instrumental"`
	Lyrics        *string  `json:"lyrics,omitempty"`
	Duration      *float64 `json:"duration,omitempty"`
	BPM           *float64 `json:"bpm,omitempty"`
}

// NewDetailedPrompt validates the instrumental/lyrics invariant ported
// from DetailedTextToMusicPrompt.__post_init__.
func NewDetailedPrompt(overallPrompt string, instrumental bool, lyrics *string, duration, bpm *float64) (DetailedPrompt, error) {
	if instrumental && lyrics != nil {
		return DetailedPrompt{}, fmt.Errorf("lyrics must be nil for instrumental music")
	}
	return DetailedPrompt{
		OverallPrompt: overallPrompt,
		Instrumental:  instrumental,
		Lyrics:        lyrics,
		Duration:      duration,
		BPM:           bpm,
	}, nil
}

// GenerateLyrics reports whether the prompt pipeline still needs to write
// lyrics for this prompt before generation.
func (p DetailedPrompt) GenerateLyrics() bool {
	return !p.Instrumental && p.Lyrics == nil
}

// Checksum hashes the non-nil JSON fields, matching BasePrompt.checksum.
// Field set and float formatting are chosen to reproduce the original
// implementation's checksums byte-for-byte (see domain/model/prompt_test.go
// for the canonical test vectors).
func (p DetailedPrompt) Checksum() string {
	fields := []jsonField{
		jsonStringField("overall_prompt", p.OverallPrompt),
		jsonBoolField("instrumental", p.Instrumental),
	}
	if p.Lyrics != nil {
		fields = append(fields, jsonStringField("lyrics", *p.Lyrics))
	}
	if p.Duration != nil {
		fields = append(fields, jsonFloatField("duration", *p.Duration))
	}
	if p.BPM != nil {
		fields = append(fields, jsonFloatField("bpm", *p.BPM))
	}
	return checksumFields(fields)
}

func floatPtr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
