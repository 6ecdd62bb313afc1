package model

import (
	"sort"

	"github.com/google/uuid"
)

// TimingEvent is one entry in a battle's append-only timeline, e.g.
// ("sample_pair", 1700000000.123). Ported from arena.py's
// timings: list[tuple[str, float]].
type TimingEvent struct {
	Label     string  `json:"label"`
	Timestamp float64 `json:"timestamp"`
}

func (t TimingEvent) MarshalJSON() ([]byte, error) { return marshalPair(t.Label, t.Timestamp) }

func (t *TimingEvent) UnmarshalJSON(b []byte) error {
	label, ts, err := unmarshalPair(b)
	if err != nil {
		return err
	}
	t.Label, t.Timestamp = label, ts
	return nil
}

// Battle is the gateway's central aggregate: one prompt, two anonymized
// system responses, and (eventually) a vote; a later vote replaces an
// earlier one.
// Ported field-for-field from arena.py's Battle; GatewayVersion replaces
// the original's gateway_git_hash per spec.md's public naming.
type Battle struct {
	UUID           string           `json:"uuid"`
	GatewayVersion *string          `json:"gateway_version,omitempty"`
	Prompt         *SimplePrompt    `json:"prompt,omitempty"`
	PromptDetailed *DetailedPrompt  `json:"prompt_detailed,omitempty"`
	PromptUser     *User            `json:"prompt_user,omitempty"`
	PromptSession  *Session         `json:"prompt_session,omitempty"`
	PromptPrebaked bool             `json:"prompt_prebaked"`
	PromptRouted   bool             `json:"prompt_routed"`
	AAudioURL      *string          `json:"a_audio_url,omitempty"`
	AMetadata      *ResponseMetadata `json:"a_metadata,omitempty"`
	BAudioURL      *string          `json:"b_audio_url,omitempty"`
	BMetadata      *ResponseMetadata `json:"b_metadata,omitempty"`
	Vote           *Vote            `json:"vote,omitempty"`
	VoteUser       *User            `json:"vote_user,omitempty"`
	VoteSession    *Session         `json:"vote_session,omitempty"`
	Timings        []TimingEvent    `json:"timings"`
}

// NewBattleUUID mints a battle identifier, replacing the original's
// uuid.uuid4() with github.com/google/uuid.
func NewBattleUUID() string { return uuid.NewString() }

// SortTimings orders Timings by timestamp, matching gateway.py's
// explicit sort before persisting a battle.
func (b *Battle) SortTimings() {
	sort.SliceStable(b.Timings, func(i, j int) bool {
		return b.Timings[i].Timestamp < b.Timings[j].Timestamp
	})
}

// Anonymize returns a copy with both sides' metadata stripped to
// lyrics+checksum and the timeline cleared entirely, matching
// Battle.anonymize exactly (the original clears timings too, not just
// metadata — easy to miss when porting).
func (b Battle) Anonymize() Battle {
	out := b
	if b.AMetadata != nil {
		a := b.AMetadata.Anonymize()
		out.AMetadata = &a
	}
	if b.BMetadata != nil {
		bb := b.BMetadata.Anonymize()
		out.BMetadata = &bb
	}
	out.Timings = []TimingEvent{}
	return out
}
