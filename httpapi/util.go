package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/Skryldev/battlegw/domain/model"
)

func byteReader(b []byte) io.Reader { return bytes.NewReader(b) }

// appendTiming appends one (label, now) timing event to battle and
// re-sorts, matching gateway.py's post-generation timings.append calls
// for the steps the HTTP layer itself owns (upload_audio,
// upload_metadata, anonymizing — see SPEC_FULL.md §4.4).
func appendTiming(battle *model.Battle, label string) {
	battle.Timings = append(battle.Timings, model.TimingEvent{Label: label, Timestamp: now()})
	battle.SortTimings()
}

// persistMetadata writes battle's JSON to the metadata bucket under
// "{uuid}.json" (overwrite allowed) and refreshes the in-memory cache,
// matching gateway.py's _update_battle.
func (s *Server) persistMetadata(ctx context.Context, battle *model.Battle) error {
	raw, err := json.MarshalIndent(battle, "", "  ")
	if err != nil {
		return err
	}
	if err := s.metadataBucket.Put(ctx, battle.UUID+".json", bytes.NewReader(raw), false, true); err != nil {
		return err
	}
	s.cache.Put(battle.UUID, battle)
	return nil
}

// loadBattle looks up a battle by uuid: cache first, then the metadata
// bucket, matching gateway.py's record_vote lookup.
func (s *Server) loadBattle(ctx context.Context, uuid string) (*model.Battle, bool) {
	if battle, ok := s.cache.Get(uuid); ok {
		return battle, true
	}
	r, err := s.metadataBucket.Get(ctx, uuid+".json")
	if err != nil {
		return nil, false
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, false
	}
	var battle model.Battle
	if err := json.Unmarshal(raw, &battle); err != nil {
		return nil, false
	}
	s.cache.Put(battle.UUID, &battle)
	return &battle, true
}
