package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Skryldev/battlegw/application/battlegen"
	"github.com/Skryldev/battlegw/domain/model"
	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
)

func now() float64 { return float64(time.Now().UnixNano()) / 1e9 }

// handleSystems returns the active system catalog, matching gateway.py's
// GET /systems.
func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	if s.maybeFlake() {
		writeError(w, http.StatusInternalServerError, "flaky error")
		return
	}
	keys := make([]model.SystemKey, 0, len(s.systems))
	for k := range s.systems {
		keys = append(keys, k)
	}
	writeJSON(w, http.StatusOK, keys)
}

// handlePrebaked returns the checksum->prompt mapping, matching
// gateway.py's GET /prebaked.
func (s *Server) handlePrebaked(w http.ResponseWriter, r *http.Request) {
	if s.maybeFlake() {
		writeError(w, http.StatusInternalServerError, "flaky error")
		return
	}
	writeJSON(w, http.StatusOK, s.prebaked.Map())
}

// handleGenerateBattle implements POST /generate_battle's full protocol:
// parse, pre-flight validate, flake, generate, upload audio, persist
// metadata, return the anonymized battle.
func (s *Server) handleGenerateBattle(w http.ResponseWriter, r *http.Request) {
	var body generateBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	if !body.Session.Valid() {
		writeError(w, http.StatusBadRequest, "session is missing required fields: uuid, create_time, frontend_version, ack_tos")
		return
	}
	if body.Prompt == nil && body.PromptDetailed == nil {
		writeError(w, http.StatusBadRequest, "one of prompt or prompt_detailed is required")
		return
	}

	battleUUID := model.NewBattleUUID()
	log := s.log.ForBattle("/generate_battle", body.Session.UUID, body.User.Checksum(), battleUUID)
	if !body.User.HasTrackingInfo() {
		log.Warn("user has no tracking information")
	}

	if s.maybeFlake() {
		log.Warn("flaky error")
		writeError(w, http.StatusInternalServerError, "flaky error")
		return
	}

	promptPrebaked := false
	if body.PromptDetailed != nil {
		promptPrebaked = s.prebaked.IsPrebaked(body.PromptDetailed.Checksum())
	}

	req := battlegen.GenerateBattleRequest{
		Prompt:         body.Prompt,
		PromptDetailed: body.PromptDetailed,
		User:           body.User,
		Session:        body.Session,
		BattleUUID:     battleUUID,
		PromptPrebaked: promptPrebaked,
	}

	battle, aAudio, bAudio, err := s.generator.GenerateBattle(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, log, err)
		return
	}
	if s.gatewayVersion != "" {
		battle.GatewayVersion = &s.gatewayVersion
	}

	if err := s.uploadAudio(r.Context(), battle, aAudio, bAudio); err != nil {
		log.Error("error uploading audio", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "error uploading audio: "+err.Error())
		return
	}
	appendTiming(battle, "upload_audio")

	if err := s.persistMetadata(r.Context(), battle); err != nil {
		log.Error("error persisting battle", zap.Error(err))
	}
	appendTiming(battle, "upload_metadata")

	log.Info("battle generated",
		zap.String("a_system_key", battle.AMetadata.SystemKey.String()),
		zap.String("b_system_key", battle.BMetadata.SystemKey.String()),
	)

	appendTiming(battle, "anonymizing")
	anonymized := battle.Anonymize()
	writeJSON(w, http.StatusOK, anonymized)
}

// writeGenerationError maps a battle-generation error to its HTTP
// status, giving PromptRejected its dedicated 406 response with the
// rationale text per spec.md §4.5.
func (s *Server) writeGenerationError(w http.ResponseWriter, log interface {
	Warn(string, ...zap.Field)
	Error(string, ...zap.Field)
}, err error) {
	if rejected, ok := pkgerrors.As[*pkgerrors.PromptRejectedError](err); ok {
		log.Warn("prompt rejected", zap.String("rationale", rejected.Rationale))
		writeError(w, http.StatusNotAcceptable, rejected.Rationale)
		return
	}
	log.Error("battle generation failed", zap.Error(err))
	writeError(w, pkgerrors.StatusOf(err), err.Error())
}

// handleRecordVote implements POST /record_vote: lookup, mismatch
// warnings (non-fatal), attach vote, persist, and return the winner.
func (s *Server) handleRecordVote(w http.ResponseWriter, r *http.Request) {
	var body recordVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be valid JSON")
		return
	}
	if !body.Session.Valid() {
		writeError(w, http.StatusBadRequest, "session is missing required fields: uuid, create_time, frontend_version, ack_tos")
		return
	}
	if body.BattleUUID == "" {
		writeError(w, http.StatusBadRequest, "battle_uuid is required")
		return
	}
	if body.Vote.Preference() == nil || body.Vote.PreferenceTime() == nil {
		writeError(w, http.StatusBadRequest, "vote is missing required fields: preference, preference_time")
		return
	}

	log := s.log.ForBattle("/record_vote", body.Session.UUID, body.User.Checksum(), body.BattleUUID)
	if !body.User.HasTrackingInfo() {
		log.Warn("user has no tracking information")
	}

	if s.maybeFlake() {
		writeError(w, http.StatusInternalServerError, "flaky error")
		return
	}

	battle, ok := s.loadBattle(r.Context(), body.BattleUUID)
	if !ok {
		writeError(w, http.StatusNotFound, "battle not found: "+body.BattleUUID)
		return
	}

	if battle.PromptUser != nil && body.User.Checksum() != battle.PromptUser.Checksum() {
		log.Warn("vote user does not match prompt user")
	}
	if battle.PromptSession != nil && body.Session.UUID != battle.PromptSession.UUID {
		log.Warn("vote session does not match prompt session")
	}
	if battle.Vote != nil {
		log.Warn("battle already has a vote")
	}

	vote := body.Vote
	battle.Vote = &vote
	battle.VoteUser = &body.User
	battle.VoteSession = &body.Session

	if err := s.persistMetadata(r.Context(), battle); err != nil {
		log.Error("error persisting battle", zap.Error(err))
	}

	var winner *model.SystemKey
	switch *vote.Preference() {
	case model.PreferenceA:
		winner = battle.AMetadata.SystemKey
	case model.PreferenceB:
		winner = battle.BMetadata.SystemKey
	}

	writeJSON(w, http.StatusOK, recordVoteResponse{
		Winner:    winner,
		AMetadata: battle.AMetadata,
		BMetadata: battle.BMetadata,
	})
}

// handleHealthCheck runs a full synthetic battle against a randomly
// chosen prebaked prompt, matching gateway.py's GET /health_check. It
// persists a real (non-test) battle record, same as the original.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	prompt, ok := s.prebaked.Random(s.randRNG())
	if !ok {
		writeError(w, http.StatusInternalServerError, "no prebaked prompts configured")
		return
	}

	battleUUID := model.NewBattleUUID()
	req := battlegen.GenerateBattleRequest{
		PromptDetailed: &prompt,
		User:           model.User{},
		Session:        model.NewSession("health_check", "health_check"),
		BattleUUID:     battleUUID,
		PromptPrebaked: true,
	}

	log := s.log.ForBattle("/health_check", "", "", battleUUID)
	battle, aAudio, bAudio, err := s.generator.GenerateBattle(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, log, err)
		return
	}

	if err := s.uploadAudio(r.Context(), battle, aAudio, bAudio); err != nil {
		writeError(w, http.StatusInternalServerError, "error uploading audio: "+err.Error())
		return
	}
	appendTiming(battle, "upload_audio")
	if err := s.persistMetadata(r.Context(), battle); err != nil {
		log.Error("error persisting battle", zap.Error(err))
	}
	appendTiming(battle, "upload_metadata")

	writeJSON(w, http.StatusOK, healthCheckResponse{Status: "ok", UUID: battle.UUID})
}
