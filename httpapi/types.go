package httpapi

import "github.com/Skryldev/battlegw/domain/model"

// generateBattleRequest is POST /generate_battle's body shape, ported
// from gateway.py's generate_battle: {session, user, prompt?,
// prompt_detailed?}.
type generateBattleRequest struct {
	Session        model.Session          `json:"session"`
	User           model.User             `json:"user"`
	Prompt         *model.SimplePrompt    `json:"prompt"`
	PromptDetailed *model.DetailedPrompt  `json:"prompt_detailed"`
}

// recordVoteRequest is POST /record_vote's body shape.
type recordVoteRequest struct {
	Session    model.Session `json:"session"`
	User       model.User    `json:"user"`
	BattleUUID string        `json:"battle_uuid"`
	Vote       model.Vote    `json:"vote"`
}

// recordVoteResponse mirrors gateway.py's record_vote return shape:
// {winner, a_metadata, b_metadata}, using the battle's full (not
// anonymized) metadata — a vote's caller already holds the battle's
// audio URLs from the original generate_battle response.
type recordVoteResponse struct {
	Winner    *model.SystemKey       `json:"winner"`
	AMetadata *model.ResponseMetadata `json:"a_metadata"`
	BMetadata *model.ResponseMetadata `json:"b_metadata"`
}

// healthCheckResponse mirrors gateway.py's health_check return shape.
type healthCheckResponse struct {
	Status string `json:"status"`
	UUID   string `json:"uuid"`
}

// errorResponse is the body written by writeError for every non-2xx
// response, carrying a single human-readable diagnostic.
type errorResponse struct {
	Detail string `json:"detail"`
}
