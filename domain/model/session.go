package model

import (
	"time"

	"github.com/google/uuid"
)

// Session is the frontend-issued conversation context attached to every
// battle and vote request. Ported from music_arena/dataclass/arena.py's
// Session; the original field "frontend_git_hash" is exposed here as
// FrontendVersion/frontend_version to match spec.md's public wire naming.
type Session struct {
	UUID            string  `json:"uuid"`
	CreateTime      float64 `json:"create_time"`
	FrontendVersion string  `json:"frontend_version"`
	AckTOS          string  `json:"ack_tos"`
}

// NewSession fills UUID/CreateTime when absent, matching
// Session.__post_init__.
func NewSession(frontendVersion, ackTOS string) Session {
	return Session{
		UUID:            uuid.NewString(),
		CreateTime:      float64(time.Now().UnixNano()) / 1e9,
		FrontendVersion: frontendVersion,
		AckTOS:          ackTOS,
	}
}

// Valid reports whether every field required by the gateway's
// pre-flight validation is present.
func (s Session) Valid() bool {
	return s.UUID != "" && s.CreateTime != 0 && s.FrontendVersion != "" && s.AckTOS != ""
}
