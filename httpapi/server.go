// Package httpapi exposes the battle gateway over HTTP: /systems,
// /prebaked, /generate_battle, /record_vote, /health_check. Ported
// route-for-route from the original gateway's FastAPI app
// (components/gateway/ma_gateway/gateway.py), restructured onto Go
// 1.22's method-pattern ServeMux with a small logging/recovery
// middleware chain, mirroring the ServeMux + middleware-chain idiom in
// Omkar0612-nexus-ai's internal/webui/server.go (that file's
// CORS/security-header/rate-limiter middleware do not apply here — this
// is a server-to-server JSON API, not a browser frontend).
package httpapi

import (
	"context"
	"math/rand"
	"net/http"
	"sync"

	"github.com/Skryldev/battlegw/application/battlegen"
	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/domain/ports"
	"github.com/Skryldev/battlegw/pkg/logger"
)

// Config bundles a Server's dependencies and policy knobs.
type Config struct {
	Generator      *battlegen.Generator
	AudioBucket    ports.Bucket
	MetadataBucket ports.Bucket
	Systems        map[model.SystemKey]model.SystemMetadata
	PrebakedPath   string
	GatewayVersion string
	Flakiness      float64
	BattleCacheSize int
	Logger         *logger.Logger
}

// Server holds the gateway's wired dependencies and request-time state.
type Server struct {
	generator      *battlegen.Generator
	audioBucket    ports.Bucket
	metadataBucket ports.Bucket
	systems        map[model.SystemKey]model.SystemMetadata
	prebaked       *prebakedStore
	cache          *battleCache
	gatewayVersion string
	flakiness      float64
	log            *logger.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewServer(cfg Config) *Server {
	return &Server{
		generator:      cfg.Generator,
		audioBucket:    cfg.AudioBucket,
		metadataBucket: cfg.MetadataBucket,
		systems:        cfg.Systems,
		prebaked:       newPrebakedStore(cfg.PrebakedPath, cfg.Logger),
		cache:          newBattleCache(cfg.BattleCacheSize),
		gatewayVersion: cfg.GatewayVersion,
		flakiness:      cfg.Flakiness,
		log:            cfg.Logger,
		rng:            rand.New(rand.NewSource(1)),
	}
}

// Handler builds the full route table wrapped in the logging/recovery
// middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /systems", s.handleSystems)
	mux.HandleFunc("GET /prebaked", s.handlePrebaked)
	mux.HandleFunc("POST /generate_battle", s.handleGenerateBattle)
	mux.HandleFunc("POST /record_vote", s.handleRecordVote)
	mux.HandleFunc("GET /health_check", s.handleHealthCheck)

	var handler http.Handler = mux
	handler = recoveryMiddleware(s.log, handler)
	handler = loggingMiddleware(s.log, handler)
	return handler
}

// maybeFlake randomly fails the request with HTTP 500 at rate
// s.flakiness, a no-op when flakiness is 0. Ported from gateway.py's
// _maybe_raise_flaky_error.
func (s *Server) maybeFlake() bool {
	if s.flakiness <= 0 {
		return false
	}
	s.rngMu.Lock()
	roll := s.rng.Float64()
	s.rngMu.Unlock()
	return roll < s.flakiness
}

func (s *Server) randRNG() *rand.Rand {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

// audioKey builds the "{prefix}-{checksum}-{uuid}-{suffix}.mp3" key for
// one side of a battle's audio, prefixed "prebaked" iff the detailed
// prompt's checksum matches a known prebaked entry, else "original".
func (s *Server) audioKey(prompt model.DetailedPrompt, battleUUID, suffix string) string {
	prefix := "original"
	if s.prebaked.IsPrebaked(prompt.Checksum()) {
		prefix = "prebaked"
	}
	return prefix + "-" + prompt.Checksum() + "-" + battleUUID + "-" + suffix + ".mp3"
}

// uploadAudio puts both audio blobs and attaches their public URLs to
// battle, the shared step generate_battle and health_check both need
// before persisting metadata.
func (s *Server) uploadAudio(ctx context.Context, battle *model.Battle, aAudio, bAudio []byte) error {
	aKey := s.audioKey(*battle.PromptDetailed, battle.UUID, "a")
	bKey := s.audioKey(*battle.PromptDetailed, battle.UUID, "b")

	if err := s.audioBucket.Put(ctx, aKey, byteReader(aAudio), true, false); err != nil {
		return err
	}
	if err := s.audioBucket.Put(ctx, bKey, byteReader(bAudio), true, false); err != nil {
		return err
	}
	aURL, err := s.audioBucket.GetURL(ctx, aKey)
	if err != nil {
		return err
	}
	bURL, err := s.audioBucket.GetURL(ctx, bKey)
	if err != nil {
		return err
	}
	battle.AAudioURL = &aURL
	battle.BAudioURL = &bURL
	return nil
}
