package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/battlegw/application/battlegen"
	"github.com/Skryldev/battlegw/application/promptpipeline"
	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/internal/mocks"
	"github.com/Skryldev/battlegw/pkg/logger"
	"github.com/Skryldev/battlegw/pkg/timeline"
)

// newFakeWorker returns a mocks.MockWorker whose GenerateFunc records the
// same timeline checkpoints the real workerclient.Client records, so
// handler tests that assert on Battle.Timings exercise realistic data.
func newFakeWorker() *mocks.MockWorker {
	return &mocks.MockWorker{
		GenerateFunc: func(_ context.Context, systemKey model.SystemKey, _ string, _ model.DetailedPrompt, _ int, rec timeline.Recorder) ([]byte, model.ResponseMetadata, error) {
			key := systemKey.String()
			rec.Record("health_check_" + key + "_start")
			rec.Record("health_check_" + key + "_end")
			rec.Record("generate_" + key + "_start")
			rec.Record("generate_" + key + "_end")
			checksum := key + "-checksum"
			size := 4
			return []byte("aud-" + key), model.ResponseMetadata{SystemKey: &systemKey, Checksum: &checksum, SizeBytes: &size}, nil
		},
	}
}

type staticURLs struct{}

func (staticURLs) URLFor(key model.SystemKey) (string, error) { return "http://" + key.String(), nil }

func keysAB(t *testing.T) (a, b model.SystemKey) {
	t.Helper()
	a, _ = model.NewSystemKey("sysA", "v1")
	b, _ = model.NewSystemKey("sysB", "v1")
	return
}

func newTestServer(t *testing.T, flakiness float64) (*Server, *mocks.MockBucket, *mocks.MockBucket) {
	t.Helper()
	a, b := keysAB(t)
	gen := battlegen.New(promptpipeline.New(nil), &mocks.MockPairSampler{A: a, B: b}, newFakeWorker(), staticURLs{}, 0)
	audioBucket := &mocks.MockBucket{}
	metadataBucket := &mocks.MockBucket{}
	log, err := logger.New(true)
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(Config{
		Generator:      gen,
		AudioBucket:    audioBucket,
		MetadataBucket: metadataBucket,
		Systems:        map[model.SystemKey]model.SystemMetadata{},
		GatewayVersion: "test-1",
		Flakiness:      flakiness,
		Logger:         log,
	})
	return s, audioBucket, metadataBucket
}

func validSessionJSON() string {
	return `"session":{"uuid":"sess-1","create_time":1.0,"frontend_version":"v1","ack_tos":"yes"}`
}

func TestHandleGenerateBattleHappyPath(t *testing.T) {
	s, audioBucket, metadataBucket := newTestServer(t, 0)

	body := `{` + validSessionJSON() + `,"user":{},"prompt_detailed":{"overall_prompt":"heavy metal","instrumental":true}}`
	req := httptest.NewRequest(http.MethodPost, "/generate_battle", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var battle model.Battle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &battle))

	assert.NotNil(t, battle.AMetadata)
	assert.Nil(t, battle.AMetadata.SystemKey, "expected anonymized response to have nil system key on A side")
	assert.NotNil(t, battle.AAudioURL)
	assert.NotNil(t, battle.BAudioURL)
	assert.Equal(t, 2, audioBucket.Len())
	assert.Equal(t, 1, metadataBucket.Len())
}

func TestHandleGenerateBattleRejectsMissingSession(t *testing.T) {
	s, _, _ := newTestServer(t, 0)
	body := `{"user":{},"prompt_detailed":{"overall_prompt":"x","instrumental":true}}`
	req := httptest.NewRequest(http.MethodPost, "/generate_battle", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleGenerateBattleRejectsMissingPrompt(t *testing.T) {
	s, _, _ := newTestServer(t, 0)
	body := `{` + validSessionJSON() + `,"user":{}}`
	req := httptest.NewRequest(http.MethodPost, "/generate_battle", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRecordVoteReturnsWinnerAndFullMetadata(t *testing.T) {
	s, _, _ := newTestServer(t, 0)

	genBody := `{` + validSessionJSON() + `,"user":{},"prompt_detailed":{"overall_prompt":"x","instrumental":true}}`
	genReq := httptest.NewRequest(http.MethodPost, "/generate_battle", bytes.NewBufferString(genBody))
	genRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(genRec, genReq)
	var battle model.Battle
	if err := json.Unmarshal(genRec.Body.Bytes(), &battle); err != nil {
		t.Fatal(err)
	}

	voteBody := `{` + validSessionJSON() + `,"user":{},"battle_uuid":"` + battle.UUID + `","vote":{"a_listen_data":[],"b_listen_data":[],"preference":"A","preference_time":2.0}}`
	voteReq := httptest.NewRequest(http.MethodPost, "/record_vote", bytes.NewBufferString(voteBody))
	voteRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(voteRec, voteReq)

	if voteRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", voteRec.Code, voteRec.Body.String())
	}
	var resp recordVoteResponse
	if err := json.Unmarshal(voteRec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	a, _ := keysAB(t)
	if resp.Winner == nil || *resp.Winner != a {
		t.Errorf("expected winner to be A's system %v, got %v", a, resp.Winner)
	}
	if resp.AMetadata == nil || resp.AMetadata.SystemKey == nil {
		t.Error("expected record_vote to return full, non-anonymized metadata")
	}
}

func TestHandleRecordVoteUnknownBattleReturns404(t *testing.T) {
	s, _, _ := newTestServer(t, 0)
	body := `{` + validSessionJSON() + `,"user":{},"battle_uuid":"does-not-exist","vote":{"a_listen_data":[],"b_listen_data":[],"preference":"A","preference_time":1.0}}`
	req := httptest.NewRequest(http.MethodPost, "/record_vote", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleHealthCheckNoPrebakedPromptsReturns500(t *testing.T) {
	s, _, _ := newTestServer(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/health_check", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when no prebaked prompts configured, got %d", rec.Code)
	}
}

func TestHandleSystemsFlakinessInjectsFailures(t *testing.T) {
	s, _, _ := newTestServer(t, 1)
	req := httptest.NewRequest(http.MethodGet, "/systems", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected flakiness=1 to always fail, got %d", rec.Code)
	}
}

func TestHandleSystemsReturnsCatalog(t *testing.T) {
	s, _, _ := newTestServer(t, 0)
	req := httptest.NewRequest(http.MethodGet, "/systems", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
