// Package workerclient implements domain/ports.Worker: health-checking,
// retried invocation, and audio-metadata probing for one generator
// worker. Ported from the original gateway's
// battle.py::BattleGenerator.generate_audio.
package workerclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/domain/ports"
	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
	"github.com/Skryldev/battlegw/pkg/retry"
	"github.com/Skryldev/battlegw/pkg/timeline"
)

// Client implements ports.Worker.
type Client struct {
	httpClient   *http.Client
	healthClient *http.Client
	prober       ports.AudioProber
	now          func() float64
}

// Option configures a Client, following the teacher module's functional
// options idiom.
type Option func(*Client)

// WithHTTPClient overrides the client used for /generate calls (default:
// 5 minute timeout, generation-class).
func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.httpClient = c } }

// WithHealthClient overrides the client used for /health calls (default:
// 10 second timeout).
func WithHealthClient(c *http.Client) Option { return func(cl *Client) { cl.healthClient = c } }

// withClock overrides the wall clock used for gateway_time_started/
// completed, for deterministic tests.
func withClock(now func() float64) Option { return func(cl *Client) { cl.now = now } }

func New(prober ports.AudioProber, opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		healthClient: &http.Client{Timeout: 10 * time.Second},
		prober:       prober,
		now:          func() float64 { return float64(time.Now().UnixNano()) / 1e9 },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HealthCheck reports whether the worker at url is reachable and
// healthy.
func (c *Client) HealthCheck(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/health", nil)
	if err != nil {
		return pkgerrors.NewWorkerUnavailable(url, "failed to build health check request", err)
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		return pkgerrors.NewWorkerUnavailable(url, "health check request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return pkgerrors.NewWorkerUnavailable(url, fmt.Sprintf("health check returned status %d: %s", resp.StatusCode, body), nil)
	}
	return nil
}

type generateResponse struct {
	AudioB64      string   `json:"audio_b64"`
	GitHash       *string  `json:"git_hash"`
	TimeQueued    *float64 `json:"time_queued"`
	TimeStarted   *float64 `json:"time_started"`
	TimeCompleted *float64 `json:"time_completed"`
	Lyrics        *string  `json:"lyrics"`
}

// generateOnce performs a single /generate attempt, returning the raw
// decoded response body without retry or probing.
func (c *Client) generateOnce(ctx context.Context, url string, prompt model.DetailedPrompt) (generateResponse, error) {
	body, err := json.Marshal(prompt)
	if err != nil {
		return generateResponse{}, fmt.Errorf("workerclient: marshaling prompt: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url+"/generate", bytes.NewReader(body))
	if err != nil {
		return generateResponse{}, fmt.Errorf("workerclient: building generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return generateResponse{}, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return generateResponse{}, fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return generateResponse{}, fmt.Errorf("invalid JSON response: %w", err)
	}
	if parsed.AudioB64 == "" {
		return generateResponse{}, fmt.Errorf("response did not include audio_b64")
	}
	return parsed, nil
}

// Generate runs the full worker protocol: health check, up to
// 1+numRetries generate attempts (no backoff, no re-health-check between
// attempts — matching the original's `for attempt in
// range(1+num_retries)` loop), audio probing, and ResponseMetadata
// assembly. rec receives timeline checkpoints in the
// health_check_{key}_start/_end, generate_{key}_start,
// generate_{key}_end/_failed order.
func (c *Client) Generate(ctx context.Context, systemKey model.SystemKey, url string, prompt model.DetailedPrompt, numRetries int, rec timeline.Recorder) ([]byte, model.ResponseMetadata, error) {
	key := systemKey.String()

	rec.Record("health_check_" + key + "_start")
	if err := c.HealthCheck(ctx, url); err != nil {
		rec.Record("health_check_" + key + "_end")
		return nil, model.ResponseMetadata{}, err
	}
	rec.Record("health_check_" + key + "_end")

	gatewayStart := c.now()
	rec.Record("generate_" + key + "_start")

	maxAttempts := 1 + numRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var parsed generateResponse
	attempt := 0
	retryErr := retry.Do(ctx, retry.Config{MaxAttempts: maxAttempts, Delay: 0, Multiplier: 1}, func() error {
		var err error
		parsed, err = c.generateOnce(ctx, url, prompt)
		if err == nil {
			return nil
		}
		attempt++
		return err
	})
	if retryErr != nil {
		rec.Record("generate_" + key + "_failed")
		return nil, model.ResponseMetadata{}, pkgerrors.NewWorkerFailed(key, attempt, "generate exhausted all retries", retryErr)
	}
	rec.Record("generate_" + key + "_end")
	gatewayCompleted := c.now()

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioB64)
	if err != nil {
		return nil, model.ResponseMetadata{}, pkgerrors.NewWorkerFailed(key, attempt+1, "audio_b64 did not decode", err)
	}

	sampleRate, numChannels, duration, err := c.prober.Probe(ctx, audio)
	if err != nil {
		return nil, model.ResponseMetadata{}, err
	}

	size := len(audio)
	checksum := model.Checksum(audio)
	numRetriesUsed := attempt

	meta := model.ResponseMetadata{
		SystemKey:            &systemKey,
		SystemGitHash:        parsed.GitHash,
		SystemTimeQueued:     parsed.TimeQueued,
		SystemTimeStarted:    parsed.TimeStarted,
		SystemTimeCompleted:  parsed.TimeCompleted,
		GatewayTimeStarted:   &gatewayStart,
		GatewayTimeCompleted: &gatewayCompleted,
		GatewayNumRetries:    &numRetriesUsed,
		SizeBytes:            &size,
		Lyrics:               parsed.Lyrics,
		SampleRate:           &sampleRate,
		NumChannels:          &numChannels,
		Duration:             &duration,
		Checksum:             &checksum,
	}
	return audio, meta, nil
}
