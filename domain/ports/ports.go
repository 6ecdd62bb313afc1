// Package ports defines the small capability interfaces the application
// layer programs against, keeping infrastructure (HTTP workers, object
// storage, chat backends) swappable behind narrow seams — the same
// ports-and-adapters idiom the teacher module used for its ffmpeg/storage
// capabilities, now describing this gateway's actual dependencies.
package ports

import (
	"context"
	"io"

	"github.com/Skryldev/battlegw/domain/model"
	"github.com/Skryldev/battlegw/pkg/timeline"
)

// Bucket is a content-addressed object store: audio clips and battle
// metadata both flow through an instance of this interface. Grounded on
// the original gateway's BucketBase (LocalBucket/GCPBucket).
type Bucket interface {
	// Put writes value under key. AllowOverwrite must be set for repeat
	// writes to the same key (the metadata bucket intentionally
	// overwrites a battle's JSON on every update); Public marks the
	// object as publicly readable where the backend supports it.
	Put(ctx context.Context, key string, value io.Reader, public, allowOverwrite bool) error

	// Get opens key for reading. Returns a not-found error (see
	// pkg/errors) if key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns a URL a client can use to fetch key directly,
	// bypassing the gateway. Returns an error if the backend has no
	// public base configured.
	GetURL(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// StorageProvider is kept verbatim from the teacher module: a thin
// filesystem capability used here only to materialize a worker's
// in-memory audio bytes as a temp file before shelling out to ffprobe.
type StorageProvider interface {
	Exists(ctx context.Context, path string) (bool, error)
	Size(ctx context.Context, path string) (int64, error)
	Remove(ctx context.Context, path string) error
	TempFile(ctx context.Context, dir, pattern string) (string, error)
}

// AudioProber extracts sample rate, channel count, and duration from a
// raw audio buffer. Grounded on music_arena/audio.py's ffprobe_metadata
// and adapted from the teacher's FFmpegExecutor.Probe.
type AudioProber interface {
	Probe(ctx context.Context, audio []byte) (sampleRate, numChannels int, duration float64, err error)
}

// Worker is a single generator worker's full request protocol, as
// exercised by the battle generator's parallel fan-out. Grounded on
// battle.py's generate_audio: health check, retried generate, audio
// probing, and ResponseMetadata assembly all happen behind this one
// call so the battle generator never touches HTTP directly.
type Worker interface {
	// Generate runs the full protocol against systemKey's worker at url:
	// health check, up to 1+numRetries generate attempts, decoding and
	// probing the resulting audio, and recording timeline checkpoints to
	// rec. Returns the decoded audio bytes and the assembled metadata.
	Generate(ctx context.Context, systemKey model.SystemKey, url string, prompt model.DetailedPrompt, numRetries int, rec timeline.Recorder) ([]byte, model.ResponseMetadata, error)
}

// ChatBackend is a pluggable LLM capability used for moderation, prompt
// routing, and lyric generation. Grounded on music_arena/chat/backend.py.
type ChatBackend interface {
	// Complete sends textInput as a single user turn and returns the
	// model's reply text. forceJSON requests a JSON-object response
	// format where the backend supports it (mirrors
	// openai_chat_completion's response_format handling).
	Complete(ctx context.Context, textInput string, maxTokens int, forceJSON bool, seed *int64) (string, error)
}

// PairSampler draws an eligible, weighted, randomly-ordered pair of
// systems for a given prompt. Grounded on battle.py's sample_pair.
type PairSampler interface {
	Sample(ctx context.Context, prompt model.DetailedPrompt) (a, b model.SystemKey, err error)
}
