// Package mocks provides hand-rolled, function-field test doubles for
// this module's small ports interfaces, in the teacher's mock idiom:
// each method defers to an optional *Func field and falls back to a
// reasonable zero-value default when unset.
package mocks

import (
	"bytes"
	"context"
	"io"

	"github.com/Skryldev/battlegw/domain/model"
	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
	"github.com/Skryldev/battlegw/pkg/timeline"
)

// MockStorageProvider is a test double for ports.StorageProvider.
type MockStorageProvider struct {
	ExistsFunc   func(ctx context.Context, path string) (bool, error)
	SizeFunc     func(ctx context.Context, path string) (int64, error)
	RemoveFunc   func(ctx context.Context, path string) error
	TempFileFunc func(ctx context.Context, dir, pattern string) (string, error)
}

func (m *MockStorageProvider) Exists(ctx context.Context, path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, path)
	}
	return true, nil
}

func (m *MockStorageProvider) Size(ctx context.Context, path string) (int64, error) {
	if m.SizeFunc != nil {
		return m.SizeFunc(ctx, path)
	}
	return 1024, nil
}

func (m *MockStorageProvider) Remove(ctx context.Context, path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, path)
	}
	return nil
}

func (m *MockStorageProvider) TempFile(ctx context.Context, dir, pattern string) (string, error) {
	if m.TempFileFunc != nil {
		return m.TempFileFunc(ctx, dir, pattern)
	}
	return "/tmp/mock_temp_file", nil
}

// MockBucket is a test double for ports.Bucket, backed by an in-memory
// map so callers that don't care about bucket behavior can share one
// instance across Put/Get/GetURL/Delete without wiring real storage.
type MockBucket struct {
	PutFunc    func(ctx context.Context, key string, value io.Reader, public, allowOverwrite bool) error
	GetFunc    func(ctx context.Context, key string) (io.ReadCloser, error)
	GetURLFunc func(ctx context.Context, key string) (string, error)
	DeleteFunc func(ctx context.Context, key string) error

	objects map[string][]byte
}

func (m *MockBucket) Put(ctx context.Context, key string, value io.Reader, public, allowOverwrite bool) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, value, public, allowOverwrite)
	}
	raw, err := io.ReadAll(value)
	if err != nil {
		return err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = raw
	return nil
}

func (m *MockBucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	raw, ok := m.objects[key]
	if !ok {
		return nil, pkgerrors.NewNotFound(key, "key not found in mock bucket")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (m *MockBucket) GetURL(ctx context.Context, key string) (string, error) {
	if m.GetURLFunc != nil {
		return m.GetURLFunc(ctx, key)
	}
	return "https://mock.test/" + key, nil
}

func (m *MockBucket) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	delete(m.objects, key)
	return nil
}

// Len reports how many objects are held by the default in-memory store.
// It reflects nothing when PutFunc/DeleteFunc overrides are set.
func (m *MockBucket) Len() int { return len(m.objects) }

// MockWorker is a test double for ports.Worker.
type MockWorker struct {
	GenerateFunc func(ctx context.Context, systemKey model.SystemKey, url string, prompt model.DetailedPrompt, numRetries int, rec timeline.Recorder) ([]byte, model.ResponseMetadata, error)
}

func (m *MockWorker) Generate(ctx context.Context, systemKey model.SystemKey, url string, prompt model.DetailedPrompt, numRetries int, rec timeline.Recorder) ([]byte, model.ResponseMetadata, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemKey, url, prompt, numRetries, rec)
	}
	checksum := systemKey.String() + "-mock-checksum"
	return []byte("mock-audio"), model.ResponseMetadata{SystemKey: &systemKey, Checksum: &checksum}, nil
}

// MockPairSampler is a test double for ports.PairSampler. Zero value
// always returns the zero SystemKey pair with a nil error; set A/B/Err
// to control the sampled outcome.
type MockPairSampler struct {
	A, B model.SystemKey
	Err  error
}

func (m *MockPairSampler) Sample(_ context.Context, _ model.DetailedPrompt) (model.SystemKey, model.SystemKey, error) {
	return m.A, m.B, m.Err
}

// MockChatBackend is a test double for ports.ChatBackend.
type MockChatBackend struct {
	CompleteFunc func(ctx context.Context, textInput string, maxTokens int, forceJSON bool, seed *int64) (string, error)
}

func (m *MockChatBackend) Complete(ctx context.Context, textInput string, maxTokens int, forceJSON bool, seed *int64) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, textInput, maxTokens, forceJSON, seed)
	}
	return `{"is_okay": true}`, nil
}
