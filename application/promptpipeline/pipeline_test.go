package promptpipeline

import (
	"context"
	"testing"

	"github.com/Skryldev/battlegw/domain/model"
)

type fakeBackend struct {
	response string
	err      error
}

func (f *fakeBackend) Complete(_ context.Context, _ string, _ int, _ bool, _ *int64) (string, error) {
	return f.response, f.err
}

func TestRouteAcceptsWellFormedResponse(t *testing.T) {
	backend := &fakeBackend{response: `{"is_okay": true, "instrumental": true, "duration": 30}`}
	p := New(backend)
	detailed, err := p.Route(context.Background(), model.NewSimplePrompt("heavy metal"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !detailed.Instrumental {
		t.Error("expected instrumental=true")
	}
	if detailed.Duration == nil || *detailed.Duration != 30 {
		t.Errorf("expected duration=30, got %v", detailed.Duration)
	}
}

func TestRouteRejectsModeratedPrompt(t *testing.T) {
	backend := &fakeBackend{response: `{"is_okay": false, "rationale": "Explicit"}`}
	p := New(backend)
	if _, err := p.Route(context.Background(), model.NewSimplePrompt("bad prompt"), nil); err == nil {
		t.Fatal("expected PromptRejected error")
	}
}

func TestRouteRejectsInvalidJSON(t *testing.T) {
	backend := &fakeBackend{response: "not json"}
	p := New(backend)
	if _, err := p.Route(context.Background(), model.NewSimplePrompt("x"), nil); err == nil {
		t.Fatal("expected ChatException for invalid JSON")
	}
}

func TestModerateAcceptsOkPrompt(t *testing.T) {
	backend := &fakeBackend{response: `{"is_okay": true}`}
	p := New(backend)
	if err := p.Moderate(context.Background(), model.NewSimplePrompt("lo-fi beats")); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateLyricsReturnsTrimmedText(t *testing.T) {
	backend := &fakeBackend{response: "  some lyrics\n"}
	p := New(backend)
	detailed, _ := model.NewDetailedPrompt("x", false, nil, nil, nil)
	lyrics, err := p.GenerateLyrics(context.Background(), detailed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if lyrics != "some lyrics" {
		t.Errorf("expected trimmed lyrics, got %q", lyrics)
	}
}
