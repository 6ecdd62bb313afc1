package model

import "testing"

func TestDetailedPromptChecksum(t *testing.T) {
	p, err := NewDetailedPrompt("heavy metal", true, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewDetailedPrompt: %v", err)
	}
	if got, want := p.Checksum(), "f09577079db8a81f475ae94e85ddd3a7"; got != want {
		t.Errorf("Checksum() = %q, want %q", got, want)
	}

	pWithDuration, err := NewDetailedPrompt("heavy metal", true, nil, floatPtr(2.0), nil)
	if err != nil {
		t.Fatalf("NewDetailedPrompt: %v", err)
	}
	if got, want := pWithDuration.Checksum(), "8fcfd48ccc257fca63355dc236a7ecdc"; got != want {
		t.Errorf("Checksum() with duration = %q, want %q", got, want)
	}

	vocal, err := NewDetailedPrompt("heavy metal", false, stringPtr("We will rock you"), nil, nil)
	if err != nil {
		t.Fatalf("NewDetailedPrompt: %v", err)
	}
	if got, want := vocal.Checksum(), "e2ad45cdb73ac1118b4ed9fa03d0222d"; got != want {
		t.Errorf("Checksum() vocal = %q, want %q", got, want)
	}
}

func TestSimplePromptChecksum(t *testing.T) {
	p := NewSimplePrompt("heavy metal")
	if got, want := p.Checksum(), "2064d7a16d7385599cfb7d63d6653a32"; got != want {
		t.Errorf("Checksum() = %q, want %q", got, want)
	}
}

func TestDetailedPromptInstrumentalWithLyricsRejected(t *testing.T) {
	if _, err := NewDetailedPrompt("x", true, stringPtr("la la"), nil, nil); err == nil {
		t.Fatal("expected error for instrumental prompt with lyrics")
	}
}

func TestDetailedPromptGenerateLyrics(t *testing.T) {
	instrumental, _ := NewDetailedPrompt("x", true, nil, nil, nil)
	if instrumental.GenerateLyrics() {
		t.Error("instrumental prompt should never need lyrics")
	}

	vocalNoLyrics, _ := NewDetailedPrompt("x", false, nil, nil, nil)
	if !vocalNoLyrics.GenerateLyrics() {
		t.Error("vocal prompt without lyrics should need lyrics generated")
	}

	vocalWithLyrics, _ := NewDetailedPrompt("x", false, stringPtr("la"), nil, nil)
	if vocalWithLyrics.GenerateLyrics() {
		t.Error("vocal prompt with lyrics already set should not need generation")
	}
}
