// Package audioprobe extracts sample rate, channel count, and duration
// from a raw MP3 byte buffer by shelling out to ffprobe. Adapted from the
// teacher module's infrastructure/ffmpeg executor: the process-exec
// idiom (PATH lookup once at construction, mutex around concurrent
// invocations, wrapping non-zero exits in a structured error) is kept,
// but the command line is narrowed to exactly the three fields
// music_arena/audio.py's ffprobe_metadata asks for, instead of the
// teacher's full format+streams JSON dump (this module never needs
// codec/bitrate/format, only sample_rate/channels/duration).
package audioprobe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	pkgerrors "github.com/Skryldev/battlegw/pkg/errors"
	"github.com/Skryldev/battlegw/domain/ports"
)

// Prober implements ports.AudioProber by writing audio to a temp file
// (via the injected ports.StorageProvider, mirroring the original's
// tempfile.NamedTemporaryFile use in battle.py::generate_audio) and
// running ffprobe against it.
type Prober struct {
	ffprobePath string
	storage     ports.StorageProvider
	mu          sync.Mutex
}

// New resolves ffprobe from PATH (or ffprobePath if non-empty) and
// returns a Prober backed by storage for temp-file materialization.
func New(ffprobePath string, storage ports.StorageProvider) (*Prober, error) {
	if ffprobePath == "" {
		var err error
		ffprobePath, err = exec.LookPath("ffprobe")
		if err != nil {
			return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
		}
	}
	return &Prober{ffprobePath: ffprobePath, storage: storage}, nil
}

// Probe writes audio to a temp file and runs:
//
//	ffprobe -v error -show_entries format=duration:stream=sample_rate,channels \
//	        -of default=noprint_wrappers=1:nokey=1 <path>
//
// which prints exactly three lines: sample_rate, channels, duration (in
// that stream/format declaration order as ffprobe emits them), matching
// music_arena/audio.py::ffprobe_metadata byte-for-byte.
func (p *Prober) Probe(ctx context.Context, audio []byte) (sampleRate, numChannels int, duration float64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	path, err := p.storage.TempFile(ctx, "", "battlegw-probe-*.mp3")
	if err != nil {
		return 0, 0, 0, pkgerrors.NewStorageError("", "failed to create temp file for audio probe", err)
	}
	defer func() { _ = p.storage.Remove(ctx, path) }()

	if err := writeFile(path, audio); err != nil {
		return 0, 0, 0, pkgerrors.NewStorageError(path, "failed to write audio to temp file", err)
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration:stream=sample_rate,channels",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, 0, 0, pkgerrors.NewWorkerFailed("", 0, fmt.Sprintf("ffprobe failed: %s", strings.TrimSpace(stderr.String())), err)
	}

	lines := strings.Fields(strings.TrimSpace(stdout.String()))
	if len(lines) < 3 {
		return 0, 0, 0, pkgerrors.NewWorkerFailed("", 0, fmt.Sprintf("unexpected ffprobe output: %q", stdout.String()), nil)
	}

	sr, err := strconv.ParseFloat(lines[0], 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parsing sample_rate from ffprobe output: %w", err)
	}
	ch, err := strconv.Atoi(lines[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parsing channels from ffprobe output: %w", err)
	}
	dur, err := strconv.ParseFloat(lines[2], 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parsing duration from ffprobe output: %w", err)
	}

	return int(sr + 0.5), ch, dur, nil
}
