package infrastructure

import (
	"errors"
	"fmt"
	"time"

	"github.com/asticode/go-astiav"

	"github.com/sglre6355/tunelink/internal/modules/music_player/application/ports"
)

// FFmpegProber reads media metadata from local files through libav.
type FFmpegProber struct{}

// NewFFmpegProber creates a new FFmpegProber.
func NewFFmpegProber() *FFmpegProber {
	return &FFmpegProber{}
}

// Probe opens the file, reads stream info, and returns the container
// duration. Files without an audio stream are rejected.
func (p *FFmpegProber) Probe(path string) (time.Duration, error) {
	formatCtx := astiav.AllocFormatContext()
	if formatCtx == nil {
		return 0, errors.New("failed to alloc format context")
	}
	defer formatCtx.Free()

	if err := formatCtx.OpenInput(path, nil, nil); err != nil {
		return 0, fmt.Errorf("failed to open input: %w", err)
	}
	defer formatCtx.CloseInput()

	if err := formatCtx.FindStreamInfo(nil); err != nil {
		return 0, fmt.Errorf("failed to read stream info: %w", err)
	}

	hasAudio := false
	for _, s := range formatCtx.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeAudio {
			hasAudio = true
			break
		}
	}
	if !hasAudio {
		return 0, errors.New("no audio stream")
	}

	// Container duration is expressed in AV_TIME_BASE units (microseconds).
	return time.Duration(formatCtx.Duration()) * time.Microsecond, nil
}

// Ensure FFmpegProber implements ports.LocalFileProber.
var _ ports.LocalFileProber = (*FFmpegProber)(nil)
