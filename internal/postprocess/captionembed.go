package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"dihi/internal/captions"
	"dihi/internal/media"
	"dihi/internal/services/ffmpeg"
)

// captionEmbedStage muxes the best caption file into the merged container as
// a subtitle stream. Containers that already carry one are left alone, and
// containers with no subtitle codec support skip quietly.
type captionEmbedStage struct {
	runner    *ffmpeg.Runner
	languages []string
}

func (s *captionEmbedStage) Name() string { return "caption-embed" }

// subtitleCodecFor maps the merged container to its subtitle codec. Empty
// means the container cannot carry one.
func subtitleCodecFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4a":
		return "mov_text"
	case ".mkv", ".mka":
		return "srt"
	case ".webm":
		return "webvtt"
	default:
		return ""
	}
}

func (s *captionEmbedStage) Execute(ctx context.Context, item *media.Context) error {
	caption := captions.Choose(item, s.languages)
	if caption == "" {
		return nil
	}
	codec := subtitleCodecFor(item.MergedPath)
	if codec == "" {
		return nil
	}

	probe, err := s.runner.Probe(ctx, item.MergedPath)
	if err != nil {
		return err
	}
	if probe.HasSubtitleStream() {
		return nil
	}

	tmp := stagingPath(item.MergedPath)
	args := []string{
		"-y",
		"-i", item.MergedPath,
		"-i", caption,
		"-map", "0",
		"-map", "1:0",
		"-c", "copy",
		"-c:s", codec,
		tmp,
	}
	if err := s.runner.RunCreating(ctx, args, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, item.MergedPath)
}

// stagingPath keeps the extension so the tool infers the right container.
func stagingPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".tmp" + ext
}
