package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"dihi/internal/media"
	"dihi/internal/services/ffmpeg"
)

// thumbnailStage converts the downloaded thumbnail to PNG so every later
// consumer deals with one format. Items without a thumbnail pass through.
type thumbnailStage struct {
	runner *ffmpeg.Runner
}

func (s *thumbnailStage) Name() string { return "thumbnail" }

func (s *thumbnailStage) Execute(ctx context.Context, item *media.Context) error {
	if item.Thumbnail == "" {
		return nil
	}
	if strings.EqualFold(filepath.Ext(item.Thumbnail), ".png") {
		return nil
	}

	target := strings.TrimSuffix(item.Thumbnail, filepath.Ext(item.Thumbnail)) + ".png"
	if _, err := os.Stat(target); err == nil {
		item.Thumbnail = target
		return nil
	}

	args := []string{"-y", "-i", item.Thumbnail, target}
	if err := s.runner.RunCreating(ctx, args, target); err != nil {
		return err
	}
	item.Thumbnail = target
	return nil
}
