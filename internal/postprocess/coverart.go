package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dihi/internal/media"
	"dihi/internal/services/ffmpeg"
)

// coverArtStage embeds the normalized thumbnail into the merged container.
// MPEG-4 containers get an attached-picture stream, Matroska containers get
// an attachment. Other containers skip.
type coverArtStage struct {
	runner *ffmpeg.Runner
}

func (s *coverArtStage) Name() string { return "cover-art" }

func (s *coverArtStage) Execute(ctx context.Context, item *media.Context) error {
	if item.Thumbnail == "" {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(item.MergedPath))
	switch ext {
	case ".mp4", ".m4a", ".mkv", ".mka":
	default:
		return nil
	}

	probe, err := s.runner.Probe(ctx, item.MergedPath)
	if err != nil {
		return err
	}
	if probe.HasAttachedPicture() {
		return nil
	}

	var args []string
	tmp := stagingPath(item.MergedPath)

	switch ext {
	case ".mp4", ".m4a":
		// The cover lands after the input's video streams, so the
		// disposition specifier tracks the probed count. Audio-only
		// containers put it at v:0.
		coverStream := "v:" + strconv.Itoa(probe.VideoStreamCount())
		args = []string{
			"-y",
			"-i", item.MergedPath,
			"-i", item.Thumbnail,
			"-map", "0",
			"-map", "1",
			"-c", "copy",
			"-disposition:" + coverStream, "attached_pic",
			tmp,
		}
	case ".mkv", ".mka":
		args = []string{
			"-y",
			"-i", item.MergedPath,
			"-map", "0",
			"-c", "copy",
			"-attach", item.Thumbnail,
			"-metadata:s:t", "mimetype=" + coverMimeType(item.Thumbnail),
			"-metadata:s:t", "filename=cover" + filepath.Ext(item.Thumbnail),
			tmp,
		}
	}

	if err := s.runner.RunCreating(ctx, args, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, item.MergedPath)
}

// coverMimeType maps a cover image's extension to its attachment mimetype.
func coverMimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
