package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"dihi/internal/media"
	"dihi/internal/services/ffmpeg"
)

// metadataStage embeds title, attribution, description, and chapter markers
// into the merged container. A container already carrying a title tag is
// treated as done.
type metadataStage struct {
	runner *ffmpeg.Runner
}

func (s *metadataStage) Name() string { return "metadata" }

func (s *metadataStage) Execute(ctx context.Context, item *media.Context) error {
	meta := item.Meta
	if meta.Title == "" && meta.ArtistName() == "" && len(meta.Chapters) == 0 {
		return nil
	}

	probe, err := s.runner.Probe(ctx, item.MergedPath)
	if err != nil {
		return err
	}
	if probe.HasFormatTag("title") {
		return nil
	}

	tmp := stagingPath(item.MergedPath)
	args := []string{"-y", "-i", item.MergedPath}

	chapterFile := ""
	if len(meta.Chapters) > 0 {
		chapterFile = filepath.Join(item.Dir, "."+item.ItemID+".ffmeta")
		if err := os.WriteFile(chapterFile, []byte(renderChapterMetadata(meta.Chapters)), 0o644); err != nil {
			return err
		}
		defer os.Remove(chapterFile)
		args = append(args, "-i", chapterFile, "-map_metadata", "1", "-map_chapters", "1")
	}

	args = append(args, "-map", "0", "-c", "copy")
	args = append(args, tagArgs(meta)...)
	args = append(args, tmp)

	// Plain stream copies can drop caption streams from audio-only
	// containers, so the copy directive is stated outright there.
	if !probe.HasVideoStream() && probe.HasSubtitleStream() {
		args = ffmpeg.EnsureSubtitleCopy(args)
	}

	if err := s.runner.RunCreating(ctx, args, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, item.MergedPath)
}

// tagArgs renders the shared tag set. Empty fields are omitted rather than
// written blank.
func tagArgs(meta media.Metadata) []string {
	var args []string
	add := func(key, value string) {
		if value != "" {
			args = append(args, "-metadata", key+"="+value)
		}
	}
	add("title", meta.Title)
	add("artist", meta.ArtistName())
	add("date", meta.UploadDate)
	add("description", meta.Description)
	add("comment", meta.WebpageURL)
	if meta.PlaylistTitle != "" {
		add("album", meta.PlaylistTitle)
		if meta.PlaylistIndex > 0 {
			args = append(args, "-metadata", "track="+strconv.Itoa(meta.PlaylistIndex))
		}
	}
	return args
}
