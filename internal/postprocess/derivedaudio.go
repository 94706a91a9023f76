package postprocess

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dihi/internal/captions"
	"dihi/internal/media"
	"dihi/internal/services/ffmpeg"
)

// derivedAudioStage builds the tagged audio artifact from the retained
// single-format audio sidecar: stream copy plus cover art, item tags,
// transcript lyrics, and chapter markers as the output container allows.
// Items whose downloads kept no audio sidecar are a no-op, as are items
// whose artifact already exists.
type derivedAudioStage struct {
	runner    *ffmpeg.Runner
	languages []string
}

func (s *derivedAudioStage) Name() string { return "derived-audio" }

// containerFamily groups audio containers by their tagging model.
type containerFamily int

const (
	familyMPEG4 containerFamily = iota
	familyMatroska
	familyVorbis
)

func familyFor(path string) containerFamily {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m4a", ".mp4", ".mp3", ".aac":
		return familyMPEG4
	case ".mka", ".webm":
		return familyMatroska
	default:
		return familyVorbis
	}
}

func (s *derivedAudioStage) Execute(ctx context.Context, item *media.Context) error {
	if item.AudioSidecar == "" {
		return nil
	}
	output := item.DerivedAudioPath()
	if _, err := os.Stat(output); err == nil {
		return nil
	}

	family := familyFor(output)

	lyrics := ""
	if caption := captions.Choose(item, s.languages); caption != "" {
		text, err := captions.ExtractText(caption)
		if err != nil {
			return err
		}
		lyrics = text
	}

	cover := ""
	if family == familyMPEG4 || family == familyMatroska {
		resolved, err := s.resolveCover(ctx, item)
		if err != nil {
			return err
		}
		cover = resolved
	}

	chapterFile := ""
	if len(item.Meta.Chapters) > 0 && family != familyVorbis {
		chapterFile = filepath.Join(item.Dir, "."+item.ItemID+".audio.ffmeta")
		if err := os.WriteFile(chapterFile, []byte(renderChapterMetadata(item.Meta.Chapters)), 0o644); err != nil {
			return err
		}
		defer os.Remove(chapterFile)
	}

	args := buildAudioArgs(item, family, cover, chapterFile, lyrics, output)
	return s.runner.RunCreating(ctx, args, output)
}

// resolveCover returns the cover image path, re-encoding to PNG when the
// thumbnail is in a format the target container rejects. A failed re-encode
// drops the cover rather than the stage.
func (s *derivedAudioStage) resolveCover(ctx context.Context, item *media.Context) (string, error) {
	if item.Thumbnail == "" {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(item.Thumbnail))
	if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
		return item.Thumbnail, nil
	}
	converted := strings.TrimSuffix(item.Thumbnail, ext) + ".png"
	if _, err := os.Stat(converted); err == nil {
		return converted, nil
	}
	if err := s.runner.RunCreating(ctx, []string{"-y", "-i", item.Thumbnail, converted}, converted); err != nil {
		return "", nil
	}
	return converted, nil
}

// buildAudioArgs assembles the single tool invocation that produces the
// tagged audio artifact.
func buildAudioArgs(item *media.Context, family containerFamily, cover, chapterFile, lyrics, output string) []string {
	args := []string{"-y", "-i", item.AudioSidecar}
	nextInput := 1

	coverInput := -1
	if cover != "" && family == familyMPEG4 {
		args = append(args, "-i", cover)
		coverInput = nextInput
		nextInput++
	}
	if chapterFile != "" {
		args = append(args, "-i", chapterFile)
		args = append(args, "-map_metadata", strconv.Itoa(nextInput), "-map_chapters", strconv.Itoa(nextInput))
		nextInput++
	}

	args = append(args, "-map", "0:a")
	if coverInput >= 0 {
		args = append(args, "-map", strconv.Itoa(coverInput)+":v")
	}
	args = append(args, "-c", "copy")
	if coverInput >= 0 {
		args = append(args, "-disposition:v:0", "attached_pic")
	}
	if cover != "" && family == familyMatroska {
		args = append(args,
			"-attach", cover,
			"-metadata:s:t", "mimetype="+coverMimeType(cover),
			"-metadata:s:t", "filename=cover"+filepath.Ext(cover),
		)
	}

	args = append(args, tagArgs(item.Meta)...)
	if lyrics != "" {
		key := "LYRICS"
		if family == familyMPEG4 {
			key = "lyrics"
		}
		args = append(args, "-metadata", key+"="+lyrics)
	}

	return append(args, output)
}
