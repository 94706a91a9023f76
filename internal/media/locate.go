package media

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Context collects everything one worker needs to post-process a single
// item. It is owned by that worker and never shared.
type Context struct {
	ItemID       string
	Dir          string
	MergedPath   string
	InfoPath     string
	Thumbnail    string
	Subtitles    []string
	AudioSidecar string
	Meta         Metadata
}

// formatToken matches the transient single-format marker the engine leaves
// on retained sidecars, anchored immediately before the final extension so
// dotted titles survive stripping.
var formatToken = regexp.MustCompile(`\.f\d+(\.[A-Za-z0-9]+)$`)

// StripFormatToken removes a trailing .f<digits> marker from a file name,
// leaving the extension in place. Names without the marker pass through.
func StripFormatToken(name string) string {
	return formatToken.ReplaceAllString(name, "$1")
}

// HasFormatToken reports whether the name carries a single-format marker.
func HasFormatToken(name string) bool {
	return formatToken.MatchString(name)
}

var mergedExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".m4a":  true,
	".mp3":  true,
	".opus": true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
}

var audioSidecarExtensions = map[string]bool{
	".m4a":  true,
	".mp3":  true,
	".opus": true,
	".ogg":  true,
	".oga":  true,
	".aac":  true,
	".flac": true,
}

var thumbnailExtensions = []string{".png", ".webp", ".jpg", ".jpeg"}

// Locate reads the per-item directory under mergedDir and builds the
// processing context. The merged artifact is the container carrying the
// bracketed item ID without a format marker; its absence is an error since
// nothing downstream can run without it.
func Locate(mergedDir, itemID string) (*Context, error) {
	dir := filepath.Join(mergedDir, itemID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read item directory: %w", err)
	}

	marker := "[" + itemID + "]"
	ctx := &Context{ItemID: itemID, Dir: dir}
	var subtitles []string
	var mergedCandidates []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, marker) {
			continue
		}
		path := filepath.Join(dir, name)
		ext := strings.ToLower(filepath.Ext(name))

		switch {
		case strings.HasSuffix(name, ".info.json"):
			ctx.InfoPath = path
		case ext == ".vtt" || ext == ".srt":
			subtitles = append(subtitles, path)
		case isThumbnailExt(ext):
			if ctx.Thumbnail == "" || ext == ".png" {
				ctx.Thumbnail = path
			}
		case HasFormatToken(name):
			if audioSidecarExtensions[ext] && ctx.AudioSidecar == "" {
				ctx.AudioSidecar = path
			}
		case mergedExtensions[ext]:
			mergedCandidates = append(mergedCandidates, path)
		}
	}

	ctx.MergedPath = chooseMerged(mergedCandidates, ctx.AudioSidecar)
	if ctx.MergedPath == "" {
		return nil, fmt.Errorf("no merged artifact for %s in %s", itemID, dir)
	}

	sort.Strings(subtitles)
	ctx.Subtitles = subtitles

	if ctx.InfoPath != "" {
		meta, err := ReadMetadata(ctx.InfoPath)
		if err != nil {
			return nil, err
		}
		ctx.Meta = meta
	}
	if ctx.Meta.ID == "" {
		ctx.Meta.ID = itemID
	}
	return ctx, nil
}

// DerivedAudioPath is the output path for the tagged audio artifact: the
// sidecar name with its format marker stripped. Empty when no sidecar was
// retained.
func (c *Context) DerivedAudioPath() string {
	if c.AudioSidecar == "" {
		return ""
	}
	return filepath.Join(c.Dir, StripFormatToken(filepath.Base(c.AudioSidecar)))
}

// chooseMerged picks the merged artifact among the container candidates.
// The derived audio output shares the directory after a completed run and
// carries a merged extension, so the sidecar's token-stripped counterpart
// is skipped unless it is the only candidate (audio-only downloads).
func chooseMerged(candidates []string, sidecar string) string {
	if len(candidates) == 0 {
		return ""
	}
	if sidecar == "" {
		return candidates[0]
	}
	derived := StripFormatToken(filepath.Base(sidecar))
	for _, candidate := range candidates {
		if filepath.Base(candidate) != derived {
			return candidate
		}
	}
	return candidates[0]
}

func isThumbnailExt(ext string) bool {
	for _, candidate := range thumbnailExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}
