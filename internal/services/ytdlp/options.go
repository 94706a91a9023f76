package ytdlp

import (
	"fmt"
	"strconv"
	"strings"

	"dihi/internal/config"
	"dihi/internal/ident"
)

// OutputTemplate places every artifact for an item inside a per-ID directory
// and gives all sidecars one shared stem. The playlist title (or channel for
// single items) keeps collection downloads grouped under one readable stem.
// The bracketed [%(id)s] marker sits immediately before the extension so
// transient format-selector tokens can be stripped later without corrupting
// titles that contain dots.
const OutputTemplate = "%(id)s/%(uploader)s.%(playlist_title,channel)s.%(upload_date)s - %(title)s [%(id)s].%(ext)s"

const userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:147.0) Gecko/20100101 Firefox/147.0"

// FormatPair is one rung of the format preference ladder: a video stream
// paired with an audio stream.
type FormatPair struct {
	Video string
	Audio string
}

// DefaultLadder lists codec pairings from most to least efficient. The
// selector appends "best" and an audio-only fallback so a merged artifact is
// produced whenever any usable stream exists.
func DefaultLadder() []FormatPair {
	return []FormatPair{
		{Video: "399", Audio: "140"},
		{Video: "299", Audio: "140"},
		{Video: "137", Audio: "140"},
		{Video: "298", Audio: "140"},
		{Video: "136", Audio: "140"},
		{Video: "135", Audio: "140"},
		{Video: "134", Audio: "140"},
		{Video: "133", Audio: "140"},
		{Video: "160", Audio: "140"},
	}
}

// Options is the declarative configuration handed to the retrieval engine.
// Building one performs no I/O.
type Options struct {
	Target              string
	MergedDir           string
	ArchivePath         string
	Ladder              []FormatPair
	MergeContainer      string
	SubtitleLanguages   []string
	CookiesFile         string
	CookiesBrowser      string
	ChallengeSolver     bool
	SleepInterval       int
	MaxSleepInterval    int
	ConcurrentFragments int
}

// BuildOptions assembles the full option set for one target from config.
// The target may be a bare item ID, a bare collection ID, or a URL.
func BuildOptions(target string, cfg *config.Config) Options {
	return Options{
		Target:              CanonicalTarget(target),
		MergedDir:           cfg.Paths.MergedDir,
		ArchivePath:         cfg.Paths.ArchiveFile,
		Ladder:              DefaultLadder(),
		MergeContainer:      "mkv",
		SubtitleLanguages:   append([]string(nil), cfg.Fetch.SubtitleLanguages...),
		CookiesFile:         cfg.Fetch.CookiesFile,
		CookiesBrowser:      cfg.Fetch.CookiesBrowser,
		ChallengeSolver:     cfg.Fetch.ChallengeSolver,
		SleepInterval:       cfg.Fetch.SleepInterval,
		MaxSleepInterval:    cfg.Fetch.MaxSleepInterval,
		ConcurrentFragments: cfg.Fetch.ConcurrentFragments,
	}
}

// CanonicalTarget normalizes a bare ID into the URL form the retrieval
// engine expects. URLs pass through untouched.
func CanonicalTarget(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "://") {
		return s
	}
	if strings.HasPrefix(s, "www.") {
		return "https://" + s
	}
	if ident.IsItemID(s) {
		return "https://www.youtube.com/watch?v=" + s
	}
	if id, err := ident.NormalizeCollectionID(s); err == nil {
		return "https://www.youtube.com/playlist?list=" + id
	}
	return s
}

// FormatSelector renders the preference ladder top-down into the engine's
// selector syntax, ending with the loose and audio-only fallbacks.
func (o Options) FormatSelector() string {
	rungs := make([]string, 0, len(o.Ladder)+2)
	for _, pair := range o.Ladder {
		rungs = append(rungs, pair.Video+"+"+pair.Audio)
	}
	rungs = append(rungs, "best", "bestaudio")
	return strings.Join(rungs, "/")
}

// Args renders the options into the explicit argument list for a download
// invocation. The cookieFileOK flag tells the renderer whether the
// configured cookie jar actually exists; the caller stats it so this stays
// a pure function of its inputs.
func (o Options) Args(jsRuntimePath string, cookieFileOK bool) []string {
	args := []string{
		"--paths", "home:" + o.MergedDir,
		"--output", OutputTemplate,
		"--format", o.FormatSelector(),
		"--merge-output-format", o.MergeContainer,
		"--keep-video",
		"--download-archive", o.ArchivePath,
		"--no-overwrites",
		"--continue",
		"--ignore-errors",
		"--yes-playlist",
		"--retries", "infinite",
		"--fragment-retries", "infinite",
		"--concurrent-fragments", strconv.Itoa(o.ConcurrentFragments),
		"--sleep-interval", strconv.Itoa(o.SleepInterval),
		"--max-sleep-interval", strconv.Itoa(o.MaxSleepInterval),
		"--write-info-json",
		"--write-description",
		"--write-thumbnail",
		"--write-subs",
		"--write-auto-subs",
		"--user-agent", userAgent,
	}
	if len(o.SubtitleLanguages) > 0 {
		args = append(args, "--sub-langs", strings.Join(o.SubtitleLanguages, ","))
	}
	if o.CookiesFile != "" && cookieFileOK {
		args = append(args, "--cookies", o.CookiesFile)
	}
	if o.CookiesBrowser != "" {
		args = append(args, "--cookies-from-browser", o.CookiesBrowser)
	}
	if o.ChallengeSolver && jsRuntimePath != "" {
		args = append(args,
			"--js-runtimes", "deno:"+jsRuntimePath,
			"--remote-components", "ejs:github",
		)
	}
	return append(args, o.Target)
}

// EnumerateArgs renders the metadata-only argument list that lists a
// collection's member IDs without downloading anything.
func (o Options) EnumerateArgs(cookieFileOK bool) []string {
	args := []string{
		"--flat-playlist",
		"--skip-download",
		"--print", "%(id)s",
		"--user-agent", userAgent,
	}
	if o.CookiesFile != "" && cookieFileOK {
		args = append(args, "--cookies", o.CookiesFile)
	}
	if o.CookiesBrowser != "" {
		args = append(args, "--cookies-from-browser", o.CookiesBrowser)
	}
	return append(args, o.Target)
}

func (o Options) validate() error {
	if strings.TrimSpace(o.Target) == "" {
		return fmt.Errorf("target required")
	}
	if strings.TrimSpace(o.MergedDir) == "" {
		return fmt.Errorf("merged directory required")
	}
	if strings.TrimSpace(o.ArchivePath) == "" {
		return fmt.Errorf("archive path required")
	}
	return nil
}
