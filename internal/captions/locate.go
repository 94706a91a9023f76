package captions

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"

	"dihi/internal/media"
)

// Choose selects the caption file to flatten for an item. Renditions the
// metadata declares win over a filesystem scan, human-authored captions win
// over auto-generated ones, and within each group the configured languages
// rank the candidates. Returns "" when no caption file exists.
func Choose(ctx *media.Context, preferred []string) string {
	matcher := newMatcher(preferred)

	if path := bestDeclared(ctx.Meta.Subtitles, matcher); path != "" {
		return path
	}
	if path := bestDeclared(ctx.Meta.AutoCaptions, matcher); path != "" {
		return path
	}
	return bestOnDisk(ctx.Subtitles, matcher)
}

func newMatcher(preferred []string) language.Matcher {
	var tags []language.Tag
	for _, code := range preferred {
		if tag, err := language.Parse(code); err == nil {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.English}
	}
	return language.NewMatcher(tags)
}

func confidence(matcher language.Matcher, code string) int {
	tag, err := language.Parse(normalizeLangCode(code))
	if err != nil {
		return 0
	}
	_, _, conf := matcher.Match(tag)
	return int(conf)
}

// normalizeLangCode drops rendition suffixes like "en-orig" down to a
// parseable language code.
func normalizeLangCode(code string) string {
	if idx := strings.Index(code, "-orig"); idx > 0 {
		return code[:idx]
	}
	return code
}

func bestDeclared(declared map[string][]media.SubtitleRef, matcher language.Matcher) string {
	bestPath := ""
	bestScore := -1
	for lang, refs := range declared {
		score := confidence(matcher, lang)
		for _, ref := range refs {
			if ref.Filepath == "" {
				continue
			}
			if _, err := os.Stat(ref.Filepath); err != nil {
				continue
			}
			refScore := score*10 + extScore(ref.Ext)
			if refScore > bestScore || (refScore == bestScore && ref.Filepath < bestPath) {
				bestScore = refScore
				bestPath = ref.Filepath
			}
		}
	}
	return bestPath
}

func bestOnDisk(paths []string, matcher language.Matcher) string {
	bestPath := ""
	bestScore := -1
	for _, path := range paths {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		score := confidence(matcher, langFromName(path))*10 + extScore(ext)
		if score > bestScore || (score == bestScore && path < bestPath) {
			bestScore = score
			bestPath = path
		}
	}
	return bestPath
}

// langFromName pulls the language code out of names like
// "Title [id].en.vtt"; it is the component between the final two dots.
func langFromName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		return base[idx+1:]
	}
	return ""
}

func extScore(ext string) int {
	if strings.EqualFold(ext, "vtt") {
		return 1
	}
	return 0
}
