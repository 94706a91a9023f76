package captions

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxTextBytes bounds the flattened transcript. Longer transcripts are cut
// at the last whole line and marked.
const MaxTextBytes = 64 * 1024

// TruncationMarker terminates a transcript that was cut at the byte bound.
const TruncationMarker = "[transcript truncated]"

var (
	inlineTag    = regexp.MustCompile(`<[^>]*>`)
	cueIndexLine = regexp.MustCompile(`^\d+$`)
)

// ExtractText flattens a VTT or SRT caption file into transcript text:
// headers, cue identifiers, timestamps, and inline markup are dropped,
// consecutive duplicate lines collapse to one, and the result is bounded by
// MaxTextBytes.
func ExtractText(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open captions: %w", err)
	}
	defer file.Close()

	isVTT := strings.EqualFold(filepath.Ext(path), ".vtt")

	var lines []string
	inBlockComment := false
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			inBlockComment = false
			continue
		}
		if inBlockComment {
			continue
		}
		if isVTT {
			if strings.HasPrefix(line, "WEBVTT") ||
				strings.HasPrefix(line, "Kind:") ||
				strings.HasPrefix(line, "Language:") {
				continue
			}
			if strings.HasPrefix(line, "NOTE") ||
				strings.HasPrefix(line, "STYLE") ||
				strings.HasPrefix(line, "REGION") {
				inBlockComment = true
				continue
			}
		}
		if strings.Contains(line, "-->") {
			continue
		}
		if cueIndexLine.MatchString(line) {
			continue
		}
		text := strings.TrimSpace(inlineTag.ReplaceAllString(line, ""))
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read captions: %w", err)
	}

	return Truncate(strings.Join(CollapseConsecutive(lines), "\n"), MaxTextBytes), nil
}

// CollapseConsecutive drops lines identical to their predecessor.
// Auto-generated captions repeat each line as the cue window rolls, so this
// runs on every transcript. The collapse is idempotent.
func CollapseConsecutive(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	out := lines[:1]
	for _, line := range lines[1:] {
		if line == out[len(out)-1] {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Truncate bounds text to limit bytes, cutting at the last whole line and
// appending the truncation marker. Text within the bound passes through.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := strings.LastIndexByte(text[:limit], '\n')
	if cut < 0 {
		cut = 0
	}
	kept := strings.TrimRight(text[:cut], "\n")
	if kept == "" {
		return TruncationMarker
	}
	return kept + "\n" + TruncationMarker
}
