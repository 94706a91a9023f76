package ffmpeg

import (
	"context"
	"encoding/json"
	"strings"

	"dihi/internal/services"
)

// StreamInfo describes one stream reported by ffprobe.
type StreamInfo struct {
	Index       int               `json:"index"`
	CodecType   string            `json:"codec_type"`
	CodecName   string            `json:"codec_name"`
	Disposition map[string]int    `json:"disposition"`
	Tags        map[string]string `json:"tags"`
}

// FormatInfo carries the container-level metadata reported by ffprobe.
type FormatInfo struct {
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

// ProbeResult is the parsed ffprobe report for one file.
type ProbeResult struct {
	Streams []StreamInfo `json:"streams"`
	Format  FormatInfo   `json:"format"`
}

// HasVideoStream reports whether any real video stream is present. Attached
// pictures count as video streams in the container but not here.
func (p ProbeResult) HasVideoStream() bool {
	for _, stream := range p.Streams {
		if stream.CodecType != "video" {
			continue
		}
		if stream.Disposition["attached_pic"] == 1 {
			continue
		}
		return true
	}
	return false
}

// VideoStreamCount counts the video streams in the container, attached
// pictures included. A stream appended by a later mux lands at this index.
func (p ProbeResult) VideoStreamCount() int {
	count := 0
	for _, stream := range p.Streams {
		if stream.CodecType == "video" {
			count++
		}
	}
	return count
}

// HasSubtitleStream reports whether the file carries a subtitle stream.
func (p ProbeResult) HasSubtitleStream() bool {
	for _, stream := range p.Streams {
		if stream.CodecType == "subtitle" {
			return true
		}
	}
	return false
}

// HasAttachedPicture reports whether cover art is already embedded, either as
// an attached-picture video stream or as a container attachment.
func (p ProbeResult) HasAttachedPicture() bool {
	for _, stream := range p.Streams {
		if stream.Disposition["attached_pic"] == 1 {
			return true
		}
		if stream.CodecType == "attachment" {
			if mime := stream.Tags["mimetype"]; strings.HasPrefix(mime, "image/") {
				return true
			}
		}
	}
	return false
}

// HasFormatTag reports whether the container carries the named metadata tag.
// Tag names compare case-insensitively since containers disagree on casing.
func (p ProbeResult) HasFormatTag(name string) bool {
	for key := range p.Format.Tags {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

// Probe inspects a media file and returns its stream and format report.
func (r *Runner) Probe(ctx context.Context, path string) (ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	}
	stdout, err := r.exec.Run(ctx, r.ffprobe, args)
	if err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "ffprobe", "probe", "", err)
	}
	var result ProbeResult
	if err := json.Unmarshal(stdout, &result); err != nil {
		return ProbeResult{}, services.Wrap(services.ErrExternalTool, "ffprobe", "probe", "unparseable report", err)
	}
	return result, nil
}
