package media

import (
	"encoding/json"
	"fmt"
	"os"
)

// Chapter is one chapter marker from the item metadata.
type Chapter struct {
	Title string  `json:"title"`
	Start float64 `json:"start_time"`
	End   float64 `json:"end_time"`
}

// Metadata is the subset of the engine's info JSON that post-processing
// consumes. Everything else in the document is ignored.
type Metadata struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Uploader      string    `json:"uploader"`
	Channel       string    `json:"channel"`
	UploadDate    string    `json:"upload_date"`
	Description   string    `json:"description"`
	WebpageURL    string    `json:"webpage_url"`
	PlaylistTitle string    `json:"playlist_title"`
	PlaylistIndex int       `json:"playlist_index"`
	Chapters      []Chapter `json:"chapters"`
	Subtitles     map[string][]SubtitleRef `json:"subtitles"`
	AutoCaptions  map[string][]SubtitleRef `json:"automatic_captions"`
}

// SubtitleRef is one declared caption rendition for a language.
type SubtitleRef struct {
	Ext      string `json:"ext"`
	Filepath string `json:"filepath"`
}

// ArtistName prefers the channel name over the uploader handle, matching how
// the upstream site presents attribution.
func (m Metadata) ArtistName() string {
	if m.Channel != "" {
		return m.Channel
	}
	return m.Uploader
}

// ReadMetadata parses an info JSON file.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return meta, nil
}
