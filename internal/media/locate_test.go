package media

import (
	"os"
	"path/filepath"
	"testing"
)

const testItemID = "dQw4w9WgXcQ"

func writeItemDir(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, testItemID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func TestStripFormatToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"audio sidecar", "Artist.20240101 - Title [dQw4w9WgXcQ].f140.m4a", "Artist.20240101 - Title [dQw4w9WgXcQ].m4a"},
		{"video sidecar", "Title [dQw4w9WgXcQ].f399.mp4", "Title [dQw4w9WgXcQ].mp4"},
		{"dotted title untouched", "Mr. Bean v2.f1 [dQw4w9WgXcQ].mp4", "Mr. Bean v2.f1 [dQw4w9WgXcQ].mp4"},
		{"no marker", "Title [dQw4w9WgXcQ].mkv", "Title [dQw4w9WgXcQ].mkv"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFormatToken(tc.in); got != tc.want {
				t.Fatalf("StripFormatToken(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLocateFindsArtifacts(t *testing.T) {
	base := "Artist.20240101 - Title [" + testItemID + "]"
	root := writeItemDir(t, map[string]string{
		base + ".mp4":       "merged",
		base + ".f399.mp4":  "video sidecar",
		base + ".f140.m4a":  "audio sidecar",
		base + ".info.json": `{"id":"` + testItemID + `","title":"Title","channel":"Artist Channel","uploader":"Artist"}`,
		base + ".webp":      "thumb",
		base + ".en.vtt":    "WEBVTT",
		"unrelated.txt":     "ignored",
	})

	ctx, err := Locate(root, testItemID)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if filepath.Base(ctx.MergedPath) != base+".mp4" {
		t.Fatalf("merged = %q", ctx.MergedPath)
	}
	if filepath.Base(ctx.AudioSidecar) != base+".f140.m4a" {
		t.Fatalf("sidecar = %q", ctx.AudioSidecar)
	}
	if filepath.Base(ctx.Thumbnail) != base+".webp" {
		t.Fatalf("thumbnail = %q", ctx.Thumbnail)
	}
	if len(ctx.Subtitles) != 1 || filepath.Base(ctx.Subtitles[0]) != base+".en.vtt" {
		t.Fatalf("subtitles = %v", ctx.Subtitles)
	}
	if ctx.Meta.Title != "Title" {
		t.Fatalf("metadata title = %q", ctx.Meta.Title)
	}
	if got := ctx.Meta.ArtistName(); got != "Artist Channel" {
		t.Fatalf("artist = %q, want channel name", got)
	}
	if want := filepath.Join(ctx.Dir, base+".m4a"); ctx.DerivedAudioPath() != want {
		t.Fatalf("derived audio = %q, want %q", ctx.DerivedAudioPath(), want)
	}
}

func TestLocatePrefersPNGThumbnail(t *testing.T) {
	base := "Title [" + testItemID + "]"
	root := writeItemDir(t, map[string]string{
		base + ".mkv":  "merged",
		base + ".jpg":  "jpeg thumb",
		base + ".png":  "png thumb",
		base + ".webp": "webp thumb",
	})

	ctx, err := Locate(root, testItemID)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if filepath.Base(ctx.Thumbnail) != base+".png" {
		t.Fatalf("thumbnail = %q, want PNG preferred", ctx.Thumbnail)
	}
}

func TestLocateRequiresMergedArtifact(t *testing.T) {
	base := "Title [" + testItemID + "]"
	root := writeItemDir(t, map[string]string{
		base + ".f140.m4a": "sidecar only",
	})
	if _, err := Locate(root, testItemID); err == nil {
		t.Fatal("expected error when merged artifact is missing")
	}
}

func TestLocateMissingDirectory(t *testing.T) {
	if _, err := Locate(t.TempDir(), testItemID); err == nil {
		t.Fatal("expected error for missing item directory")
	}
}

func TestLocateRerunSkipsDerivedAudio(t *testing.T) {
	base := "Title [" + testItemID + "]"
	root := writeItemDir(t, map[string]string{
		base + ".mkv":      "merged",
		base + ".f140.m4a": "audio sidecar",
		base + ".m4a":      "derived audio from earlier run",
	})

	ctx, err := Locate(root, testItemID)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if filepath.Base(ctx.MergedPath) != base+".mkv" {
		t.Fatalf("merged = %q, want %q", ctx.MergedPath, base+".mkv")
	}
	if filepath.Base(ctx.AudioSidecar) != base+".f140.m4a" {
		t.Fatalf("sidecar = %q", ctx.AudioSidecar)
	}
	if want := filepath.Join(ctx.Dir, base+".m4a"); ctx.DerivedAudioPath() != want {
		t.Fatalf("derived audio = %q, want %q", ctx.DerivedAudioPath(), want)
	}
}

func TestLocateAudioOnlyWithSidecar(t *testing.T) {
	base := "Title [" + testItemID + "]"
	root := writeItemDir(t, map[string]string{
		base + ".m4a":      "audio-only merged",
		base + ".f140.m4a": "retained sidecar",
	})

	ctx, err := Locate(root, testItemID)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if filepath.Base(ctx.MergedPath) != base+".m4a" {
		t.Fatalf("merged = %q, want the lone audio container", ctx.MergedPath)
	}
}

func TestLocateAudioOnlyMerged(t *testing.T) {
	base := "Title [" + testItemID + "]"
	root := writeItemDir(t, map[string]string{
		base + ".m4a": "audio-only merged",
	})
	ctx, err := Locate(root, testItemID)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if filepath.Base(ctx.MergedPath) != base+".m4a" {
		t.Fatalf("merged = %q", ctx.MergedPath)
	}
	if ctx.AudioSidecar != "" {
		t.Fatalf("sidecar = %q, want none", ctx.AudioSidecar)
	}
	if ctx.Meta.ID != testItemID {
		t.Fatalf("metadata id fallback = %q", ctx.Meta.ID)
	}
}
