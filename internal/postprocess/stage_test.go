package postprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"dihi/internal/logging"
	"dihi/internal/media"
	"dihi/internal/services"
	"dihi/internal/services/ffmpeg"
)

type execCall struct {
	binary string
	args   []string
}

// scriptedExecutor answers ffprobe calls with a canned report and simulates
// ffmpeg runs by creating the output file named by the final argument.
type scriptedExecutor struct {
	probeReport string
	ffmpegErr   error
	calls       []execCall
}

func (e *scriptedExecutor) Run(_ context.Context, binary string, args []string) ([]byte, error) {
	e.calls = append(e.calls, execCall{binary: binary, args: append([]string(nil), args...)})
	if binary == "ffprobe" {
		return []byte(e.probeReport), nil
	}
	if e.ffmpegErr != nil {
		return nil, e.ffmpegErr
	}
	output := args[len(args)-1]
	if err := os.WriteFile(output, []byte("output"), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

func (e *scriptedExecutor) ffmpegCalls() []execCall {
	var out []execCall
	for _, call := range e.calls {
		if call.binary == "ffmpeg" {
			out = append(out, call)
		}
	}
	return out
}

func newTestRunner(t *testing.T, exec ffmpeg.Executor) *ffmpeg.Runner {
	t.Helper()
	runner, err := ffmpeg.NewRunner("ffmpeg", "ffprobe", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return runner
}

const (
	audioOnlyReport = `{"streams":[{"index":0,"codec_type":"audio","codec_name":"aac"}],"format":{"tags":{}}}`
	videoReport     = `{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"aac"}],"format":{"tags":{}}}`
)

func itemContext(t *testing.T, files map[string]string) *media.Context {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "dQw4w9WgXcQ")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	item := &media.Context{ItemID: "dQw4w9WgXcQ", Dir: dir}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		switch {
		case media.HasFormatToken(name):
			if strings.HasSuffix(name, ".m4a") {
				item.AudioSidecar = path
			}
		case strings.HasSuffix(name, ".mp4") || strings.HasSuffix(name, ".m4a"):
			item.MergedPath = path
		case strings.HasSuffix(name, ".vtt"):
			item.Subtitles = append(item.Subtitles, path)
		case strings.HasSuffix(name, ".webp") || strings.HasSuffix(name, ".png"):
			item.Thumbnail = path
		}
	}
	return item
}

func TestThumbnailStageConverts(t *testing.T) {
	exec := &scriptedExecutor{}
	stage := &thumbnailStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{"v [dQw4w9WgXcQ].webp": "img"})

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	wantOut := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].png")
	wantArgs := []string{"-y", "-i", filepath.Join(item.Dir, "v [dQw4w9WgXcQ].webp"), wantOut}
	if !reflect.DeepEqual(calls[0].args, wantArgs) {
		t.Fatalf("args = %v, want %v", calls[0].args, wantArgs)
	}
	if item.Thumbnail != wantOut {
		t.Fatalf("thumbnail = %q, want %q", item.Thumbnail, wantOut)
	}
}

func TestThumbnailStageSkipsExistingOutput(t *testing.T) {
	exec := &scriptedExecutor{}
	stage := &thumbnailStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].webp": "img",
		"v [dQw4w9WgXcQ].png":  "converted",
	})
	item.Thumbnail = filepath.Join(item.Dir, "v [dQw4w9WgXcQ].webp")

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("unexpected tool calls: %v", exec.calls)
	}
	if filepath.Base(item.Thumbnail) != "v [dQw4w9WgXcQ].png" {
		t.Fatalf("thumbnail = %q", item.Thumbnail)
	}
}

func TestCaptionEmbedMuxesAndReplaces(t *testing.T) {
	exec := &scriptedExecutor{probeReport: videoReport}
	stage := &captionEmbedStage{runner: newTestRunner(t, exec), languages: []string{"en"}}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].mp4":    "merged",
		"v [dQw4w9WgXcQ].en.vtt": "WEBVTT",
	})

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	tmp := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].tmp.mp4")
	want := []string{
		"-y",
		"-i", item.MergedPath,
		"-i", item.Subtitles[0],
		"-map", "0",
		"-map", "1:0",
		"-c", "copy",
		"-c:s", "mov_text",
		tmp,
	}
	if !reflect.DeepEqual(calls[0].args, want) {
		t.Fatalf("args = %v, want %v", calls[0].args, want)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatal("staging file left behind")
	}
	if _, err := os.Stat(item.MergedPath); err != nil {
		t.Fatalf("merged artifact missing after rename: %v", err)
	}
}

func TestCaptionEmbedSkipsWhenStreamPresent(t *testing.T) {
	report := `{"streams":[{"index":0,"codec_type":"audio"},{"index":1,"codec_type":"subtitle"}],"format":{"tags":{}}}`
	exec := &scriptedExecutor{probeReport: report}
	stage := &captionEmbedStage{runner: newTestRunner(t, exec), languages: []string{"en"}}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].mp4":    "merged",
		"v [dQw4w9WgXcQ].en.vtt": "WEBVTT",
	})

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls := exec.ffmpegCalls(); len(calls) != 0 {
		t.Fatalf("unexpected ffmpeg calls: %v", calls)
	}
}

func TestMetadataStageInjectsSubtitleCopyForAudioOnly(t *testing.T) {
	report := `{"streams":[{"index":0,"codec_type":"audio"},{"index":1,"codec_type":"subtitle"}],"format":{"tags":{}}}`
	exec := &scriptedExecutor{probeReport: report}
	stage := &metadataStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{"v [dQw4w9WgXcQ].m4a": "merged"})
	item.Meta = media.Metadata{Title: "Song", Uploader: "Artist"}

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	tmp := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].tmp.m4a")
	want := []string{
		"-y",
		"-i", item.MergedPath,
		"-map", "0",
		"-c", "copy",
		"-metadata", "title=Song",
		"-metadata", "artist=Artist",
		"-c:s", "copy",
		tmp,
	}
	if !reflect.DeepEqual(calls[0].args, want) {
		t.Fatalf("args = %v, want %v", calls[0].args, want)
	}
}

func TestMetadataStageSkipsTaggedContainer(t *testing.T) {
	report := `{"streams":[{"index":0,"codec_type":"audio"}],"format":{"tags":{"title":"Existing"}}}`
	exec := &scriptedExecutor{probeReport: report}
	stage := &metadataStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{"v [dQw4w9WgXcQ].m4a": "merged"})
	item.Meta = media.Metadata{Title: "Song"}

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls := exec.ffmpegCalls(); len(calls) != 0 {
		t.Fatalf("unexpected ffmpeg calls: %v", calls)
	}
}

func TestDerivedAudioNoSidecarIsNoop(t *testing.T) {
	exec := &scriptedExecutor{}
	stage := &derivedAudioStage{runner: newTestRunner(t, exec), languages: []string{"en"}}
	item := itemContext(t, map[string]string{"v [dQw4w9WgXcQ].mp4": "merged"})

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("unexpected tool calls: %v", exec.calls)
	}
}

func TestDerivedAudioSkipsExistingArtifact(t *testing.T) {
	exec := &scriptedExecutor{}
	stage := &derivedAudioStage{runner: newTestRunner(t, exec), languages: []string{"en"}}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].mp4":      "merged",
		"v [dQw4w9WgXcQ].f140.m4a": "sidecar",
		"v [dQw4w9WgXcQ].m4a":      "already built",
	})
	item.AudioSidecar = filepath.Join(item.Dir, "v [dQw4w9WgXcQ].f140.m4a")

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("unexpected tool calls: %v", exec.calls)
	}
}

func TestCoverArtAudioOnlyDisposition(t *testing.T) {
	exec := &scriptedExecutor{probeReport: audioOnlyReport}
	stage := &coverArtStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].m4a": "merged",
		"v [dQw4w9WgXcQ].png": "cover",
	})

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	tmp := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].tmp.m4a")
	want := []string{
		"-y",
		"-i", item.MergedPath,
		"-i", item.Thumbnail,
		"-map", "0",
		"-map", "1",
		"-c", "copy",
		"-disposition:v:0", "attached_pic",
		tmp,
	}
	if !reflect.DeepEqual(calls[0].args, want) {
		t.Fatalf("args = %v\nwant %v", calls[0].args, want)
	}
	if _, err := os.Stat(item.MergedPath); err != nil {
		t.Fatalf("merged artifact missing after rename: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatal("staging file left behind")
	}
}

func TestCoverArtVideoDisposition(t *testing.T) {
	exec := &scriptedExecutor{probeReport: videoReport}
	stage := &coverArtStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].mp4": "merged",
		"v [dQw4w9WgXcQ].png": "cover",
	})

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	got := calls[0].args
	found := false
	for i := 0; i < len(got)-1; i++ {
		if got[i] == "-disposition:v:1" && got[i+1] == "attached_pic" {
			found = true
		}
	}
	if !found {
		t.Fatalf("args = %v, want cover disposition on v:1", got)
	}
}

func TestCoverArtMatroskaAttachesJPEG(t *testing.T) {
	exec := &scriptedExecutor{probeReport: videoReport}
	stage := &coverArtStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].jpg": "cover",
	})
	merged := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].mkv")
	if err := os.WriteFile(merged, []byte("merged"), 0o644); err != nil {
		t.Fatalf("write merged: %v", err)
	}
	item.MergedPath = merged
	item.Thumbnail = filepath.Join(item.Dir, "v [dQw4w9WgXcQ].jpg")

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	want := []string{
		"-y",
		"-i", merged,
		"-map", "0",
		"-c", "copy",
		"-attach", item.Thumbnail,
		"-metadata:s:t", "mimetype=image/jpeg",
		"-metadata:s:t", "filename=cover.jpg",
		filepath.Join(item.Dir, "v [dQw4w9WgXcQ].tmp.mkv"),
	}
	if !reflect.DeepEqual(calls[0].args, want) {
		t.Fatalf("args = %v\nwant %v", calls[0].args, want)
	}
}

func TestCoverArtSkipsWhenAlreadyEmbedded(t *testing.T) {
	report := `{"streams":[{"index":0,"codec_type":"audio","codec_name":"aac"},{"index":1,"codec_type":"video","codec_name":"png","disposition":{"attached_pic":1}}],"format":{"tags":{}}}`
	exec := &scriptedExecutor{probeReport: report}
	stage := &coverArtStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].m4a": "merged",
		"v [dQw4w9WgXcQ].png": "cover",
	})

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls := exec.ffmpegCalls(); len(calls) != 0 {
		t.Fatalf("unexpected ffmpeg calls: %v", calls)
	}
}

func TestDerivedAudioBuildsTaggedArtifact(t *testing.T) {
	exec := &scriptedExecutor{}
	stage := &derivedAudioStage{runner: newTestRunner(t, exec), languages: []string{"en"}}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].mp4":      "merged",
		"v [dQw4w9WgXcQ].f140.m4a": "sidecar",
		"v [dQw4w9WgXcQ].png":      "cover",
		"v [dQw4w9WgXcQ].en.vtt":   "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nHello\n",
	})
	item.Meta = media.Metadata{
		Title:      "Song",
		Channel:    "Artist Channel",
		UploadDate: "20240101",
		WebpageURL: "https://example.invalid/watch?v=dQw4w9WgXcQ",
		Chapters:   []media.Chapter{{Title: "Intro", Start: 0, End: 12.5}},
	}

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	output := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].m4a")
	chapterFile := filepath.Join(item.Dir, ".dQw4w9WgXcQ.audio.ffmeta")
	want := []string{
		"-y",
		"-i", item.AudioSidecar,
		"-i", item.Thumbnail,
		"-i", chapterFile,
		"-map_metadata", "2",
		"-map_chapters", "2",
		"-map", "0:a",
		"-map", "1:v",
		"-c", "copy",
		"-disposition:v:0", "attached_pic",
		"-metadata", "title=Song",
		"-metadata", "artist=Artist Channel",
		"-metadata", "date=20240101",
		"-metadata", "comment=https://example.invalid/watch?v=dQw4w9WgXcQ",
		"-metadata", "lyrics=Hello",
		output,
	}
	if !reflect.DeepEqual(calls[0].args, want) {
		t.Fatalf("args = %v\nwant %v", calls[0].args, want)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if _, err := os.Stat(chapterFile); !os.IsNotExist(err) {
		t.Fatal("chapter sidecar left behind")
	}
}

func TestDerivedAudioVorbisFamilyDropsCover(t *testing.T) {
	exec := &scriptedExecutor{}
	stage := &derivedAudioStage{runner: newTestRunner(t, exec), languages: []string{"en"}}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].mp4": "merged",
		"v [dQw4w9WgXcQ].png": "cover",
	})
	sidecar := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].f251.opus")
	if err := os.WriteFile(sidecar, []byte("sidecar"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	item.AudioSidecar = sidecar
	item.Meta = media.Metadata{Title: "Song"}

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	want := []string{
		"-y",
		"-i", sidecar,
		"-map", "0:a",
		"-c", "copy",
		"-metadata", "title=Song",
		filepath.Join(item.Dir, "v [dQw4w9WgXcQ].opus"),
	}
	if !reflect.DeepEqual(calls[0].args, want) {
		t.Fatalf("args = %v, want %v", calls[0].args, want)
	}
}

func TestDerivedAudioMatroskaAttachesJPEG(t *testing.T) {
	exec := &scriptedExecutor{}
	stage := &derivedAudioStage{runner: newTestRunner(t, exec)}
	item := itemContext(t, map[string]string{
		"v [dQw4w9WgXcQ].mp4": "merged",
		"v [dQw4w9WgXcQ].jpg": "cover",
	})
	sidecar := filepath.Join(item.Dir, "v [dQw4w9WgXcQ].f251.webm")
	if err := os.WriteFile(sidecar, []byte("sidecar"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	item.AudioSidecar = sidecar
	item.Thumbnail = filepath.Join(item.Dir, "v [dQw4w9WgXcQ].jpg")
	item.Meta = media.Metadata{Title: "Song"}

	if err := stage.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	calls := exec.ffmpegCalls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1", len(calls))
	}
	want := []string{
		"-y",
		"-i", sidecar,
		"-map", "0:a",
		"-c", "copy",
		"-attach", item.Thumbnail,
		"-metadata:s:t", "mimetype=image/jpeg",
		"-metadata:s:t", "filename=cover.jpg",
		"-metadata", "title=Song",
		filepath.Join(item.Dir, "v [dQw4w9WgXcQ].webm"),
	}
	if !reflect.DeepEqual(calls[0].args, want) {
		t.Fatalf("args = %v\nwant %v", calls[0].args, want)
	}
}

func TestRenderChapterMetadataEscapesValues(t *testing.T) {
	got := renderChapterMetadata([]media.Chapter{{Title: "A=B;C", Start: 1, End: 2}})
	want := ";FFMETADATA1\n[CHAPTER]\nTIMEBASE=1/1000\nSTART=1000\nEND=2000\ntitle=A\\=B\\;C\n"
	if got != want {
		t.Fatalf("rendered = %q, want %q", got, want)
	}
}

func TestPipelineAbortsOnStageFailure(t *testing.T) {
	boom := errors.New("boom")
	ran := []string{}
	pipeline := &Pipeline{
		logger: logging.NewNop(),
		stages: []Stage{
			stageFunc{name: "first", fn: func() error { ran = append(ran, "first"); return nil }},
			stageFunc{name: "second", fn: func() error { ran = append(ran, "second"); return boom }},
			stageFunc{name: "third", fn: func() error { ran = append(ran, "third"); return nil }},
		},
	}

	err := pipeline.Run(context.Background(), &media.Context{ItemID: "dQw4w9WgXcQ"})
	if !errors.Is(err, services.ErrStage) {
		t.Fatalf("error = %v, want ErrStage", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped cause", err)
	}
	if !reflect.DeepEqual(ran, []string{"first", "second"}) {
		t.Fatalf("ran = %v", ran)
	}
}

type stageFunc struct {
	name string
	fn   func() error
}

func (s stageFunc) Name() string                                  { return s.name }
func (s stageFunc) Execute(context.Context, *media.Context) error { return s.fn() }
