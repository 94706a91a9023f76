package ffmpeg

// EnsureSubtitleCopy injects an explicit subtitle codec-copy directive into a
// metadata-embed argument list when none is present. Some tool builds drop
// caption streams from audio-only containers during a plain stream copy, so
// the directive is stated outright rather than relied on implicitly. The
// output path must be the final argument.
func EnsureSubtitleCopy(args []string) []string {
	if len(args) == 0 {
		return args
	}
	for _, arg := range args {
		if arg == "-c:s" {
			return args
		}
	}
	out := make([]string, 0, len(args)+2)
	out = append(out, args[:len(args)-1]...)
	out = append(out, "-c:s", "copy", args[len(args)-1])
	return out
}
