package postprocess

import (
	"fmt"
	"strings"

	"dihi/internal/media"
)

// ffmetadataEscape protects the characters the ffmetadata format treats as
// structure.
func ffmetadataEscape(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		"=", `\=`,
		";", `\;`,
		"#", `\#`,
		"\n", `\`+"\n",
	)
	return replacer.Replace(value)
}

// renderChapterMetadata builds an ffmetadata document carrying only chapter
// markers, millisecond timebase.
func renderChapterMetadata(chapters []media.Chapter) string {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	for _, chapter := range chapters {
		b.WriteString("[CHAPTER]\n")
		b.WriteString("TIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\n", int64(chapter.Start*1000))
		fmt.Fprintf(&b, "END=%d\n", int64(chapter.End*1000))
		fmt.Fprintf(&b, "title=%s\n", ffmetadataEscape(chapter.Title))
	}
	return b.String()
}
