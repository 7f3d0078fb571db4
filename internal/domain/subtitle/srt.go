// Package subtitle renders timed transcript fragments as SubRip (.srt) text.
package subtitle

import (
	"fmt"
	"strings"

	"mediascribe-server-go/internal/domain/transcript/model"
)

// RenderSRT produces an SRT document from fragments. Fragments without text
// are skipped; a fragment with a translation uses it in place of the source
// text. Cue numbering is continuous regardless of skipped fragments.
func RenderSRT(fragments []model.Fragment) string {
	var b strings.Builder
	cue := 1
	for _, frag := range fragments {
		text := frag.Text
		if frag.Translated != "" {
			text = frag.Translated
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			cue, Timestamp(frag.Start), Timestamp(frag.End), text)
		cue++
	}
	return b.String()
}

// Timestamp formats seconds as an SRT time code, HH:MM:SS,mmm.
func Timestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int(seconds*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d:%02d,%03d",
		ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
