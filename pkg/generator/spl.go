package generator

import (
	"strings"

	"lyricconv/pkg/lyric"
)

func splStamp(ms uint64, angle bool) string {
	if angle {
		return "<" + clockMS(ms) + ">"
	}
	return "[" + clockMS(ms) + "]"
}

// generateSPL [start]text<mid>text[end]；翻译不带时间戳写在下一行，
// 与下一行不相接时用单独的 [end] 行结束
func generateSPL(doc *lyric.Document) string {
	var b strings.Builder
	for i := range doc.Lines {
		l := &doc.Lines[i]
		tl, ok := lineSyllables(l, lyric.ContentMain)
		if !ok {
			continue
		}

		b.WriteString(splStamp(tl.start, false))
		karaoke := !doc.IsLineTimed && len(tl.syllables) > 1
		if karaoke {
			if first := tl.syllables[0]; first.StartMS > tl.start {
				b.WriteString(splStamp(first.StartMS, true))
			}
			n := len(tl.syllables)
			for j, s := range tl.syllables {
				b.WriteString(syllableText(s, j == n-1))
				switch {
				case j == n-1:
					b.WriteString(splStamp(s.EndMS, false))
				case tl.syllables[j+1].StartMS != s.EndMS:
					b.WriteString(splStamp(s.EndMS, true))
					b.WriteString(splStamp(tl.syllables[j+1].StartMS, true))
				default:
					b.WriteString(splStamp(s.EndMS, true))
				}
			}
		} else {
			b.WriteString(strings.TrimSpace(l.Text()))
		}
		b.WriteByte('\n')

		if main := l.MainTrack(); main != nil {
			for _, t := range main.Translations {
				if text := strings.TrimSpace(t.Text()); text != "" {
					b.WriteString(text + "\n")
				}
			}
		}

		next := nextMainStart(doc.Lines, i)
		if !karaoke && (next < 0 || uint64(next) != tl.end) {
			b.WriteString(splStamp(tl.end, false) + "\n")
		}
	}
	return b.String()
}

func nextMainStart(lines []lyric.Line, i int) int64 {
	for j := i + 1; j < len(lines); j++ {
		if main := lines[j].MainTrack(); main != nil && !main.Content.IsEmpty() {
			return int64(lines[j].StartMS)
		}
	}
	return -1
}
