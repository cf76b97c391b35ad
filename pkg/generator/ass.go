package generator

import (
	"fmt"
	"strings"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/metadata"
)

const assHeader = `[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1440

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,100,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,1,2,10,10,10,1
Style: orig,Arial,100,&H00FFFFFF,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,2,1,2,10,10,10,1
Style: ts,Arial,60,&H00D3D3D3,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,1,2,10,10,60,1
Style: roma,Arial,60,&H00D3D3D3,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,1,2,10,10,60,1
Style: bg-ts,Arial,55,&H00A0A0A0,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,1,2,10,10,80,1
Style: bg-roma,Arial,55,&H00A0A0A0,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,1,2,10,10,80,1
Style: meta,Arial,50,&H00C0C0C0,&H000000FF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,1,0,1,0,0,0,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// formatASSTime h:mm:ss.cc，四舍五入到厘秒
func formatASSTime(ms uint64) string {
	cs := (ms + 5) / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", cs/360000, cs/6000%60, cs/100%60, cs%100)
}

func roundCS(ms uint64) uint64 {
	return (ms + 5) / 10
}

// assKaraoke 每个音节前写 {\kNN}，音节间的空隙用不带文本的 {\kNN} 补齐
func assKaraoke(syls []lyric.Syllable, lineStart uint64) string {
	var b strings.Builder
	prev := lineStart
	for i, s := range syls {
		if s.StartMS > prev {
			if gap := roundCS(s.StartMS - prev); gap > 0 {
				fmt.Fprintf(&b, `{\k%d}`, gap)
			}
		}
		cs := roundCS(s.Duration())
		if cs == 0 && s.Duration() > 0 {
			cs = 1
		}
		fmt.Fprintf(&b, `{\k%d}%s`, cs, syllableText(s, i == len(syls)-1))
		prev = s.EndMS
	}
	return b.String()
}

func assActor(l *lyric.Line) string {
	var parts []string
	switch l.Agent {
	case "v2":
		parts = append(parts, "v2")
	case "v1000":
		parts = append(parts, "v1000")
	case "":
	default:
		parts = append(parts, "v1")
	}
	if l.SongPart != "" {
		parts = append(parts, fmt.Sprintf(`itunes:song-part="%s"`, l.SongPart))
	}
	return strings.Join(parts, " ")
}

func writeASSEvent(b *strings.Builder, start, end uint64, style, actor, effect, text string) {
	fmt.Fprintf(b, "Dialogue: 0,%s,%s,%s,%s,0,0,0,%s,%s\n", formatASSTime(start), formatASSTime(end), style, actor, effect, text)
}

func writeASSAux(b *strings.Builder, at *lyric.AnnotatedTrack, start, end uint64, tsStyle, romaStyle string) {
	for _, t := range at.Translations {
		actor := ""
		if t.Language != "" {
			actor = "x-lang:" + t.Language
		}
		writeASSEvent(b, start, end, tsStyle, actor, "", assAuxText(t, start))
	}
	for _, t := range at.Romanizations {
		writeASSEvent(b, start, end, romaStyle, "", "", assAuxText(t, start))
	}
}

func assAuxText(t lyric.Track, start uint64) string {
	if t.IsTimed() && t.Len() > 1 {
		return assKaraoke(t.Syllables(), start)
	}
	return t.Text()
}

// generateASS 字幕头 + meta 注释行 + 每行的 orig/ts/roma 以及背景人声的 x-bg/bg-ts/bg-roma
func generateASS(doc *lyric.Document) string {
	var b strings.Builder
	b.WriteString(assHeader)

	s := store(doc)
	for _, key := range s.Keys() {
		for _, v := range s.GetAll(key) {
			name := string(key)
			if key == metadata.Language {
				name = "lang"
			}
			fmt.Fprintf(&b, "Comment: 0,0:00:00.00,0:00:00.00,meta,,0,0,0,,%s: %s\n", name, v)
		}
	}
	for _, a := range doc.Agents {
		if a.Name != "" {
			fmt.Fprintf(&b, "Comment: 0,0:00:00.00,0:00:00.00,meta,,0,0,0,,%s: %s\n", a.ID, a.Name)
		}
	}

	for i := range doc.Lines {
		l := &doc.Lines[i]
		if tl, ok := lineSyllables(l, lyric.ContentMain); ok {
			start, end := tl.start, tl.end
			text, effect := l.Text(), ""
			if !doc.IsLineTimed {
				start = tl.syllables[0].StartMS
				text, effect = assKaraoke(tl.syllables, start), "karaoke"
			}
			writeASSEvent(&b, start, end, "orig", assActor(l), effect, text)
			writeASSAux(&b, l.MainTrack(), start, end, "ts", "roma")
		}
		if tl, ok := lineSyllables(l, lyric.ContentBackground); ok {
			start, end := tl.start, tl.end
			text, effect := l.BackgroundTrack().Content.Text(), ""
			if !doc.IsLineTimed {
				text, effect = assKaraoke(tl.syllables, start), "karaoke"
			}
			writeASSEvent(&b, start, end, "orig", "x-bg", effect, text)
			writeASSAux(&b, l.BackgroundTrack(), start, end, "bg-ts", "bg-roma")
		}
	}

	for _, m := range doc.Markers {
		writeASSEvent(&b, m.StartMS, m.StartMS, "orig", "x-mark", "", m.Text)
	}
	return b.String()
}
