package generator

import (
	"sort"
	"strings"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/merger"
)

// LRCGapThresholdMS 两行间隔超过该值时插入空行
const LRCGapThresholdMS = 5000

// generateLRC 头部标签 + 主歌词，翻译使用相同时间戳紧跟其后
func generateLRC(doc *lyric.Document, opts Options) string {
	return writeLRCLines(doc, opts, func(l *lyric.Line) string {
		return l.Text()
	})
}

// generateELRC 与 LRC 相同，主歌词行使用 <mm:ss.xxx> 逐字标签
func generateELRC(doc *lyric.Document, opts Options) string {
	return writeLRCLines(doc, opts, func(l *lyric.Line) string {
		main := l.MainTrack()
		syls := main.Content.Syllables()
		if doc.IsLineTimed || len(syls) == 0 {
			return l.Text()
		}
		var b strings.Builder
		for i, s := range syls {
			b.WriteString("<" + clockMS(s.StartMS) + ">")
			b.WriteString(syllableText(s, i == len(syls)-1))
		}
		b.WriteString("<" + clockMS(syls[len(syls)-1].EndMS) + ">")
		return b.String()
	})
}

func writeLRCLines(doc *lyric.Document, opts Options, text func(*lyric.Line) string) string {
	var b strings.Builder
	b.WriteString(store(doc).LRCHeader())

	var prevEnd uint64
	first := true
	for i := range doc.Lines {
		l := &doc.Lines[i]
		main := l.MainTrack()
		if main == nil || strings.TrimSpace(l.Text()) == "" {
			continue
		}
		if !first && l.StartMS > prevEnd && l.StartMS-prevEnd > LRCGapThresholdMS {
			b.WriteString(formatLRCTime(prevEnd) + "\n")
		}
		stamp := formatLRCTime(l.StartMS)
		b.WriteString(stamp + text(l) + "\n")
		if tr := pickTrack(main.Translations, opts.TranslationLanguage); tr != nil && tr.Text() != "" {
			b.WriteString(stamp + tr.Text() + "\n")
		}
		prevEnd, first = l.EndMS, false
	}
	return b.String()
}

// Auxiliary 把翻译或音译（含背景人声的）输出为 LRC。lang 非空时优先取该语言的轨道；
// 同一时间戳只保留第一条
func Auxiliary(doc *lyric.Document, kind merger.Kind, lang string) string {
	return auxiliary(doc, kind, lang, true)
}

func auxiliary(doc *lyric.Document, kind merger.Kind, lang string, withBackground bool) string {
	type auxLine struct {
		ms   uint64
		text string
	}
	var lines []auxLine
	pick := func(at *lyric.AnnotatedTrack) string {
		tracks := at.Translations
		if kind == merger.Romanization {
			tracks = at.Romanizations
		}
		if t := pickTrack(tracks, lang); t != nil {
			return strings.TrimSpace(t.Text())
		}
		return ""
	}

	for i := range doc.Lines {
		l := &doc.Lines[i]
		if main := l.MainTrack(); main != nil {
			if text := pick(main); text != "" {
				lines = append(lines, auxLine{ms: l.StartMS, text: text})
			}
		}
		if !withBackground {
			continue
		}
		if bg := l.BackgroundTrack(); bg != nil {
			start, _, ok := bg.Content.TimeRange()
			if !ok {
				start = l.StartMS
			}
			if text := pick(bg); text != "" {
				lines = append(lines, auxLine{ms: start, text: text})
			}
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ms < lines[j].ms })
	var b strings.Builder
	for i, l := range lines {
		if i > 0 && lines[i-1].ms == l.ms {
			continue
		}
		b.WriteString(formatLRCTime(l.ms) + l.text + "\n")
	}
	return b.String()
}
