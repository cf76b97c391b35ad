package generator

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/metadata"
	"lyricconv/pkg/parser"
)

// timedLine 逐字格式共用的一行视图
type timedLine struct {
	start, end uint64
	syllables  []lyric.Syllable
}

func lineSyllables(l *lyric.Line, ct lyric.ContentType) (timedLine, bool) {
	at := l.Track(ct)
	if at == nil || at.Content.IsEmpty() {
		return timedLine{}, false
	}
	syls := at.Content.Syllables()
	start, end, _ := at.Content.TimeRange()
	if ct == lyric.ContentMain {
		start, end = l.StartMS, l.EndMS
	}
	if end < start {
		end = start
	}
	// 逐行计时的音节没有时间时占满整行
	if len(syls) == 1 && syls[0].EndMS == 0 {
		syls[0].StartMS, syls[0].EndMS = start, end
	}
	return timedLine{start: start, end: end, syllables: syls}, true
}

func qrcHeader(doc *lyric.Document) string {
	return store(doc).LRCHeader()
}

// generateQRC [start,dur]text(start,dur)...，背景人声单独一行并加括号
func generateQRC(doc *lyric.Document) string {
	var b strings.Builder
	b.WriteString(qrcHeader(doc))
	for i := range doc.Lines {
		l := &doc.Lines[i]
		if tl, ok := lineSyllables(l, lyric.ContentMain); ok {
			writeQRCLine(&b, tl, false)
		}
		if tl, ok := lineSyllables(l, lyric.ContentBackground); ok {
			writeQRCLine(&b, tl, true)
		}
	}
	return b.String()
}

func writeQRCLine(b *strings.Builder, tl timedLine, background bool) {
	fmt.Fprintf(b, "[%d,%d]", tl.start, tl.end-tl.start)
	n := len(tl.syllables)
	for i, s := range tl.syllables {
		text := syllableText(s, i == n-1)
		if background {
			if i == 0 {
				text = "(" + text
			}
			if i == n-1 {
				text += ")"
			}
		}
		fmt.Fprintf(b, "%s(%d,%d)", text, s.StartMS, s.Duration())
	}
	b.WriteByte('\n')
}

// generateYRC [start,dur](start,dur,0)text...
func generateYRC(doc *lyric.Document) string {
	var b strings.Builder
	for i := range doc.Lines {
		tl, ok := lineSyllables(&doc.Lines[i], lyric.ContentMain)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "[%d,%d]", tl.start, tl.end-tl.start)
		for j, s := range tl.syllables {
			fmt.Fprintf(&b, "(%d,%d,0)%s", s.StartMS, s.Duration(), syllableText(s, j == len(tl.syllables)-1))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

type krcLanguageContent struct {
	Language     int        `json:"language"`
	Type         int        `json:"type"`
	LyricContent [][]string `json:"lyricContent"`
}

type krcLanguage struct {
	Content []krcLanguageContent `json:"content"`
	Version int                  `json:"version"`
}

// generateKRC [start,dur]<offset,dur,0>text...，偏移相对行首；翻译和音译写入 [language:]
func generateKRC(doc *lyric.Document) (string, error) {
	var b strings.Builder
	// [language:] 在 KRC 中是翻译数据
	header := store(doc)
	header.Remove(metadata.Language)
	b.WriteString(header.LRCHeader())

	var body strings.Builder
	var translations, romanizations [][]string
	hasTranslation, hasRomanization := false, false
	for i := range doc.Lines {
		l := &doc.Lines[i]
		tl, ok := lineSyllables(l, lyric.ContentMain)
		if !ok {
			continue
		}
		fmt.Fprintf(&body, "[%d,%d]", tl.start, tl.end-tl.start)
		for j, s := range tl.syllables {
			var offset uint64
			if s.StartMS > tl.start {
				offset = s.StartMS - tl.start
			}
			fmt.Fprintf(&body, "<%d,%d,0>%s", offset, s.Duration(), syllableText(s, j == len(tl.syllables)-1))
		}
		body.WriteByte('\n')

		main := l.MainTrack()
		tr, roma := []string{""}, []string{""}
		if t := pickTrack(main.Translations, ""); t != nil {
			tr, hasTranslation = []string{t.Text()}, true
		}
		if t := pickTrack(main.Romanizations, ""); t != nil {
			roma, hasRomanization = strings.Fields(t.Text()), true
		}
		translations = append(translations, tr)
		romanizations = append(romanizations, roma)
	}

	if hasTranslation || hasRomanization {
		var lang krcLanguage
		if hasRomanization {
			lang.Content = append(lang.Content, krcLanguageContent{Type: 0, LyricContent: romanizations})
		}
		if hasTranslation {
			lang.Content = append(lang.Content, krcLanguageContent{Type: 1, LyricContent: translations})
		}
		data, err := json.Marshal(lang)
		if err != nil {
			return "", fmt.Errorf("encode krc language: %w", err)
		}
		fmt.Fprintf(&b, "[language:%s]\n", base64.StdEncoding.EncodeToString(data))
	}
	b.WriteString(body.String())
	return b.String(), nil
}

// generateLYS [property]text(start,dur)...，背景人声紧跟在所属行之后
func generateLYS(doc *lyric.Document, withHeader bool) string {
	var b strings.Builder
	if withHeader {
		b.WriteString(store(doc).LRCHeader())
	}
	for i := range doc.Lines {
		l := &doc.Lines[i]
		for _, ct := range []lyric.ContentType{lyric.ContentMain, lyric.ContentBackground} {
			tl, ok := lineSyllables(l, ct)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "[%d]", parser.LYSProperty(l.Agent, ct == lyric.ContentBackground))
			for j, s := range tl.syllables {
				fmt.Fprintf(&b, "%s(%d,%d)", syllableText(s, j == len(tl.syllables)-1), s.StartMS, s.Duration())
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// generateLYL [type:LyricifyLines] + [start,end]text
func generateLYL(doc *lyric.Document) string {
	var b strings.Builder
	b.WriteString("[type:LyricifyLines]\n")
	for i := range doc.Lines {
		l := &doc.Lines[i]
		text := strings.TrimSpace(l.Text())
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%d,%d]%s\n", l.StartMS, l.EndMS, text)
	}
	return b.String()
}
