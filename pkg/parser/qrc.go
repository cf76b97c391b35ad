package parser

import (
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

var (
	qrcLineRe    = regexp.MustCompile(`^\[(\d+),(\d+)\](.*)$`)
	qrcSylRe     = regexp.MustCompile(`\((\d+),(\d+)\)`)
	yrcSylRe     = regexp.MustCompile(`\((\d+),(\d+),\d+\)`)
	qrcContentRe = regexp.MustCompile(`LyricContent="([\s\S]*?)"\s*/>`)
)

// ParseQRC 解析 QRC：[start,dur]text(start,dur)...，音节时间为绝对时间。
// 兼容外层带 <QrcInfos> XML 包装的文本
func ParseQRC(text string) (*lyric.Document, error) {
	if m := qrcContentRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	doc := lyric.NewDocument(lyric.FormatQRC)
	parseTimedLines(doc, text, parseQRCSyllables)
	return doc, nil
}

// ParseYRC 解析 YRC：[start,dur](start,dur,0)text...
func ParseYRC(text string) (*lyric.Document, error) {
	doc := lyric.NewDocument(lyric.FormatYRC)
	parseTimedLines(doc, text, parseYRCSyllables)
	return doc, nil
}

type syllableFunc func(doc *lyric.Document, lineNo int, content string) []rawSyllable

// parseTimedLines QRC/YRC 共用的逐行流程
func parseTimedLines(doc *lyric.Document, text string, parseSyllables syllableFunc) {
	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, `{"t":`) {
			continue
		}

		if m := qrcLineRe.FindStringSubmatch(line); m != nil {
			start, dur := atou(m[1]), atou(m[2])
			syls := buildSyllables(parseSyllables(doc, lineNo, m[3]))
			if len(syls) == 0 {
				doc.Warnf("line %d: no syllables found", lineNo)
				continue
			}
			l := lyric.Line{StartMS: start, EndMS: start + dur}
			l.EnsureTrack(lyric.ContentMain).Content = lyric.NewTrack(syls, "")
			if _, end, _ := l.MainTrack().Content.TimeRange(); end > l.EndMS {
				l.EndMS = end
			}
			doc.Lines = append(doc.Lines, l)
			continue
		}

		if key, value, ok := parseTagLine(line); ok {
			if value != "" {
				doc.AddMetadata(key, value)
			}
			continue
		}
		doc.Warnf("line %d: unrecognized line %q", lineNo, line)
	}
	doc.Sort()
}

func parseQRCSyllables(doc *lyric.Document, lineNo int, content string) []rawSyllable {
	var raws []rawSyllable
	last := 0
	for _, loc := range qrcSylRe.FindAllStringSubmatchIndex(content, -1) {
		start := atou(content[loc[2]:loc[3]])
		raws = append(raws, rawSyllable{
			text:  content[last:loc[0]],
			start: start,
			end:   start + atou(content[loc[4]:loc[5]]),
		})
		last = loc[1]
	}
	if rest := content[last:]; strings.TrimSpace(rest) != "" {
		doc.Warnf("line %d: trailing text %q without timestamp", lineNo, rest)
	}
	return raws
}

func parseYRCSyllables(doc *lyric.Document, lineNo int, content string) []rawSyllable {
	locs := yrcSylRe.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	if lead := content[:locs[0][0]]; strings.TrimSpace(lead) != "" {
		doc.Warnf("line %d: text %q before first timestamp", lineNo, lead)
	}

	raws := make([]rawSyllable, 0, len(locs))
	for i, loc := range locs {
		segEnd := len(content)
		if i+1 < len(locs) {
			segEnd = locs[i+1][0]
		}
		start := atou(content[loc[2]:loc[3]])
		raws = append(raws, rawSyllable{
			text:  content[loc[1]:segEnd],
			start: start,
			end:   start + atou(content[loc[4]:loc[5]]),
		})
	}
	return raws
}
