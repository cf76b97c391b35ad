package parser

import (
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

var lylLineRe = regexp.MustCompile(`^\[(\d+),(\d+)\](.*)$`)

// ParseLYL 解析 Lyricify Lines：[start,end]text，逐行计时
func ParseLYL(text string) (*lyric.Document, error) {
	doc := lyric.NewDocument(lyric.FormatLYL)
	doc.IsLineTimed = true

	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.EqualFold(line, "[type:LyricifyLines]") {
			continue
		}
		m := lylLineRe.FindStringSubmatch(line)
		if m == nil {
			if key, value, ok := parseTagLine(line); ok {
				if value != "" {
					doc.AddMetadata(key, value)
				}
				continue
			}
			doc.Warnf("line %d: unrecognized line %q", lineNo, line)
			continue
		}
		start, end := atou(m[1]), atou(m[2])
		if end < start {
			doc.Warnf("line %d: end %d before start %d", lineNo, end, start)
			end = start
		}
		content := strings.TrimSpace(m[3])
		if content == "" {
			continue
		}
		l := lyric.Line{StartMS: start, EndMS: end}
		l.EnsureTrack(lyric.ContentMain).Content = lyric.NewTextTrack(content, "", start, end)
		doc.Lines = append(doc.Lines, l)
	}

	doc.Sort()
	return doc, nil
}
