package parser

import (
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

var lysLineRe = regexp.MustCompile(`^\[(\d+)\](.*)$`)

// lysProperty [property] 对应的声部和是否为背景
type lysProperty struct {
	agent      string
	background bool
	// unset 未指定声部的背景，可以并入任意前景行
	unset bool
}

// lysPropertyOf 固定映射表：2/5 为 v2 前景，8 为 v2 背景，6/7 为 v1 背景，其余为 v1 前景
func lysPropertyOf(p uint64) lysProperty {
	switch p {
	case 2, 5:
		return lysProperty{agent: "v2"}
	case 8:
		return lysProperty{agent: "v2", background: true}
	case 6:
		return lysProperty{agent: "v1", background: true, unset: true}
	case 7:
		return lysProperty{agent: "v1", background: true}
	}
	return lysProperty{agent: "v1"}
}

// LYSProperty 由声部和是否背景反查 property 值，供生成器使用
func LYSProperty(agent string, background bool) int {
	switch {
	case agent == "v2" && background:
		return 8
	case agent == "v2":
		return 2
	case background:
		return 7
	}
	return 1
}

// ParseLYS 解析 Lyricify Syllable：[property]text(start,dur)...，时间为绝对时间。
// 缺少 [property] 前缀是结构性错误
func ParseLYS(text string) (*lyric.Document, error) {
	doc := lyric.NewDocument(lyric.FormatLYS)

	// fgOpen 上一行是否为尚未并入背景的前景行
	fgOpen := false
	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		m := lysLineRe.FindStringSubmatch(line)
		if m == nil {
			if key, value, ok := parseTagLine(line); ok {
				if value != "" {
					doc.AddMetadata(key, value)
				}
				continue
			}
			return nil, &StructuralError{Format: lyric.FormatLYS, Line: lineNo, Reason: "missing [property] prefix"}
		}

		prop := lysPropertyOf(atou(m[1]))
		syls := buildSyllables(parseQRCSyllables(doc, lineNo, m[2]))
		if len(syls) == 0 {
			doc.Warnf("line %d: no syllables found", lineNo)
			fgOpen = false
			continue
		}

		if !prop.background {
			l := newLine(syls)
			l.Agent = prop.agent
			doc.Lines = append(doc.Lines, l)
			fgOpen = true
			continue
		}

		if fgOpen {
			prev := &doc.Lines[len(doc.Lines)-1]
			if prop.unset || prev.Agent == prop.agent {
				prev.SetBackgroundSection(lyric.NewBackgroundSection(syls))
				prev.RecalculateTiming()
				fgOpen = false
				continue
			}
		}

		l := lyric.Line{Agent: prop.agent}
		l.SetBackgroundSection(lyric.NewBackgroundSection(syls))
		l.RecalculateTiming()
		doc.Lines = append(doc.Lines, l)
		fgOpen = false
	}

	doc.Sort()
	return doc, nil
}
