package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"lyricconv/pkg/lyric"
)

// LRCLastLinePadMS 最后一行没有下一个时间戳时的默认时长
const LRCLastLinePadMS = 10000

var (
	lrcLineRe  = regexp.MustCompile(`^((?:\[\d{2,}:\d{2}(?:[.:]\d{1,3})?\])+)(.*)$`)
	lrcStampRe = regexp.MustCompile(`\[(\d{2,}):(\d{2})(?:[.:](\d{1,3}))?\]`)
	elrcWordRe = regexp.MustCompile(`<(\d{2,}):(\d{2})(?:[.:](\d{1,3}))?>`)
)

type lrcEntry struct {
	ms     uint64
	text   string
	lineNo int
}

// lrcStampToMS 秒数 >= 60 视为非法
func lrcStampToMS(min, sec, frac string) (uint64, error) {
	s := atou(sec)
	if s >= 60 {
		return 0, fmt.Errorf("seconds out of range in [%s:%s]", min, sec)
	}
	return atou(min)*60000 + s*1000 + fractionToMS(frac), nil
}

// ParseLRC 解析 LRC，同时支持增强型 LRC 的 <mm:ss.xx> 逐字标签
func ParseLRC(text string, opts ...Option) (*lyric.Document, error) {
	o := buildOptions(opts)
	doc := lyric.NewDocument(lyric.FormatLRC)
	doc.IsLineTimed = true

	var entries []lrcEntry
	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := lrcLineRe.FindStringSubmatch(line); m != nil {
			content := strings.TrimSpace(m[2])
			for _, ts := range lrcStampRe.FindAllStringSubmatch(m[1], -1) {
				ms, err := lrcStampToMS(ts[1], ts[2], ts[3])
				if err != nil {
					doc.Warnf("line %d: %v, timestamp dropped", lineNo, err)
					continue
				}
				entries = append(entries, lrcEntry{ms: ms, text: content, lineNo: lineNo})
			}
			continue
		}

		if key, value, ok := parseTagLine(line); ok {
			if value != "" {
				doc.AddMetadata(key, value)
			}
			continue
		}

		doc.Warnf("line %d: unrecognized LRC line %q", lineNo, line)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ms < entries[j].ms })

	var groups [][]lrcEntry
	for _, e := range entries {
		if n := len(groups); n > 0 && groups[n-1][0].ms == e.ms {
			groups[n-1] = append(groups[n-1], e)
			continue
		}
		groups = append(groups, []lrcEntry{e})
	}

	for gi, g := range groups {
		start := g[0].ms
		end := start + LRCLastLinePadMS
		if gi+1 < len(groups) {
			end = groups[gi+1][0].ms
		}

		var texts []string
		for _, e := range g {
			if e.text != "" {
				texts = append(texts, e.text)
			}
		}
		if len(texts) == 0 {
			continue
		}

		if o.lrcStrategy == LRCAllAreMain {
			for _, t := range texts {
				doc.Lines = append(doc.Lines, lrcLine(doc, start, end, t, nil))
			}
			continue
		}
		doc.Lines = append(doc.Lines, lrcLine(doc, start, end, texts[0], texts[1:]))
	}

	return doc, nil
}

func lrcLine(doc *lyric.Document, start, end uint64, text string, translations []string) lyric.Line {
	line := lyric.Line{StartMS: start, EndMS: end}
	main := line.EnsureTrack(lyric.ContentMain)

	if syls := parseELRCWords(text, start, end); len(syls) > 0 {
		main.Content = lyric.NewTrack(syls, "")
		doc.IsLineTimed = false
		doc.SourceFormat = lyric.FormatELRC
	} else {
		main.Content = lyric.NewTextTrack(text, "", start, end)
	}

	for _, t := range translations {
		main.AddTranslation(lyric.NewTextTrack(stripELRCWords(t), "", 0, 0))
	}
	return line
}

// parseELRCWords 解析 <mm:ss.xx>word 形式的逐字标签，没有标签时返回 nil
func parseELRCWords(text string, lineStart, lineEnd uint64) []lyric.Syllable {
	locs := elrcWordRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	stamps := make([]uint64, len(locs))
	for i, loc := range locs {
		ms, err := lrcStampToMS(text[loc[2]:loc[3]], text[loc[4]:loc[5]], submatch(text, loc, 3))
		if err != nil {
			ms = lineStart
		}
		stamps[i] = ms
	}

	var raws []rawSyllable
	if prefix := text[:locs[0][0]]; strings.TrimSpace(prefix) != "" {
		raws = append(raws, rawSyllable{text: prefix, start: lineStart, end: stamps[0]})
	}
	for i, loc := range locs {
		segEnd := len(text)
		end := lineEnd
		if i+1 < len(locs) {
			segEnd = locs[i+1][0]
			end = stamps[i+1]
		}
		raws = append(raws, rawSyllable{text: text[loc[1]:segEnd], start: stamps[i], end: end})
	}
	return buildSyllables(raws)
}

func stripELRCWords(text string) string {
	return strings.TrimSpace(elrcWordRe.ReplaceAllString(text, ""))
}

// submatch 返回第 n 个捕获组，未参与匹配时返回空串
func submatch(s string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}
