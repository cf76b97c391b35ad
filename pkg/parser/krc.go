package parser

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

var krcSylRe = regexp.MustCompile(`<(\d+),(\d+),\d+>`)

// krcLanguage [language:...] 中 base64 编码的 JSON
type krcLanguage struct {
	Content []struct {
		Language     int        `json:"language"`
		Type         int        `json:"type"`
		LyricContent [][]string `json:"lyricContent"`
	} `json:"content"`
	Version int `json:"version"`
}

const (
	krcTypeRomanization = 0
	krcTypeTranslation  = 1
)

// ParseKRC 解析已解密的 KRC 文本：[start,dur]<offset,dur,0>text...，偏移相对行首
func ParseKRC(text string) (*lyric.Document, error) {
	doc := lyric.NewDocument(lyric.FormatKRC)
	var language string

	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := qrcLineRe.FindStringSubmatch(line); m != nil {
			start, dur := atou(m[1]), atou(m[2])
			content := m[3]
			locs := krcSylRe.FindAllStringSubmatchIndex(content, -1)
			if len(locs) == 0 {
				doc.Warnf("line %d: no syllables found", lineNo)
				continue
			}
			raws := make([]rawSyllable, 0, len(locs))
			for j, loc := range locs {
				segEnd := len(content)
				if j+1 < len(locs) {
					segEnd = locs[j+1][0]
				}
				s := start + atou(content[loc[2]:loc[3]])
				raws = append(raws, rawSyllable{
					text:  content[loc[1]:segEnd],
					start: s,
					end:   s + atou(content[loc[4]:loc[5]]),
				})
			}
			syls := buildSyllables(raws)
			if len(syls) == 0 {
				doc.Warnf("line %d: no syllables found", lineNo)
				continue
			}
			l := lyric.Line{StartMS: start, EndMS: start + dur}
			l.EnsureTrack(lyric.ContentMain).Content = lyric.NewTrack(syls, "")
			doc.Lines = append(doc.Lines, l)
			continue
		}

		if key, value, ok := parseTagLine(line); ok {
			if key == "language" {
				language = value
				continue
			}
			if value != "" {
				doc.AddMetadata(key, value)
			}
			continue
		}
		doc.Warnf("line %d: unrecognized KRC line %q", lineNo, line)
	}

	if language != "" {
		applyKRCLanguage(doc, language)
	}
	return doc, nil
}

// applyKRCLanguage 按行号把翻译/音译附加到主轨道
func applyKRCLanguage(doc *lyric.Document, encoded string) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		doc.Warnf("krc language tag: %v", err)
		return
	}
	var lang krcLanguage
	if err := json.Unmarshal(data, &lang); err != nil {
		doc.Warnf("krc language tag: %v", err)
		return
	}

	for _, c := range lang.Content {
		for i, row := range c.LyricContent {
			if i >= len(doc.Lines) {
				doc.Warnf("krc language rows exceed lyric lines (%d > %d)", len(c.LyricContent), len(doc.Lines))
				break
			}
			main := doc.Lines[i].MainTrack()
			switch c.Type {
			case krcTypeTranslation:
				main.AddTranslation(lyric.NewTextTrack(strings.Join(row, ""), "", 0, 0))
			case krcTypeRomanization:
				main.AddRomanization(lyric.NewTextTrack(strings.Join(strings.Fields(strings.Join(row, " ")), " "), "", 0, 0))
			}
		}
	}
}
