package parser

import (
	"fmt"
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

var lqeSectionRe = regexp.MustCompile(`^\[(lyrics|translation|pronunciation):([^\]]*)\]$`)

// LQEHeader LQE 文件首行
const LQEHeader = "[Lyricify Quick Export]"

// LQESection LQE 容器中的一个区段
type LQESection struct {
	Format   lyric.Format
	Language string
	Text     string
}

// LQEContainer 拆分后的 LQE 文件
type LQEContainer struct {
	Version       string
	Metadata      map[string][]string
	Lyrics        *LQESection
	Translation   *LQESection
	Pronunciation *LQESection
	Warnings      []string
}

// SplitLQE 拆出版本、元数据和三个区段
func SplitLQE(text string) (*LQEContainer, error) {
	lines := splitLines(text)
	first := 0
	for first < len(lines) && strings.TrimSpace(lines[first]) == "" {
		first++
	}
	if first == len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[first]), LQEHeader) {
		return nil, &StructuralError{Format: lyric.FormatLQE, Line: first + 1, Reason: "missing " + LQEHeader + " header"}
	}

	c := &LQEContainer{Metadata: make(map[string][]string)}
	var cur *LQESection
	var body strings.Builder
	flush := func() {
		if cur != nil {
			cur.Text = body.String()
		}
		body.Reset()
	}

	for i := first + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if m := lqeSectionRe.FindStringSubmatch(line); m != nil {
			flush()
			sec := parseLQESectionAttrs(c, m[2], i+1)
			switch m[1] {
			case "lyrics":
				cur = assignLQESection(c, &c.Lyrics, sec, m[1])
			case "translation":
				cur = assignLQESection(c, &c.Translation, sec, m[1])
			case "pronunciation":
				cur = assignLQESection(c, &c.Pronunciation, sec, m[1])
			}
			continue
		}
		if cur != nil {
			body.WriteString(lines[i])
			body.WriteByte('\n')
			continue
		}
		if line == "" {
			continue
		}
		if key, value, ok := parseTagLine(line); ok {
			if key == "version" {
				c.Version = value
			} else if value != "" {
				c.Metadata[key] = append(c.Metadata[key], value)
			}
			continue
		}
		c.Warnings = append(c.Warnings, fmt.Sprintf("line %d: text outside of any section", i+1))
	}
	flush()
	return c, nil
}

func assignLQESection(c *LQEContainer, slot **LQESection, sec *LQESection, name string) *LQESection {
	if *slot != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("duplicate [%s] section ignored", name))
		return nil
	}
	*slot = sec
	return sec
}

// parseLQESectionAttrs 解析 "format@LRC, language@zh"
func parseLQESectionAttrs(c *LQEContainer, attrs string, lineNo int) *LQESection {
	sec := &LQESection{Format: lyric.FormatLRC}
	for _, part := range strings.Split(attrs, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "@")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "format":
			f, err := lyric.ParseFormat(value)
			if err != nil {
				c.Warnings = append(c.Warnings, fmt.Sprintf("line %d: %v, assuming LRC", lineNo, err))
				continue
			}
			sec.Format = f
		case "language":
			sec.Language = strings.TrimSpace(value)
		default:
			c.Warnings = append(c.Warnings, fmt.Sprintf("line %d: unknown section attribute %q", lineNo, key))
		}
	}
	return sec
}

// ParseLQE 解析 Lyricify Quick Export 容器。翻译和发音区段按开始时间精确匹配到主歌词行
func ParseLQE(text string, opts ...Option) (*lyric.Document, error) {
	c, err := SplitLQE(text)
	if err != nil {
		return nil, err
	}
	if c.Lyrics == nil {
		return nil, &StructuralError{Format: lyric.FormatLQE, Reason: "missing [lyrics] section"}
	}
	if c.Lyrics.Format == lyric.FormatLQE {
		return nil, &StructuralError{Format: lyric.FormatLQE, Reason: "nested LQE section"}
	}

	doc, err := Parse(c.Lyrics.Format, c.Lyrics.Text, opts...)
	if err != nil {
		return nil, fmt.Errorf("lqe lyrics section: %w", err)
	}
	doc.SourceFormat = lyric.FormatLQE
	doc.Warnings = append(c.Warnings, doc.Warnings...)
	for k, vs := range c.Metadata {
		for _, v := range vs {
			doc.AddMetadata(k, v)
		}
	}
	if c.Lyrics.Language != "" {
		doc.AddMetadata("language", c.Lyrics.Language)
	}
	if c.Version != "" {
		doc.AddMetadata("lqeVersion", c.Version)
	}

	attachLQESection(doc, c.Translation, true)
	attachLQESection(doc, c.Pronunciation, false)
	return doc, nil
}

func attachLQESection(doc *lyric.Document, sec *LQESection, translation bool) {
	if sec == nil || strings.TrimSpace(sec.Text) == "" {
		return
	}
	aux, err := Parse(sec.Format, sec.Text)
	if err != nil {
		doc.Warnf("lqe section %s: %v", sec.Format, err)
		return
	}

	used := make([]bool, len(doc.Lines))
	for _, al := range aux.Lines {
		idx := -1
		for i := range doc.Lines {
			if !used[i] && doc.Lines[i].StartMS == al.StartMS {
				idx = i
				break
			}
		}
		if idx < 0 {
			doc.Warnf("lqe %s line at %d has no matching lyric line", sec.Format, al.StartMS)
			continue
		}
		used[idx] = true
		main := doc.Lines[idx].EnsureTrack(lyric.ContentMain)
		track := lyric.NewTextTrack(al.Text(), sec.Language, 0, 0)
		if translation {
			main.AddTranslation(track)
		} else {
			main.AddRomanization(track)
		}
	}
}
