package parser

import (
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

// SPLDefaultDurationMS 最后一个块无法推断结束时间时的默认时长
const SPLDefaultDurationMS = 5000

var (
	splLeadRe   = regexp.MustCompile(`^\[(\d{1,3}):(\d{1,2})\.(\d{1,6})\]`)
	splInlineRe = regexp.MustCompile(`[\[<](\d{1,3}):(\d{1,2})\.(\d{1,6})[\]>]`)
)

// splBlock 一个歌词块：若干起始时间共享同一段文本和翻译
type splBlock struct {
	starts       []uint64
	text         string
	translations []string
	lineNo       int

	// explicitEndMS 来自块后单独一行的时间戳
	explicitEndMS  uint64
	hasExplicitEnd bool
}

func splStampMS(min, sec, frac string) uint64 {
	return atou(min)*60000 + atou(sec)*1000 + fractionToMS(frac)
}

// splitSPLLeading 取出行首连续的时间戳
func splitSPLLeading(line string) ([]uint64, string) {
	var stamps []uint64
	for {
		m := splLeadRe.FindStringSubmatch(line)
		if m == nil {
			return stamps, line
		}
		stamps = append(stamps, splStampMS(m[1], m[2], m[3]))
		line = line[len(m[0]):]
	}
}

func sameStamps(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// parseSPLBlocks 把文本切成块，处理翻译行和单独的结束时间戳行
func parseSPLBlocks(doc *lyric.Document, text string) []*splBlock {
	var blocks []*splBlock
	var cur *splBlock

	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		stamps, rest := splitSPLLeading(line)
		if len(stamps) == 0 {
			if key, value, ok := parseTagLine(line); ok {
				if value != "" {
					doc.AddMetadata(key, value)
				}
				continue
			}
			if cur == nil {
				doc.Warnf("line %d: text without timestamp before first block, skipped", lineNo)
				continue
			}
			cur.translations = append(cur.translations, line)
			continue
		}

		rest = strings.TrimSpace(rest)
		switch {
		case rest == "" && len(stamps) == 1 && cur != nil:
			cur.explicitEndMS, cur.hasExplicitEnd = stamps[0], true
			cur = nil
		case rest == "":
			doc.Warnf("line %d: timestamp without text, skipped", lineNo)
		case cur != nil && sameStamps(stamps, cur.starts):
			cur.translations = append(cur.translations, rest)
		default:
			cur = &splBlock{starts: stamps, text: rest, lineNo: lineNo}
			blocks = append(blocks, cur)
		}
	}
	return blocks
}

// splSyllables 按行内时间戳切分文本；trailing 为文本末尾孤立的时间戳
func splSyllables(doc *lyric.Document, b *splBlock) (raws []rawSyllable, trailing uint64, hasTrailing bool) {
	start := b.starts[0]
	locs := splInlineRe.FindAllStringSubmatchIndex(b.text, -1)
	if len(locs) == 0 {
		return []rawSyllable{{text: b.text, start: start}}, 0, false
	}

	stamps := make([]uint64, len(locs))
	prev := start
	for i, loc := range locs {
		stamps[i] = splStampMS(b.text[loc[2]:loc[3]], b.text[loc[4]:loc[5]], b.text[loc[6]:loc[7]])
		if stamps[i] < prev {
			doc.Warnf("line %d: inline timestamp %d is earlier than %d", b.lineNo, stamps[i], prev)
		}
		prev = stamps[i]
	}

	if lead := b.text[:locs[0][0]]; lead != "" {
		raws = append(raws, rawSyllable{text: lead, start: start, end: stamps[0]})
	}
	for i, loc := range locs {
		segEnd := len(b.text)
		if i+1 < len(locs) {
			segEnd = locs[i+1][0]
		}
		seg := b.text[loc[1]:segEnd]
		if i == len(locs)-1 && strings.TrimSpace(seg) == "" {
			return raws, stamps[i], true
		}
		var end uint64
		if i+1 < len(locs) {
			end = stamps[i+1]
		}
		raws = append(raws, rawSyllable{text: seg, start: stamps[i], end: end})
	}
	return raws, 0, false
}

// splTrailingStamp 取出行尾的时间戳，返回去掉时间戳后的文本
func splTrailingStamp(line string) (string, uint64, bool) {
	locs := splInlineRe.FindAllStringSubmatchIndex(line, -1)
	if len(locs) == 0 {
		return line, 0, false
	}
	loc := locs[len(locs)-1]
	if strings.TrimSpace(line[loc[1]:]) != "" {
		return line, 0, false
	}
	ms := splStampMS(line[loc[2]:loc[3]], line[loc[4]:loc[5]], line[loc[6]:loc[7]])
	return strings.TrimSpace(line[:loc[0]]), ms, true
}

// ParseSPL 解析 SPL
func ParseSPL(text string) (*lyric.Document, error) {
	doc := lyric.NewDocument(lyric.FormatSPL)
	doc.IsLineTimed = true

	blocks := parseSPLBlocks(doc, text)
	for bi, b := range blocks {
		start := b.starts[0]
		raws, trailing, hasTrailing := splSyllables(doc, b)
		// 块的最后一行是翻译时，结束时间戳写在翻译行尾
		if n := len(b.translations); n > 0 {
			rest, ms, ok := splTrailingStamp(b.translations[n-1])
			if ok {
				b.translations[n-1] = rest
				if !hasTrailing {
					trailing, hasTrailing = ms, true
				}
			}
		}

		var end uint64
		switch {
		case b.hasExplicitEnd:
			end = b.explicitEndMS
		case hasTrailing:
			end = trailing
		case bi+1 < len(blocks) && blocks[bi+1].starts[0] > start:
			end = blocks[bi+1].starts[0]
		default:
			end = start + SPLDefaultDurationMS
		}
		if end < start {
			end = start
		}

		// 最后一个音节没有结束时间时延伸到块结束
		if n := len(raws); n > 0 && raws[n-1].end == 0 {
			raws[n-1].end = end
		}
		syls := buildSyllables(raws)
		if len(syls) == 0 {
			doc.Warnf("line %d: empty block", b.lineNo)
			continue
		}
		if len(syls) > 1 {
			doc.IsLineTimed = false
		}

		var translation string
		if len(b.translations) > 0 {
			parts := make([]string, 0, len(b.translations))
			for _, t := range b.translations {
				if t = strings.TrimSpace(splInlineRe.ReplaceAllString(t, "")); t != "" {
					parts = append(parts, t)
				}
			}
			translation = strings.Join(parts, "/")
		}

		for _, s := range b.starts {
			delta := int64(s) - int64(start)
			track := lyric.NewTrack(append([]lyric.Syllable(nil), syls...), "")
			track.ShiftTime(delta)

			l := lyric.Line{StartMS: s, EndMS: uint64(int64(end) + delta)}
			main := l.EnsureTrack(lyric.ContentMain)
			main.Content = track
			if translation != "" {
				main.AddTranslation(lyric.NewTextTrack(translation, "", 0, 0))
			}
			doc.Lines = append(doc.Lines, l)
		}
	}

	doc.Sort()
	return doc, nil
}
