package parser

import (
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

var (
	assLineRe = regexp.MustCompile(`^(Comment|Dialogue):\s*(\d+)\s*,(\d+:\d{2}:\d{2}\.\d{2})\s*,(\d+:\d{2}:\d{2}\.\d{2})\s*,([^,]*?)\s*,([^,]*?)\s*,[^,]*,[^,]*,[^,]*,([^,]*?)\s*,(.*?)\s*$`)
	assTimeRe     = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})\.(\d{2})$`)
	assKaraokeRe  = regexp.MustCompile(`\{\\[kK][fo]?(\d+)\}`)
	assOverrideRe = regexp.MustCompile(`\{[^}]*\}`)
	assSongPartRe = regexp.MustCompile(`itunes:song-part=(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)
)

// DefaultASSTranslationLanguage ts/trans 行未指定 x-lang 时的语言
const DefaultASSTranslationLanguage = "zh-CN"

// assRole Actor 字段中的角色标签
type assRole int

const (
	assRoleVocal1 assRole = iota
	assRoleVocal2
	assRoleBackground
	assRoleChorus
)

var assRoleTags = map[string]assRole{
	"左":      assRoleVocal1,
	"v1":     assRoleVocal1,
	"右":      assRoleVocal2,
	"x-duet": assRoleVocal2,
	"x-anti": assRoleVocal2,
	"v2":     assRoleVocal2,
	"背":      assRoleBackground,
	"x-bg":   assRoleBackground,
	"合":      assRoleChorus,
	"v1000":  assRoleChorus,
}

func (r assRole) agent() string {
	switch r {
	case assRoleVocal2:
		return "v2"
	case assRoleChorus:
		return "v1000"
	}
	return "v1"
}

// assStyle 样式决定行的语义
type assStyle int

const (
	assStyleUnknown assStyle = iota
	assStyleLyric
	assStyleTranslation
	assStyleRomanization
	assStyleBgTranslation
	assStyleBgRomanization
	assStyleMeta
)

var assStyles = map[string]assStyle{
	"orig":    assStyleLyric,
	"default": assStyleLyric,
	"ts":      assStyleTranslation,
	"trans":   assStyleTranslation,
	"roma":    assStyleRomanization,
	"bg-ts":   assStyleBgTranslation,
	"bg-roma": assStyleBgRomanization,
	"meta":    assStyleMeta,
}

// assActor Actor 字段解析结果
type assActor struct {
	role     assRole
	language string
	songPart string
	marker   bool
}

// parseASSActor 解析 Actor 字段；出现多个角色标签时返回 *ConflictError
func parseASSActor(doc *lyric.Document, actor string, lineNo int) (assActor, error) {
	var info assActor
	if m := assSongPartRe.FindStringSubmatch(actor); m != nil {
		info.songPart = m[1] + m[2] + m[3]
		actor = strings.Replace(actor, m[0], " ", 1)
	}

	var roles []string
	for _, tok := range strings.Fields(actor) {
		if role, ok := assRoleTags[tok]; ok {
			roles = append(roles, tok)
			info.role = role
			continue
		}
		switch {
		case strings.HasPrefix(tok, "x-lang:"):
			info.language = strings.TrimPrefix(tok, "x-lang:")
		case tok == "x-mark":
			info.marker = true
		default:
			doc.Warnf("line %d: unknown actor tag %q ignored", lineNo, tok)
		}
	}
	if len(roles) > 1 {
		return info, &ConflictError{Line: lineNo, Tags: roles}
	}
	return info, nil
}

func parseASSTime(s string) (uint64, bool) {
	m := assTimeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	return atou(m[1])*3600000 + atou(m[2])*60000 + atou(m[3])*1000 + atou(m[4])*10, true
}

// parseKaraoke 按 {\kNN} 切分文本，每个标签的时长作用于它所引出的文本段。
// 空白段照样推进时钟并标记前一个音节的 EndsWithSpace；返回音节和到达的最大时间
func parseKaraoke(text string, lineStart uint64) ([]lyric.Syllable, uint64) {
	locs := assKaraokeRe.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, lineStart
	}

	cur := lineStart
	raws := make([]rawSyllable, 0, len(locs))
	for i, loc := range locs {
		segEnd := len(text)
		if i+1 < len(locs) {
			segEnd = locs[i+1][0]
		}
		dur := atou(text[loc[2]:loc[3]]) * 10
		run := cleanASSText(text[loc[1]:segEnd])
		raws = append(raws, rawSyllable{text: run, start: cur, end: cur + dur})
		cur += dur
	}
	return buildSyllables(raws), cur
}

// cleanASSText 去掉覆盖标签，\N \n 视为空格
func cleanASSText(s string) string {
	s = assOverrideRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\N`, " ")
	s = strings.ReplaceAll(s, `\n`, " ")
	return strings.ReplaceAll(s, `\h`, " ")
}

// assTrack 解析一行的文本：有卡拉 OK 标签时逐字，否则整行一个音节
func assTrack(text string, start, end uint64, lang string) (lyric.Track, uint64) {
	if syls, reached := parseKaraoke(text, start); len(syls) > 0 {
		return lyric.NewTrack(syls, lang), reached
	}
	return lyric.NewTextTrack(cleanASSText(text), lang, start, end), end
}

// ParseASS 解析 ASS 卡拉 OK 字幕
func ParseASS(text string) (*lyric.Document, error) {
	doc := lyric.NewDocument(lyric.FormatASS)
	doc.IsLineTimed = true

	lastMain, lastBg := -1, -1
	var lastMainStart, lastBgStart uint64

	for i, raw := range splitLines(text) {
		lineNo := i + 1
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, "Dialogue:") && !strings.HasPrefix(line, "Comment:") {
			continue
		}
		m := assLineRe.FindStringSubmatch(line)
		if m == nil {
			doc.Warnf("line %d: malformed event line", lineNo)
			continue
		}
		isComment := m[1] == "Comment"
		start, ok1 := parseASSTime(m[3])
		end, ok2 := parseASSTime(m[4])
		if !ok1 || !ok2 {
			doc.Warnf("line %d: invalid time", lineNo)
			continue
		}
		styleName, actorField, effect, body := strings.ToLower(m[5]), m[6], m[7], m[8]

		style := assStyles[styleName]
		if style == assStyleMeta {
			if isComment || start == 0 {
				applyASSMeta(doc, body)
			}
			continue
		}
		if isComment {
			continue
		}
		if style == assStyleUnknown {
			doc.Warnf("line %d: unknown style %q", lineNo, m[5])
			continue
		}

		actor, err := parseASSActor(doc, actorField, lineNo)
		if err != nil {
			doc.LineErrors = append(doc.LineErrors, err)
			doc.Warnf("%v, line skipped", err)
			continue
		}
		if actor.language != "" && style != assStyleTranslation && style != assStyleBgTranslation {
			doc.Warnf("line %d: x-lang is only valid on translation rows, ignored", lineNo)
			actor.language = ""
		}

		if actor.marker {
			doc.Markers = append(doc.Markers, lyric.Marker{StartMS: start, Text: cleanASSText(body)})
			continue
		}

		switch style {
		case assStyleLyric:
			if effect != "" && !strings.EqualFold(effect, "karaoke") {
				doc.Warnf("line %d: effect %q is not a lyric effect, skipped", lineNo, effect)
				continue
			}
			track, reached := assTrack(body, start, end, "")
			if track.IsEmpty() {
				doc.Warnf("line %d: empty lyric", lineNo)
				continue
			}
			if track.Len() > 1 || reached != end {
				doc.IsLineTimed = false
			}
			lineEnd := reached
			if lineEnd < start {
				lineEnd = start
			}

			if actor.role == assRoleBackground {
				if lastMain >= 0 && doc.Lines[lastMain].BackgroundTrack() == nil {
					l := &doc.Lines[lastMain]
					l.EnsureTrack(lyric.ContentBackground).Content = track
					if lineEnd > l.EndMS {
						l.EndMS = lineEnd
					}
					lastBg, lastBgStart = lastMain, start
					continue
				}
				l := lyric.Line{StartMS: start, EndMS: lineEnd, SongPart: actor.songPart}
				l.EnsureTrack(lyric.ContentBackground).Content = track
				doc.Lines = append(doc.Lines, l)
				lastBg, lastBgStart = len(doc.Lines)-1, start
				continue
			}

			l := lyric.Line{StartMS: start, EndMS: lineEnd, Agent: actor.role.agent(), SongPart: actor.songPart}
			l.EnsureTrack(lyric.ContentMain).Content = track
			doc.Lines = append(doc.Lines, l)
			lastMain, lastMainStart = len(doc.Lines)-1, start
			lastBg = -1

		case assStyleTranslation, assStyleRomanization:
			if lastMain < 0 || lastMainStart != start {
				doc.Warnf("line %d: %s row at %d does not match a lyric line, dropped", lineNo, styleName, start)
				continue
			}
			attachASSAux(doc.Lines[lastMain].EnsureTrack(lyric.ContentMain), style == assStyleTranslation, body, start, end, actor.language)

		case assStyleBgTranslation, assStyleBgRomanization:
			if lastBg < 0 || lastBgStart != start {
				doc.Warnf("line %d: %s row at %d does not match a background line, dropped", lineNo, styleName, start)
				continue
			}
			attachASSAux(doc.Lines[lastBg].EnsureTrack(lyric.ContentBackground), style == assStyleBgTranslation, body, start, end, actor.language)
		}
	}

	doc.Sort()
	return doc, nil
}

func attachASSAux(at *lyric.AnnotatedTrack, translation bool, body string, start, end uint64, lang string) {
	if translation {
		if lang == "" {
			lang = DefaultASSTranslationLanguage
		}
		at.AddTranslation(assAuxTrack(body, start, lang))
		return
	}
	at.AddRomanization(assAuxTrack(body, start, lang))
}

// assAuxTrack 带卡拉 OK 标签的辅助行保留逐字时间，否则为无时间文本
func assAuxTrack(body string, start uint64, lang string) lyric.Track {
	if syls, _ := parseKaraoke(body, start); len(syls) > 0 {
		return lyric.NewTrack(syls, lang)
	}
	return lyric.NewTextTrack(cleanASSText(body), lang, 0, 0)
}

// applyASSMeta 处理 meta 样式的 "key: value" 注释行
func applyASSMeta(doc *lyric.Document, body string) {
	key, value, ok := strings.Cut(cleanASSText(body), ":")
	if !ok {
		doc.Warnf("meta row %q is not key: value", body)
		return
	}
	key, value = strings.TrimSpace(key), strings.TrimSpace(value)
	if key == "" || value == "" {
		return
	}
	switch strings.ToLower(key) {
	case "lang", "language":
		doc.AddMetadata("language", value)
	case "v1", "v2", "v1000", "左", "右", "合":
		id := key
		if r, ok := assRoleTags[key]; ok {
			id = r.agent()
		}
		typ := lyric.AgentPerson
		if id == "v1000" {
			typ = lyric.AgentGroup
		}
		doc.SetAgent(lyric.Agent{ID: id, Name: value, Type: typ})
	default:
		doc.AddMetadata(key, value)
	}
}
