package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"lyricconv/pkg/lyric"
)

// 尾部括号内容，视为背景人声的翻译
var trailingParenRe = regexp.MustCompile(`^(.*?)\s*[（(]([^()（）]+)[)）]\s*$`)

// ParseTTMLTime 解析 h:m:s.fff、m:s.fff、s.fff 以及带 s 后缀的时间
func ParseTTMLTime(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	if !strings.Contains(s, ":") {
		s = strings.TrimSuffix(s, "s")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}

	secPart := parts[len(parts)-1]
	whole, frac, _ := strings.Cut(secPart, ".")
	sec, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seconds in %q: %w", s, err)
	}
	for _, c := range frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid fraction in %q", s)
		}
	}
	ms := uint64(0)
	if frac != "" {
		ms = atou((frac + "00")[:3])
	}

	var hours, minutes uint64
	switch len(parts) {
	case 3:
		if hours, err = strconv.ParseUint(parts[0], 10, 64); err != nil {
			return 0, fmt.Errorf("invalid hours in %q: %w", s, err)
		}
		if minutes, err = strconv.ParseUint(parts[1], 10, 64); err != nil {
			return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
		}
		if minutes >= 60 {
			return 0, fmt.Errorf("minutes out of range in %q", s)
		}
	case 2:
		if minutes, err = strconv.ParseUint(parts[0], 10, 64); err != nil {
			return 0, fmt.Errorf("invalid minutes in %q: %w", s, err)
		}
	}
	if len(parts) > 1 && sec >= 60 {
		return 0, fmt.Errorf("seconds out of range in %q", s)
	}

	return hours*3600000 + minutes*60000 + sec*1000 + ms, nil
}

// attr 按本地名查找属性，忽略命名空间前缀
func attr(e *etree.Element, key string) string {
	for _, a := range e.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

func hasAttr(e *etree.Element, key string) bool {
	for _, a := range e.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// child 按本地名查找第一个子元素
func child(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func children(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

func spanRole(e *etree.Element) string {
	return attr(e, "role")
}

// innerText 拼接所有后代文本
func innerText(e *etree.Element) string {
	var b strings.Builder
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			b.WriteString(innerText(t))
		}
	}
	return b.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanBackgroundText 去掉背景人声首尾的括号
func cleanBackgroundText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "(（")
	return strings.TrimRight(s, ")）")
}

type ttmlParser struct {
	doc      *lyric.Document
	lineMode bool
	lang     string
	// 按 itunes:key 收集的 Apple 翻译和音译
	translations     map[string][]appleAux
	transliterations map[string][]appleAux
}

type appleAux struct {
	lang       string
	main       lyric.Track
	background lyric.Track
}

// ParseTTML 解析 TTML，根节点 itunes:timing 决定逐行/逐字模式
func ParseTTML(text string) (*lyric.Document, error) {
	x := etree.NewDocument()
	if err := x.ReadFromString(text); err != nil {
		return nil, &StructuralError{Format: lyric.FormatTTML, Reason: "malformed XML", Err: err}
	}
	root := x.Root()
	if root == nil || root.Tag != "tt" {
		return nil, &StructuralError{Format: lyric.FormatTTML, Reason: "missing <tt> root element"}
	}

	p := &ttmlParser{
		doc:              lyric.NewDocument(lyric.FormatTTML),
		lang:             attr(root, "lang"),
		translations:     make(map[string][]appleAux),
		transliterations: make(map[string][]appleAux),
	}

	switch timing := strings.ToLower(attr(root, "timing")); timing {
	case "line", "none":
		p.lineMode = true
	case "word":
	default:
		p.lineMode = !hasTimedSpan(root)
	}
	p.doc.IsLineTimed = p.lineMode
	if p.lang != "" {
		p.doc.AddMetadata("language", p.lang)
	}

	if head := child(root, "head"); head != nil {
		p.parseHead(head)
	}
	if body := child(root, "body"); body != nil {
		p.walkBody(body, "")
	}

	p.applyAppleAux()
	p.moveParenthesizedTranslation()
	p.doc.Sort()
	return p.doc, nil
}

func hasTimedSpan(e *etree.Element) bool {
	for _, c := range e.ChildElements() {
		if c.Tag == "span" && hasAttr(c, "begin") {
			return true
		}
		if hasTimedSpan(c) {
			return true
		}
	}
	return false
}

func (p *ttmlParser) parseHead(head *etree.Element) {
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			switch c.Tag {
			case "meta":
				key, value := attr(c, "key"), attr(c, "value")
				if key != "" && value != "" {
					p.doc.AddMetadata(key, value)
				}
			case "agent":
				a := lyric.Agent{ID: attr(c, "id"), Type: lyric.AgentType(attr(c, "type"))}
				if n := child(c, "name"); n != nil {
					a.Name = strings.TrimSpace(innerText(n))
				}
				if a.Type != lyric.AgentGroup {
					a.Type = lyric.AgentPerson
				}
				if a.ID != "" {
					p.doc.SetAgent(a)
				}
			case "songwriter":
				if v := strings.TrimSpace(innerText(c)); v != "" {
					p.doc.AddMetadata("songwriter", v)
				}
			case "translation":
				p.collectAppleAux(c, p.translations)
			case "transliteration":
				p.collectAppleAux(c, p.transliterations)
			default:
				walk(c)
			}
		}
	}
	walk(head)
}

// collectAppleAux 读取 <translation xml:lang><text for="L1">...</text></translation>
func (p *ttmlParser) collectAppleAux(e *etree.Element, into map[string][]appleAux) {
	lang := attr(e, "lang")
	for _, t := range children(e, "text") {
		key := attr(t, "for")
		if key == "" {
			continue
		}
		aux := appleAux{lang: lang}
		var plain strings.Builder
		var syls []rawSyllable
		for _, tok := range t.Child {
			switch v := tok.(type) {
			case *etree.CharData:
				plain.WriteString(v.Data)
				if len(syls) > 0 {
					syls[len(syls)-1].text += spaceOnly(v.Data)
				}
			case *etree.Element:
				if spanRole(v) == "x-bg" {
					aux.background = lyric.NewTextTrack(cleanBackgroundText(normalizeSpace(innerText(v))), lang, 0, 0)
					continue
				}
				if begin, end, ok := p.spanTimes(v); ok {
					syls = append(syls, rawSyllable{text: innerText(v), start: begin, end: end})
					continue
				}
				plain.WriteString(innerText(v))
			}
		}
		if len(syls) > 0 {
			aux.main = lyric.NewTrack(buildSyllables(syls), lang)
		} else {
			aux.main = lyric.NewTextTrack(normalizeSpace(plain.String()), lang, 0, 0)
		}
		into[key] = append(into[key], aux)
	}
}

// spaceOnly 纯空格且不含换行的文本节点表示一个词间空格
func spaceOnly(s string) string {
	if s != "" && strings.TrimSpace(s) == "" && !strings.ContainsAny(s, "\n\r") {
		return " "
	}
	return ""
}

func (p *ttmlParser) spanTimes(e *etree.Element) (uint64, uint64, bool) {
	if !hasAttr(e, "begin") || !hasAttr(e, "end") {
		return 0, 0, false
	}
	begin, err1 := ParseTTMLTime(attr(e, "begin"))
	end, err2 := ParseTTMLTime(attr(e, "end"))
	if err1 != nil || err2 != nil {
		p.doc.Warnf("span %q: invalid time (%v, %v)", innerText(e), err1, err2)
		return 0, 0, false
	}
	return begin, end, true
}

func (p *ttmlParser) walkBody(e *etree.Element, songPart string) {
	for _, c := range e.ChildElements() {
		part := songPart
		if v := attr(c, "song-part"); v != "" {
			part = v
		}
		switch c.Tag {
		case "p":
			p.parseParagraph(c, part)
		default:
			p.walkBody(c, part)
		}
	}
}

func (p *ttmlParser) parseParagraph(e *etree.Element, songPart string) {
	line := lyric.Line{
		SongPart:  songPart,
		Agent:     attr(e, "agent"),
		ITunesKey: attr(e, "key"),
	}
	begin, end, timed := p.spanTimes(e)

	main := lyric.AnnotatedTrack{ContentType: lyric.ContentMain}
	var plain strings.Builder
	var syls []rawSyllable
	for _, tok := range e.Child {
		switch v := tok.(type) {
		case *etree.CharData:
			if p.lineMode {
				plain.WriteString(v.Data)
				continue
			}
			if len(syls) > 0 {
				syls[len(syls)-1].text += spaceOnly(v.Data)
			}
			if strings.TrimSpace(v.Data) != "" {
				plain.WriteString(v.Data)
			}
		case *etree.Element:
			switch spanRole(v) {
			case "x-translation":
				main.AddTranslation(p.auxTrack(v))
			case "x-roman":
				main.AddRomanization(p.auxTrack(v))
			case "x-bg":
				p.parseBackground(&line, v)
			default:
				if sb, se, ok := p.spanTimes(v); ok && !p.lineMode {
					syls = append(syls, rawSyllable{text: innerText(v), start: sb, end: se})
					continue
				}
				plain.WriteString(innerText(v))
			}
		}
	}

	if len(syls) > 0 {
		main.Content = lyric.NewTrack(buildSyllables(syls), p.lang)
	} else {
		main.Content = lyric.NewTextTrack(normalizeSpace(plain.String()), p.lang, begin, end)
	}

	if main.Content.IsEmpty() && line.BackgroundTrack() == nil {
		p.doc.Warnf("empty paragraph at %s skipped", attr(e, "begin"))
		return
	}
	if !main.Content.IsEmpty() || len(main.Translations) > 0 {
		*line.EnsureTrack(lyric.ContentMain) = main
	}

	if timed {
		line.StartMS, line.EndMS = begin, end
	} else {
		line.RecalculateTiming()
	}
	if line.EndMS < line.StartMS {
		line.EndMS = line.StartMS
	}
	p.doc.Lines = append(p.doc.Lines, line)
}

// auxTrack 翻译/音译 span：含计时子 span 时保留逐字时间
func (p *ttmlParser) auxTrack(e *etree.Element) lyric.Track {
	lang := attr(e, "lang")
	var syls []rawSyllable
	for _, tok := range e.Child {
		switch v := tok.(type) {
		case *etree.CharData:
			if len(syls) > 0 {
				syls[len(syls)-1].text += spaceOnly(v.Data)
			}
		case *etree.Element:
			if sb, se, ok := p.spanTimes(v); ok {
				syls = append(syls, rawSyllable{text: innerText(v), start: sb, end: se})
			}
		}
	}
	if len(syls) > 0 {
		return lyric.NewTrack(buildSyllables(syls), lang)
	}
	return lyric.NewTextTrack(normalizeSpace(innerText(e)), lang, 0, 0)
}

func (p *ttmlParser) parseBackground(line *lyric.Line, e *etree.Element) {
	bg := line.EnsureTrack(lyric.ContentBackground)
	var plain strings.Builder
	var syls []rawSyllable
	for _, tok := range e.Child {
		switch v := tok.(type) {
		case *etree.CharData:
			plain.WriteString(v.Data)
			if len(syls) > 0 {
				syls[len(syls)-1].text += spaceOnly(v.Data)
			}
		case *etree.Element:
			switch spanRole(v) {
			case "x-translation":
				bg.AddTranslation(p.auxTrack(v))
			case "x-roman":
				bg.AddRomanization(p.auxTrack(v))
			default:
				if sb, se, ok := p.spanTimes(v); ok && !p.lineMode {
					syls = append(syls, rawSyllable{text: innerText(v), start: sb, end: se})
					continue
				}
				plain.WriteString(innerText(v))
			}
		}
	}

	if len(syls) == 0 {
		text := cleanBackgroundText(normalizeSpace(plain.String()))
		begin, end, _ := p.spanTimes(e)
		bg.Content = lyric.NewTextTrack(text, p.lang, begin, end)
		return
	}

	out := buildSyllables(syls)
	if len(out) > 0 {
		out[0].Text = strings.TrimLeft(out[0].Text, "(（")
		last := len(out) - 1
		out[last].Text = strings.TrimRight(out[last].Text, ")）")
	}
	kept := out[:0]
	for _, s := range out {
		if s.Text != "" {
			kept = append(kept, s)
		}
	}
	bg.Content = lyric.NewTrack(kept, p.lang)
}

// applyAppleAux 遍历完文档后按 itunes:key 挂上翻译和音译
func (p *ttmlParser) applyAppleAux() {
	for i := range p.doc.Lines {
		line := &p.doc.Lines[i]
		if line.ITunesKey == "" {
			continue
		}
		for _, aux := range p.translations[line.ITunesKey] {
			line.EnsureTrack(lyric.ContentMain).AddTranslation(aux.main)
			if bg := line.BackgroundTrack(); bg != nil {
				bg.AddTranslation(aux.background)
			}
		}
		for _, aux := range p.transliterations[line.ITunesKey] {
			line.EnsureTrack(lyric.ContentMain).AddRomanization(aux.main)
			if bg := line.BackgroundTrack(); bg != nil {
				bg.AddRomanization(aux.background)
			}
		}
	}
}

// moveParenthesizedTranslation 主翻译末尾的括号内容移给没有翻译的背景人声
func (p *ttmlParser) moveParenthesizedTranslation() {
	for i := range p.doc.Lines {
		line := &p.doc.Lines[i]
		main, bg := line.MainTrack(), line.BackgroundTrack()
		if main == nil || bg == nil || len(bg.Translations) > 0 || len(main.Translations) == 0 {
			continue
		}
		tr := main.Translations[0]
		if tr.IsTimed() {
			continue
		}
		m := trailingParenRe.FindStringSubmatch(tr.Text())
		if m == nil || strings.TrimSpace(m[1]) == "" {
			continue
		}
		main.Translations[0] = lyric.NewTextTrack(m[1], tr.Language, 0, 0)
		bg.AddTranslation(lyric.NewTextTrack(m[2], tr.Language, 0, 0))
	}
}
