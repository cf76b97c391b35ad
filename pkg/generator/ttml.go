package generator

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/metadata"
)

const (
	nsTTML   = "http://www.w3.org/ns/ttml"
	nsTTM    = "http://www.w3.org/ns/ttml#metadata"
	nsITunes = "http://music.apple.com/lyric-ttml-internal"
	nsAMLL   = "http://www.example.com/ns/amll"
)

// FormatTTMLTime 1 分钟以内为 s.mmm，1 小时以内为 m:ss.mmm，否则为 h:mm:ss.mmm
func FormatTTMLTime(ms uint64) string {
	frac := ms % 1000
	sec := ms / 1000
	switch {
	case sec < 60:
		return fmt.Sprintf("%d.%03d", sec, frac)
	case sec < 3600:
		return fmt.Sprintf("%d:%02d.%03d", sec/60, sec%60, frac)
	}
	return fmt.Sprintf("%d:%02d:%02d.%03d", sec/3600, sec/60%60, sec%60, frac)
}

// appleText Apple 格式下写入 <iTunesMetadata> 的一条翻译/音译
type appleText struct {
	key        string
	main       lyric.Track
	background *lyric.Track
}

// appleAuxSet 按语言分组，保持首次出现的顺序
type appleAuxSet struct {
	langs []string
	texts map[string][]appleText
}

func newAppleAuxSet() *appleAuxSet {
	return &appleAuxSet{texts: make(map[string][]appleText)}
}

func (s *appleAuxSet) add(lang string, t appleText) {
	if _, ok := s.texts[lang]; !ok {
		s.langs = append(s.langs, lang)
	}
	s.texts[lang] = append(s.texts[lang], t)
}

func (s *appleAuxSet) empty() bool {
	return len(s.langs) == 0
}

type ttmlWriter struct {
	doc      *lyric.Document
	opts     Options
	lineMode bool

	translations     *appleAuxSet
	transliterations *appleAuxSet
	// 缩进之后才填充的混合内容
	fill []func()
}

// generateTTML 连续相同 SongPart 的行放在同一个 <div>，每行一个 <p>
func generateTTML(doc *lyric.Document, opts Options) (string, error) {
	w := &ttmlWriter{
		doc:              doc,
		opts:             opts,
		lineMode:         opts.TimingMode == TimingLine || (opts.TimingMode == TimingAuto && doc.IsLineTimed),
		translations:     newAppleAuxSet(),
		transliterations: newAppleAuxSet(),
	}

	x := etree.NewDocument()
	tt := x.CreateElement("tt")
	tt.CreateAttr("xmlns", nsTTML)
	tt.CreateAttr("xmlns:ttm", nsTTM)
	tt.CreateAttr("xmlns:itunes", nsITunes)
	tt.CreateAttr("xmlns:amll", nsAMLL)
	if w.lineMode {
		tt.CreateAttr("itunes:timing", "Line")
	} else {
		tt.CreateAttr("itunes:timing", "Word")
	}
	if lang := mainLanguage(doc, opts); lang != "" {
		tt.CreateAttr("xml:lang", lang)
	}

	head := tt.CreateElement("head")
	meta := head.CreateElement("metadata")
	body := tt.CreateElement("body")
	body.CreateAttr("dur", FormatTTMLTime(doc.DurationMS()))

	// 先建好结构并缩进，再填充 <p> 的内容，避免缩进破坏词间空格
	type pending struct {
		p    *etree.Element
		line *lyric.Line
		key  string
	}
	var paragraphs []pending
	var div *etree.Element
	var divPart string
	var divEnd uint64
	for i := range doc.Lines {
		l := &doc.Lines[i]
		if div == nil || l.SongPart != divPart {
			div = body.CreateElement("div")
			divPart = l.SongPart
			divEnd = l.EndMS
			div.CreateAttr("begin", FormatTTMLTime(l.StartMS))
			div.CreateAttr("end", FormatTTMLTime(divEnd))
			if divPart != "" {
				div.CreateAttr("itunes:song-part", divPart)
			}
		}
		if l.EndMS > divEnd {
			divEnd = l.EndMS
			div.CreateAttr("end", FormatTTMLTime(divEnd))
		}

		key := l.ITunesKey
		if key == "" {
			key = "L" + strconv.Itoa(i+1)
		}
		p := div.CreateElement("p")
		p.CreateAttr("begin", FormatTTMLTime(l.StartMS))
		p.CreateAttr("end", FormatTTMLTime(l.EndMS))
		p.CreateAttr("itunes:key", key)
		if l.Agent != "" {
			p.CreateAttr("ttm:agent", l.Agent)
		}
		paragraphs = append(paragraphs, pending{p: p, line: l, key: key})
	}

	if w.opts.AppleFormat {
		for _, pp := range paragraphs {
			w.collectApple(pp.line, pp.key)
		}
	}
	w.writeHead(meta)

	if opts.Indent {
		x.Indent(2)
	}
	for _, f := range w.fill {
		f()
	}
	for _, pp := range paragraphs {
		w.writeParagraph(pp.p, pp.line)
	}

	out, err := x.WriteToString()
	if err != nil {
		return "", fmt.Errorf("write ttml: %w", err)
	}
	return out, nil
}

func (w *ttmlWriter) writeHead(meta *etree.Element) {
	for _, a := range w.agents() {
		agent := meta.CreateElement("ttm:agent")
		agent.CreateAttr("type", string(a.Type))
		agent.CreateAttr("xml:id", a.ID)
		if a.Name != "" {
			name := agent.CreateElement("ttm:name")
			name.CreateAttr("type", "full")
			name.SetText(a.Name)
		}
	}

	s := store(w.doc)
	for _, key := range metadata.AMLLKeys() {
		for _, v := range s.GetAll(key) {
			m := meta.CreateElement("amll:meta")
			m.CreateAttr("key", key.AMLLName())
			m.CreateAttr("value", v)
		}
	}

	songwriters := s.GetAll(metadata.Songwriter)
	if len(songwriters) == 0 && w.translations.empty() && w.transliterations.empty() {
		return
	}
	itunes := meta.CreateElement("iTunesMetadata")
	itunes.CreateAttr("xmlns", nsITunes)
	if !w.translations.empty() {
		w.writeAppleAux(itunes.CreateElement("translations"), "translation", w.translations)
	}
	if !w.transliterations.empty() {
		w.writeAppleAux(itunes.CreateElement("transliterations"), "transliteration", w.transliterations)
	}
	if len(songwriters) > 0 {
		sw := itunes.CreateElement("songwriters")
		for _, v := range songwriters {
			sw.CreateElement("songwriter").SetText(v)
		}
	}
}

// agents 文档中声明的演唱者，加上行中引用但未声明的
func (w *ttmlWriter) agents() []lyric.Agent {
	agents := append([]lyric.Agent(nil), w.doc.Agents...)
	seen := make(map[string]bool, len(agents))
	for _, a := range agents {
		seen[a.ID] = true
	}
	for _, l := range w.doc.Lines {
		if l.Agent == "" || seen[l.Agent] {
			continue
		}
		seen[l.Agent] = true
		typ := lyric.AgentPerson
		if l.Agent == "v1000" {
			typ = lyric.AgentGroup
		}
		agents = append(agents, lyric.Agent{ID: l.Agent, Type: typ})
	}
	for i := range agents {
		if agents[i].Type == "" {
			agents[i].Type = lyric.AgentPerson
		}
	}
	return agents
}

// collectApple 未计时的翻译放入 <translations>，未计时的音译放入 <transliterations>，
// 同语言的背景人声翻译随主翻译一起写入；计时音译仍内联输出
func (w *ttmlWriter) collectApple(l *lyric.Line, key string) {
	main := l.MainTrack()
	if main == nil {
		return
	}
	var bg *lyric.AnnotatedTrack
	if b := l.BackgroundTrack(); b != nil && !b.Content.IsEmpty() {
		bg = b
	}
	for _, t := range main.Translations {
		at := appleText{key: key, main: t}
		if bg != nil {
			at.background = trackByLanguage(bg.Translations, t.Language)
		}
		w.translations.add(t.Language, at)
	}
	for _, t := range main.Romanizations {
		if t.IsTimed() && t.Len() > 1 {
			continue
		}
		at := appleText{key: key, main: t}
		if bg != nil {
			at.background = trackByLanguage(bg.Romanizations, t.Language)
		}
		w.transliterations.add(t.Language, at)
	}
}

func trackByLanguage(tracks []lyric.Track, lang string) *lyric.Track {
	for i := range tracks {
		if tracks[i].Language == lang {
			return &tracks[i]
		}
	}
	return nil
}

func (w *ttmlWriter) writeAppleAux(parent *etree.Element, tag string, set *appleAuxSet) {
	for _, lang := range set.langs {
		e := parent.CreateElement(tag)
		if tag == "translation" {
			e.CreateAttr("type", "subtitle")
		}
		if lang != "" {
			e.CreateAttr("xml:lang", lang)
		}
		for _, t := range set.texts[lang] {
			text := e.CreateElement("text")
			text.CreateAttr("for", t.key)
			w.fill = append(w.fill, func() {
				if t.main.IsTimed() && t.main.Len() > 1 {
					w.writeSyllableSpans(text, t.main.Syllables(), false)
				} else {
					text.CreateText(t.main.Text())
				}
				if t.background != nil && !t.background.IsEmpty() {
					bg := text.CreateElement("span")
					bg.CreateAttr("ttm:role", "x-bg")
					bg.SetText(t.background.Text())
				}
			})
		}
	}
}

// writeParagraph 逐行模式下主文本取 Track.Text()，只在 EndsWithSpace 的音节后加空格，
// 不是把所有音节都用单个空格连接，这样中日文音节不会被空格隔开
func (w *ttmlWriter) writeParagraph(p *etree.Element, l *lyric.Line) {
	main := l.MainTrack()
	if main != nil {
		if w.lineMode {
			p.CreateText(main.Content.Text())
		} else {
			w.writeSyllableSpans(p, main.Content.Syllables(), false)
		}
		w.writeAux(p, main, nil)
	}

	bg := l.BackgroundTrack()
	if bg == nil || bg.Content.IsEmpty() {
		return
	}
	span := p.CreateElement("span")
	span.CreateAttr("ttm:role", "x-bg")
	if start, end, ok := bg.Content.TimeRange(); ok && end > 0 {
		span.CreateAttr("begin", FormatTTMLTime(start))
		span.CreateAttr("end", FormatTTMLTime(end))
	}
	if w.lineMode {
		span.CreateText(bg.Content.Text())
	} else {
		w.writeSyllableSpans(span, bg.Content.Syllables(), w.opts.AppleFormat)
	}
	w.writeAux(span, bg, main)
}

// writeSyllableSpans 每个音节一个计时 <span>，词间空格写为单独的文本节点
func (w *ttmlWriter) writeSyllableSpans(parent *etree.Element, syls []lyric.Syllable, parenthesize bool) {
	for i, s := range syls {
		text := s.Text
		if parenthesize {
			if i == 0 {
				text = "(" + text
			}
			if i == len(syls)-1 {
				text += ")"
			}
		}
		span := parent.CreateElement("span")
		span.CreateAttr("begin", FormatTTMLTime(s.StartMS))
		span.CreateAttr("end", FormatTTMLTime(s.EndMS))
		span.SetText(text)
		if s.EndsWithSpace && i < len(syls)-1 {
			parent.CreateText(" ")
		}
	}
}

// writeAux 通用模式下翻译和音译都作为内联 span。Apple 模式下只内联计时音译，
// 以及头部无法承载的背景人声翻译
func (w *ttmlWriter) writeAux(parent *etree.Element, at *lyric.AnnotatedTrack, owner *lyric.AnnotatedTrack) {
	apple := w.opts.AppleFormat
	for _, t := range at.Translations {
		if apple && (owner == nil || trackByLanguage(owner.Translations, t.Language) != nil) {
			continue
		}
		w.writeAuxSpan(parent, "x-translation", t)
	}
	for _, t := range at.Romanizations {
		timed := t.IsTimed() && t.Len() > 1
		if apple && !timed && (owner == nil || trackByLanguage(untimed(owner.Romanizations), t.Language) != nil) {
			continue
		}
		w.writeAuxSpan(parent, "x-roman", t)
	}
}

func untimed(tracks []lyric.Track) []lyric.Track {
	var out []lyric.Track
	for _, t := range tracks {
		if !(t.IsTimed() && t.Len() > 1) {
			out = append(out, t)
		}
	}
	return out
}

func (w *ttmlWriter) writeAuxSpan(parent *etree.Element, role string, t lyric.Track) {
	span := parent.CreateElement("span")
	span.CreateAttr("ttm:role", role)
	if t.Language != "" {
		span.CreateAttr("xml:lang", t.Language)
	}
	if t.IsTimed() && t.Len() > 1 && !w.lineMode {
		w.writeSyllableSpans(span, t.Syllables(), false)
		return
	}
	span.SetText(t.Text())
}
