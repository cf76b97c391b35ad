// Package lyric 定义所有歌词格式共享的中间数据模型
package lyric

import (
	"fmt"
	"sort"
	"strings"
)

// ContentType 轨道内容类型
type ContentType int

const (
	ContentMain ContentType = iota
	ContentBackground
)

func (c ContentType) String() string {
	if c == ContentBackground {
		return "background"
	}
	return "main"
}

// Syllable 最小的独立计时单元
type Syllable struct {
	Text          string `json:"text" yaml:"text"`
	StartMS       uint64 `json:"start_ms" yaml:"start_ms"`
	EndMS         uint64 `json:"end_ms" yaml:"end_ms"`
	EndsWithSpace bool   `json:"ends_with_space,omitempty" yaml:"ends_with_space,omitempty"`
}

// Duration 音节时长
func (s Syllable) Duration() uint64 {
	if s.EndMS < s.StartMS {
		return 0
	}
	return s.EndMS - s.StartMS
}

// Word 由若干音节组成的词
type Word struct {
	Syllables []Syllable `json:"syllables" yaml:"syllables"`
}

// Track 一条"声部"内容：主歌词、翻译或音译
type Track struct {
	Words    []Word `json:"words" yaml:"words"`
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// NewTrack 用一组音节构造只有一个词的轨道
func NewTrack(syllables []Syllable, lang string) Track {
	if len(syllables) == 0 {
		return Track{Language: lang}
	}
	return Track{Words: []Word{{Syllables: syllables}}, Language: lang}
}

// NewTextTrack 构造一个只含一个音节的轨道，常用于逐行翻译
func NewTextTrack(text, lang string, startMS, endMS uint64) Track {
	text = strings.TrimSpace(text)
	if text == "" {
		return Track{Language: lang}
	}
	return NewTrack([]Syllable{{Text: text, StartMS: startMS, EndMS: endMS}}, lang)
}

// Syllables 按顺序展开所有音节
func (t Track) Syllables() []Syllable {
	var out []Syllable
	for _, w := range t.Words {
		out = append(out, w.Syllables...)
	}
	return out
}

// Len 音节数量
func (t Track) Len() int {
	n := 0
	for _, w := range t.Words {
		n += len(w.Syllables)
	}
	return n
}

// IsEmpty 轨道内没有任何可见文本
func (t Track) IsEmpty() bool {
	for _, w := range t.Words {
		for _, s := range w.Syllables {
			if s.Text != "" {
				return false
			}
		}
	}
	return true
}

// Text 拼接轨道文本，EndsWithSpace 还原为单个空格
func (t Track) Text() string {
	var b strings.Builder
	syls := t.Syllables()
	for i, s := range syls {
		b.WriteString(s.Text)
		if s.EndsWithSpace && i < len(syls)-1 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// TimeRange 返回轨道的 min(start)..max(end)，空轨道 ok 为 false
func (t Track) TimeRange() (start, end uint64, ok bool) {
	for _, s := range t.Syllables() {
		if !ok {
			start, end, ok = s.StartMS, s.EndMS, true
			continue
		}
		if s.StartMS < start {
			start = s.StartMS
		}
		if s.EndMS > end {
			end = s.EndMS
		}
	}
	return start, end, ok
}

// IsTimed 是否为逐字计时（多于一个音节，或唯一音节有非零时长）
func (t Track) IsTimed() bool {
	syls := t.Syllables()
	if len(syls) > 1 {
		return true
	}
	return len(syls) == 1 && syls[0].EndMS > syls[0].StartMS
}

// ShiftTime 将所有音节整体平移
func (t *Track) ShiftTime(deltaMS int64) {
	for wi := range t.Words {
		for si := range t.Words[wi].Syllables {
			s := &t.Words[wi].Syllables[si]
			s.StartMS = shift(s.StartMS, deltaMS)
			s.EndMS = shift(s.EndMS, deltaMS)
		}
	}
}

func shift(v uint64, delta int64) uint64 {
	if delta < 0 && uint64(-delta) > v {
		return 0
	}
	return uint64(int64(v) + delta)
}

// AnnotatedTrack 内容轨道加上附着的翻译和音译
type AnnotatedTrack struct {
	ContentType   ContentType `json:"content_type" yaml:"content_type"`
	Content       Track       `json:"content" yaml:"content"`
	Translations  []Track     `json:"translations,omitempty" yaml:"translations,omitempty"`
	Romanizations []Track     `json:"romanizations,omitempty" yaml:"romanizations,omitempty"`
}

// AddTranslation 追加翻译，相同文本不重复添加
func (a *AnnotatedTrack) AddTranslation(t Track) bool {
	if t.IsEmpty() || containsText(a.Translations, t.Text()) {
		return false
	}
	a.Translations = append(a.Translations, t)
	return true
}

// AddRomanization 追加音译，相同文本不重复添加
func (a *AnnotatedTrack) AddRomanization(t Track) bool {
	if t.IsEmpty() || containsText(a.Romanizations, t.Text()) {
		return false
	}
	a.Romanizations = append(a.Romanizations, t)
	return true
}

func containsText(tracks []Track, text string) bool {
	for _, t := range tracks {
		if t.Text() == text {
			return true
		}
	}
	return false
}

// Line 一行歌词
type Line struct {
	StartMS   uint64           `json:"start_ms" yaml:"start_ms"`
	EndMS     uint64           `json:"end_ms" yaml:"end_ms"`
	SongPart  string           `json:"song_part,omitempty" yaml:"song_part,omitempty"`
	Agent     string           `json:"agent,omitempty" yaml:"agent,omitempty"`
	ITunesKey string           `json:"itunes_key,omitempty" yaml:"itunes_key,omitempty"`
	Tracks    []AnnotatedTrack `json:"tracks" yaml:"tracks"`
}

// Track 返回指定类型的第一条轨道
func (l *Line) Track(ct ContentType) *AnnotatedTrack {
	for i := range l.Tracks {
		if l.Tracks[i].ContentType == ct {
			return &l.Tracks[i]
		}
	}
	return nil
}

// MainTrack 主歌词轨道
func (l *Line) MainTrack() *AnnotatedTrack {
	return l.Track(ContentMain)
}

// BackgroundTrack 背景人声轨道
func (l *Line) BackgroundTrack() *AnnotatedTrack {
	return l.Track(ContentBackground)
}

// EnsureTrack 返回指定类型的轨道，不存在时创建；主轨道始终排在最前
func (l *Line) EnsureTrack(ct ContentType) *AnnotatedTrack {
	if t := l.Track(ct); t != nil {
		return t
	}
	at := AnnotatedTrack{ContentType: ct}
	if ct == ContentMain {
		l.Tracks = append([]AnnotatedTrack{at}, l.Tracks...)
		return &l.Tracks[0]
	}
	l.Tracks = append(l.Tracks, at)
	return &l.Tracks[len(l.Tracks)-1]
}

// Text 主歌词文本
func (l *Line) Text() string {
	if t := l.MainTrack(); t != nil {
		return t.Content.Text()
	}
	return ""
}

// Translation 主轨道第一条翻译文本
func (l *Line) Translation() string {
	if t := l.MainTrack(); t != nil && len(t.Translations) > 0 {
		return t.Translations[0].Text()
	}
	return ""
}

// RecalculateTiming 按内容轨道音节重新计算行的起止时间
func (l *Line) RecalculateTiming() {
	first := true
	for _, at := range l.Tracks {
		start, end, ok := at.Content.TimeRange()
		if !ok {
			continue
		}
		if first {
			l.StartMS, l.EndMS, first = start, end, false
			continue
		}
		if start < l.StartMS {
			l.StartMS = start
		}
		if end > l.EndMS {
			l.EndMS = end
		}
	}
	if l.EndMS < l.StartMS {
		l.EndMS = l.StartMS
	}
}

// BackgroundSection 背景人声块
type BackgroundSection struct {
	StartMS      uint64
	EndMS        uint64
	Syllables    []Syllable
	Translation  *Track
	Romanization *Track
}

// NewBackgroundSection 由音节构造背景块，起止时间取音节的 min/max；无音节时返回 nil
func NewBackgroundSection(syllables []Syllable) *BackgroundSection {
	if len(syllables) == 0 {
		return nil
	}
	bs := &BackgroundSection{Syllables: syllables}
	bs.StartMS, bs.EndMS, _ = NewTrack(syllables, "").TimeRange()
	return bs
}

// BackgroundSection 以背景块视图返回行内的背景轨道
func (l *Line) BackgroundSection() *BackgroundSection {
	bg := l.BackgroundTrack()
	if bg == nil {
		return nil
	}
	bs := NewBackgroundSection(bg.Content.Syllables())
	if bs == nil {
		return nil
	}
	if len(bg.Translations) > 0 {
		t := bg.Translations[0]
		bs.Translation = &t
	}
	if len(bg.Romanizations) > 0 {
		r := bg.Romanizations[0]
		bs.Romanization = &r
	}
	return bs
}

// SetBackgroundSection 用背景块替换行内背景轨道；nil 或无音节时删除背景轨道
func (l *Line) SetBackgroundSection(bs *BackgroundSection) {
	kept := l.Tracks[:0]
	for _, t := range l.Tracks {
		if t.ContentType != ContentBackground {
			kept = append(kept, t)
		}
	}
	l.Tracks = kept
	if bs == nil || len(bs.Syllables) == 0 {
		return
	}
	at := AnnotatedTrack{ContentType: ContentBackground, Content: NewTrack(bs.Syllables, "")}
	if bs.Translation != nil {
		at.AddTranslation(*bs.Translation)
	}
	if bs.Romanization != nil {
		at.AddRomanization(*bs.Romanization)
	}
	l.Tracks = append(l.Tracks, at)
}

// Agent 演唱者
type Agent struct {
	ID   string    `json:"id" yaml:"id"`
	Name string    `json:"name,omitempty" yaml:"name,omitempty"`
	Type AgentType `json:"type" yaml:"type"`
}

// AgentType 演唱者类型
type AgentType string

const (
	AgentPerson AgentType = "person"
	AgentGroup  AgentType = "group"
)

// Marker 非歌词标记行（ASS x-mark）
type Marker struct {
	StartMS uint64 `json:"start_ms" yaml:"start_ms"`
	Text    string `json:"text" yaml:"text"`
}

// DisplayLine 无法合并时单独保留的次要歌词
type DisplayLine struct {
	StartMS uint64 `json:"start_ms" yaml:"start_ms"`
	Text    string `json:"text" yaml:"text"`
}

// Document 一次解析的结果
type Document struct {
	Lines        []Line              `json:"lines" yaml:"lines"`
	Metadata     map[string][]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	SourceFormat Format              `json:"source_format" yaml:"source_format"`
	IsLineTimed  bool                `json:"is_line_timed" yaml:"is_line_timed"`
	Warnings     []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Agents                  []Agent       `json:"agents,omitempty" yaml:"agents,omitempty"`
	Markers                 []Marker      `json:"markers,omitempty" yaml:"markers,omitempty"`
	LineErrors              []error       `json:"-" yaml:"-"`
	StandaloneTranslations  []DisplayLine `json:"standalone_translations,omitempty" yaml:"standalone_translations,omitempty"`
	StandaloneRomanizations []DisplayLine `json:"standalone_romanizations,omitempty" yaml:"standalone_romanizations,omitempty"`
}

// NewDocument 创建空文档
func NewDocument(format Format) *Document {
	return &Document{SourceFormat: format, Metadata: make(map[string][]string)}
}

// Warnf 追加一条非致命警告
func (d *Document) Warnf(format string, args ...any) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// AddMetadata 追加一个元数据值
func (d *Document) AddMetadata(key, value string) {
	if d.Metadata == nil {
		d.Metadata = make(map[string][]string)
	}
	d.Metadata[key] = append(d.Metadata[key], value)
}

// FirstMetadata 返回某键的第一个值
func (d *Document) FirstMetadata(keys ...string) string {
	for _, k := range keys {
		if vs := d.Metadata[k]; len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// Sort 按开始时间稳定排序
func (d *Document) Sort() {
	sort.SliceStable(d.Lines, func(i, j int) bool {
		return d.Lines[i].StartMS < d.Lines[j].StartMS
	})
}

// AgentName 返回演唱者显示名
func (d *Document) AgentName(id string) string {
	for _, a := range d.Agents {
		if a.ID == id {
			return a.Name
		}
	}
	return ""
}

// SetAgent 新增或更新演唱者
func (d *Document) SetAgent(a Agent) {
	for i := range d.Agents {
		if d.Agents[i].ID == a.ID {
			if a.Name != "" {
				d.Agents[i].Name = a.Name
			}
			if a.Type != "" {
				d.Agents[i].Type = a.Type
			}
			return
		}
	}
	if a.Type == "" {
		a.Type = AgentPerson
	}
	d.Agents = append(d.Agents, a)
}

// DurationMS 最后一行的结束时间
func (d *Document) DurationMS() uint64 {
	var end uint64
	for _, l := range d.Lines {
		if l.EndMS > end {
			end = l.EndMS
		}
	}
	return end
}

// LineIndexAt 二分查找时间 ms 所在的行：最后一个 StartMS <= ms 的行，之前返回 -1
func LineIndexAt(lines []Line, ms uint64) int {
	if len(lines) == 0 || ms < lines[0].StartMS {
		return -1
	}

	left, right := 0, len(lines)-1
	result := -1
	for left <= right {
		mid := (left + right) / 2
		if lines[mid].StartMS <= ms {
			result = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}
	return result
}

// Clone 深拷贝轨道
func (t Track) Clone() Track {
	out := Track{Language: t.Language}
	if t.Words != nil {
		out.Words = make([]Word, len(t.Words))
		for i, w := range t.Words {
			out.Words[i] = Word{Syllables: append([]Syllable(nil), w.Syllables...)}
		}
	}
	return out
}

func cloneTracks(ts []Track) []Track {
	if ts == nil {
		return nil
	}
	out := make([]Track, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

// Clone 深拷贝一行
func (l Line) Clone() Line {
	out := l
	out.Tracks = make([]AnnotatedTrack, len(l.Tracks))
	for i, at := range l.Tracks {
		out.Tracks[i] = AnnotatedTrack{
			ContentType:   at.ContentType,
			Content:       at.Content.Clone(),
			Translations:  cloneTracks(at.Translations),
			Romanizations: cloneTracks(at.Romanizations),
		}
	}
	return out
}

// Clone 深拷贝文档，转换过程可以在副本上就地修改
func (d *Document) Clone() *Document {
	out := &Document{
		SourceFormat:            d.SourceFormat,
		IsLineTimed:             d.IsLineTimed,
		Warnings:                append([]string(nil), d.Warnings...),
		Agents:                  append([]Agent(nil), d.Agents...),
		Markers:                 append([]Marker(nil), d.Markers...),
		LineErrors:              append([]error(nil), d.LineErrors...),
		StandaloneTranslations:  append([]DisplayLine(nil), d.StandaloneTranslations...),
		StandaloneRomanizations: append([]DisplayLine(nil), d.StandaloneRomanizations...),
		Metadata:                make(map[string][]string, len(d.Metadata)),
	}
	for k, vs := range d.Metadata {
		out.Metadata[k] = append([]string(nil), vs...)
	}
	out.Lines = make([]Line, len(d.Lines))
	for i, l := range d.Lines {
		out.Lines[i] = l.Clone()
	}
	return out
}
