// Package merger 把独立来源的翻译/音译歌词合并到主歌词文档中
package merger

import (
	"sort"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/parser"
)

// DefaultToleranceMS 按时间戳匹配时允许的最大误差
const DefaultToleranceMS = 15

// Kind 次要歌词的类型
type Kind int

const (
	Translation Kind = iota
	Romanization
)

func (k Kind) String() string {
	if k == Romanization {
		return "romanization"
	}
	return "translation"
}

// Source 次要歌词的来源信息
type Source struct {
	// Format 为空时自动识别
	Format      lyric.Format
	Language    string
	ToleranceMS uint64
}

func (s Source) tolerance() uint64 {
	if s.ToleranceMS == 0 {
		return DefaultToleranceMS
	}
	return s.ToleranceMS
}

// Entry 一条待合并的次要歌词
type Entry struct {
	StartMS uint64
	Track   lyric.Track
}

// Merge 解析 text 并把其中的行合并到 doc。主文档来自 YRC 时按行序逐行对应，
// 其余按最近时间戳匹配。解析失败时 doc 不变，只追加一条警告
func Merge(doc *lyric.Document, text string, kind Kind, src Source) *lyric.Document {
	format := src.Format
	if format == "" {
		format = parser.Detect(text)
	}
	secondary, err := parser.Parse(format, text)
	if err != nil {
		doc.Warnf("%s merge skipped: %v", kind, err)
		return doc
	}
	for _, w := range secondary.Warnings {
		doc.Warnf("%s source: %s", kind, w)
	}

	lang := src.Language
	if lang == "" {
		lang = secondary.FirstMetadata("language", "lang")
	}
	return MergeEntries(doc, Entries(secondary, lang), kind, src)
}

// Entries 把次要文档的主歌词行转换为待合并条目。逐字计时的来源保留音节时间，
// 逐行来源只保留文本
func Entries(secondary *lyric.Document, lang string) []Entry {
	entries := make([]Entry, 0, len(secondary.Lines))
	for _, l := range secondary.Lines {
		main := l.MainTrack()
		if main == nil || main.Content.IsEmpty() {
			continue
		}
		var track lyric.Track
		if !secondary.IsLineTimed && main.Content.Len() > 1 {
			track = lyric.NewTrack(main.Content.Syllables(), lang)
		} else {
			track = lyric.NewTextTrack(main.Content.Text(), lang, 0, 0)
		}
		entries = append(entries, Entry{StartMS: l.StartMS, Track: track})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartMS < entries[j].StartMS
	})
	return entries
}

// MergeEntries 合并已经准备好的条目，主文档为空时保留为独立显示列表
func MergeEntries(doc *lyric.Document, entries []Entry, kind Kind, src Source) *lyric.Document {
	if len(entries) == 0 {
		return doc
	}
	if len(doc.Lines) == 0 {
		keepStandalone(doc, entries, kind)
		return doc
	}

	if doc.SourceFormat == lyric.FormatYRC {
		if extra := countUnused(MergePositional(doc.Lines, entries, kind)); extra > 0 {
			doc.Warnf("%s: %d extra lines beyond the lyric line count dropped", kind, extra)
		}
		return doc
	}

	if unmatched := countUnused(MergeNearest(doc.Lines, entries, kind, src.tolerance())); unmatched > 0 {
		doc.Warnf("%s: %d lines did not match any lyric line within %d ms", kind, unmatched, src.tolerance())
	}
	return doc
}

func countUnused(used []bool) int {
	n := 0
	for _, u := range used {
		if !u {
			n++
		}
	}
	return n
}

// MergePositional 第 i 条对应第 i 行
func MergePositional(lines []lyric.Line, entries []Entry, kind Kind) []bool {
	used := make([]bool, len(entries))
	for i := range entries {
		if i >= len(lines) {
			break
		}
		attach(lines[i].EnsureTrack(lyric.ContentMain), entries[i].Track, kind)
		used[i] = true
	}
	return used
}

// MergeNearest 每行（以及它的背景人声）各自取误差不超过 tolerance 的最近未用条目，
// 误差相同取较早的条目。entries 必须按 StartMS 排序
func MergeNearest(lines []lyric.Line, entries []Entry, kind Kind, tolerance uint64) []bool {
	used := make([]bool, len(entries))
	for i := range lines {
		if main := lines[i].MainTrack(); main != nil && !main.Content.IsEmpty() {
			if idx := nearest(entries, used, lines[i].StartMS, tolerance); idx >= 0 {
				attach(lines[i].MainTrack(), entries[idx].Track, kind)
				used[idx] = true
			}
		}
		if bg := lines[i].BackgroundTrack(); bg != nil {
			start, _, ok := bg.Content.TimeRange()
			if !ok {
				continue
			}
			if idx := nearest(entries, used, start, tolerance); idx >= 0 {
				attach(lines[i].BackgroundTrack(), entries[idx].Track, kind)
				used[idx] = true
			}
		}
	}
	return used
}

func nearest(entries []Entry, used []bool, at, tolerance uint64) int {
	best, bestDiff := -1, uint64(0)
	for i, e := range entries {
		if e.StartMS > at+tolerance {
			break
		}
		if used[i] {
			continue
		}
		diff := absDiff(e.StartMS, at)
		if diff > tolerance {
			continue
		}
		if best < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

func attach(at *lyric.AnnotatedTrack, track lyric.Track, kind Kind) {
	track = lyric.NewTrack(track.Syllables(), track.Language)
	if kind == Romanization {
		at.AddRomanization(track)
		return
	}
	at.AddTranslation(track)
}

func keepStandalone(doc *lyric.Document, entries []Entry, kind Kind) {
	for _, e := range entries {
		dl := lyric.DisplayLine{StartMS: e.StartMS, Text: e.Track.Text()}
		if kind == Romanization {
			doc.StandaloneRomanizations = append(doc.StandaloneRomanizations, dl)
		} else {
			doc.StandaloneTranslations = append(doc.StandaloneTranslations, dl)
		}
	}
}
