// Package generator 把 lyric.Document 渲染为各种歌词格式。相同输入总是得到相同输出，
// 生成过程不会修改传入的文档
package generator

import (
	"errors"
	"fmt"
	"strings"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/metadata"
	"lyricconv/pkg/splitter"
)

// ErrUnsupported 没有对应的生成器
var ErrUnsupported = errors.New("unsupported target format")

// Error 生成失败
type Error struct {
	Format lyric.Format
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Format, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TimingMode TTML 输出的计时方式
type TimingMode int

const (
	// TimingAuto 跟随文档本身是否逐行计时
	TimingAuto TimingMode = iota
	TimingWord
	TimingLine
)

// ParseTimingMode 解析配置中的 "auto" / "word" / "line"
func ParseTimingMode(s string) (TimingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return TimingAuto, nil
	case "word", "syllable":
		return TimingWord, nil
	case "line":
		return TimingLine, nil
	}
	return TimingAuto, fmt.Errorf("unknown timing mode %q", s)
}

// Options 生成选项
type Options struct {
	TimingMode TimingMode
	// AppleFormat 按 Apple Music 的约定输出 TTML
	AppleFormat bool
	Indent      bool

	AutoWordSplitting bool
	PunctuationWeight float64

	MainLanguage         string
	TranslationLanguage  string
	RomanizationLanguage string
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{PunctuationWeight: splitter.DefaultPunctuationWeight}
}

// Generate 生成目标格式文本
func Generate(doc *lyric.Document, format lyric.Format, opts Options) (string, error) {
	if format.IsWordTimed() && opts.AutoWordSplitting && !doc.IsLineTimed {
		doc = splitter.SplitDocument(doc.Clone(), splitter.Options{PunctuationWeight: opts.PunctuationWeight})
	}

	var (
		out string
		err error
	)
	switch format {
	case lyric.FormatTTML:
		out, err = generateTTML(doc, opts)
	case lyric.FormatLRC:
		out = generateLRC(doc, opts)
	case lyric.FormatELRC:
		out = generateELRC(doc, opts)
	case lyric.FormatQRC:
		out = generateQRC(doc)
	case lyric.FormatYRC:
		out = generateYRC(doc)
	case lyric.FormatKRC:
		out, err = generateKRC(doc)
	case lyric.FormatLYS:
		out = generateLYS(doc, true)
	case lyric.FormatSPL:
		out = generateSPL(doc)
	case lyric.FormatASS:
		out = generateASS(doc)
	case lyric.FormatLYL:
		out = generateLYL(doc)
	case lyric.FormatLQE:
		out = generateLQE(doc, opts)
	case lyric.FormatJSON:
		out, err = generateJSON(doc, opts)
	default:
		return "", &Error{Format: format, Err: ErrUnsupported}
	}
	if err != nil {
		return "", &Error{Format: format, Err: err}
	}
	return out, nil
}

func store(doc *lyric.Document) *metadata.Store {
	s := metadata.FromRaw(doc.Metadata)
	s.Deduplicate()
	return s
}

// mainLanguage 选项优先，其次是元数据
func mainLanguage(doc *lyric.Document, opts Options) string {
	if opts.MainLanguage != "" {
		return opts.MainLanguage
	}
	v, _ := store(doc).Get(metadata.Language)
	return v
}

// pickTrack 优先取指定语言的轨道，否则取第一条
func pickTrack(tracks []lyric.Track, lang string) *lyric.Track {
	if len(tracks) == 0 {
		return nil
	}
	if lang != "" {
		for i := range tracks {
			if strings.EqualFold(tracks[i].Language, lang) {
				return &tracks[i]
			}
		}
	}
	return &tracks[0]
}

// formatLRCTime [mm:ss.xxx]
func formatLRCTime(ms uint64) string {
	return fmt.Sprintf("[%s]", clockMS(ms))
}

func clockMS(ms uint64) string {
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, ms%60000/1000, ms%1000)
}

// syllableText EndsWithSpace 在音节文本后补一个空格，行尾除外
func syllableText(s lyric.Syllable, last bool) string {
	if s.EndsWithSpace && !last {
		return s.Text + " "
	}
	return s.Text
}
