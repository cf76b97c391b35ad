package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/merger"
)

// ErrNoProviders 没有配置任何翻译提供商
var ErrNoProviders = errors.New("no translation providers available")

// Translator 逐行翻译，返回结果必须与输入行数相同
type Translator interface {
	Name() string
	Translate(ctx context.Context, lines []string, source, target string) ([]string, error)
}

// LineCountError 提供商返回的行数与请求不符
type LineCountError struct {
	Provider  string
	Want, Got int
}

func (e *LineCountError) Error() string {
	return fmt.Sprintf("%s returned %d lines, want %d", e.Provider, e.Got, e.Want)
}

// Document 翻译 doc 的主歌词并作为翻译轨道合并回去。已经有目标语言翻译的行不再请求
func Document(ctx context.Context, t Translator, doc *lyric.Document, source, target string) error {
	var (
		texts  []string
		starts []uint64
	)
	for i := range doc.Lines {
		l := &doc.Lines[i]
		main := l.MainTrack()
		if main == nil {
			continue
		}
		text := strings.TrimSpace(main.Content.Text())
		if text == "" || hasTranslation(main, target) {
			continue
		}
		texts = append(texts, text)
		starts = append(starts, l.StartMS)
	}
	if len(texts) == 0 {
		return nil
	}

	out, err := t.Translate(ctx, texts, source, target)
	if err != nil {
		return fmt.Errorf("translate %d lines: %w", len(texts), err)
	}
	if len(out) != len(texts) {
		return &LineCountError{Provider: t.Name(), Want: len(texts), Got: len(out)}
	}

	entries := make([]merger.Entry, 0, len(out))
	for i, text := range out {
		entries = append(entries, merger.Entry{
			StartMS: starts[i],
			Track:   lyric.NewTextTrack(text, target, 0, 0),
		})
	}
	// 条目来自主歌词本身，按精确时间戳合并，与源格式无关
	used := merger.MergeNearest(doc.Lines, entries, merger.Translation, 0)
	for i, u := range used {
		if !u {
			doc.Warnf("machine translation for line at %d ms not attached", entries[i].StartMS)
		}
	}
	return nil
}

func hasTranslation(at *lyric.AnnotatedTrack, lang string) bool {
	for _, t := range at.Translations {
		if t.IsEmpty() {
			continue
		}
		if lang == "" || strings.EqualFold(t.Language, lang) {
			return true
		}
	}
	return false
}
