package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/merger"
	"lyricconv/pkg/metadata"
	"lyricconv/pkg/parser"
)

// DefaultLQEVersion 文档没有 lqeVersion 元数据时写入的版本号
const DefaultLQEVersion = "1.0"

// generateLQE 主歌词逐字时用 Lyricify Syllable，逐行时用 LRC；翻译和发音区段均为 LRC
func generateLQE(doc *lyric.Document, opts Options) string {
	var b strings.Builder
	b.WriteString(parser.LQEHeader + "\n")

	version := DefaultLQEVersion
	if v := doc.FirstMetadata("lqeVersion"); v != "" {
		version = v
	}
	fmt.Fprintf(&b, "[version:%s]\n", version)

	s := store(doc)
	for _, t := range []struct {
		tag string
		key metadata.Key
	}{
		{"ti", metadata.Title},
		{"ar", metadata.Artist},
		{"al", metadata.Album},
		{"by", metadata.TtmlAuthorGithubLogin},
		{"offset", metadata.Offset},
	} {
		if vs := s.GetAll(t.key); len(vs) > 0 {
			fmt.Fprintf(&b, "[%s:%s]\n", t.tag, strings.Join(vs, "/"))
		}
	}

	langAttr := func(lang string) string {
		if lang == "" {
			return ""
		}
		return ", language@" + lang
	}

	if doc.IsLineTimed {
		fmt.Fprintf(&b, "\n[lyrics: format@LRC%s]\n", langAttr(mainLanguage(doc, opts)))
		b.WriteString(lrcBody(doc))
	} else {
		fmt.Fprintf(&b, "\n[lyrics: format@Lyricify Syllable%s]\n", langAttr(mainLanguage(doc, opts)))
		b.WriteString(generateLYS(doc, false))
	}

	if tr := auxiliary(doc, merger.Translation, opts.TranslationLanguage, false); tr != "" {
		fmt.Fprintf(&b, "\n[translation: format@LRC%s]\n", langAttr(auxLanguage(doc, merger.Translation, opts.TranslationLanguage)))
		b.WriteString(tr)
	}
	if roma := auxiliary(doc, merger.Romanization, opts.RomanizationLanguage, false); roma != "" {
		fmt.Fprintf(&b, "\n[pronunciation: format@LRC%s]\n", langAttr(auxLanguage(doc, merger.Romanization, opts.RomanizationLanguage)))
		b.WriteString(roma)
	}
	return b.String()
}

// lrcBody 只有时间戳行的 LRC，不含头部和翻译
func lrcBody(doc *lyric.Document) string {
	var b strings.Builder
	for i := range doc.Lines {
		l := &doc.Lines[i]
		if text := strings.TrimSpace(l.Text()); text != "" {
			b.WriteString(formatLRCTime(l.StartMS) + text + "\n")
		}
	}
	return b.String()
}

// auxLanguage 选项优先，其次取第一条辅助轨道的语言
func auxLanguage(doc *lyric.Document, kind merger.Kind, preferred string) string {
	if preferred != "" {
		return preferred
	}
	for i := range doc.Lines {
		main := doc.Lines[i].MainTrack()
		if main == nil {
			continue
		}
		tracks := main.Translations
		if kind == merger.Romanization {
			tracks = main.Romanizations
		}
		for _, t := range tracks {
			if t.Language != "" {
				return t.Language
			}
		}
	}
	return ""
}

func generateJSON(doc *lyric.Document, opts Options) (string, error) {
	var (
		data []byte
		err  error
	)
	if opts.Indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(data) + "\n", nil
}
