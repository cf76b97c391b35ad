// Package splitter 把一个音节自动拆分为更细的词元并按权重重新分配时间
package splitter

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"lyricconv/pkg/lyric"
)

// DefaultPunctuationWeight 标点符号的默认权重
const DefaultPunctuationWeight = 0.3

// Class 字素簇的类别
type Class int

const (
	ClassLatin Class = iota
	ClassNumeric
	ClassCJK
	ClassWhitespace
	ClassOther
)

func (c Class) String() string {
	switch c {
	case ClassLatin:
		return "latin"
	case ClassNumeric:
		return "numeric"
	case ClassCJK:
		return "cjk"
	case ClassWhitespace:
		return "whitespace"
	}
	return "other"
}

// Token 分词结果
type Token struct {
	Text      string
	Class     Class
	Graphemes int
}

// Options 拆分选项
type Options struct {
	PunctuationWeight float64
	// DisableHyphenation 拉丁单词不再按音节切分
	DisableHyphenation bool
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{PunctuationWeight: DefaultPunctuationWeight}
}

func classify(cluster string) Class {
	r, _ := utf8.DecodeRuneInString(cluster)
	switch {
	case unicode.IsSpace(r):
		return ClassWhitespace
	case unicode.Is(unicode.Latin, r):
		return ClassLatin
	case unicode.IsDigit(r):
		return ClassNumeric
	case unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
		return ClassCJK
	}
	return ClassOther
}

func coalesces(c Class) bool {
	return c == ClassLatin || c == ClassNumeric || c == ClassWhitespace
}

// Tokenize 按字素簇分类：连续的拉丁字母、数字、空白各自合并，CJK 和标点逐个成词
func Tokenize(text string) []Token {
	var tokens []Token
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		cluster := gr.Str()
		class := classify(cluster)
		if n := len(tokens); n > 0 && tokens[n-1].Class == class && coalesces(class) {
			tokens[n-1].Text += cluster
			tokens[n-1].Graphemes++
			continue
		}
		tokens = append(tokens, Token{Text: cluster, Class: class, Graphemes: 1})
	}
	return tokens
}

// tokensFor 分词后再把多字素的拉丁单词按音节切开
func tokensFor(text string, opts Options) []Token {
	tokens := Tokenize(text)
	if opts.DisableHyphenation {
		return tokens
	}
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Class != ClassLatin || t.Graphemes < 2 {
			out = append(out, t)
			continue
		}
		for _, part := range Hyphenate(t.Text) {
			out = append(out, Token{Text: part, Class: ClassLatin, Graphemes: uniseg.GraphemeClusterCount(part)})
		}
	}
	return out
}

func (t Token) weight(opts Options) float64 {
	switch t.Class {
	case ClassWhitespace:
		return 0
	case ClassOther:
		return opts.PunctuationWeight
	}
	return float64(t.Graphemes)
}

// Split 拆分单个音节。可见文本不超过一个字素或总权重为 0 时原样返回；
// 最后一个可见词元总是以音节真实的 EndMS 结束
func Split(s lyric.Syllable, opts Options) []lyric.Syllable {
	if uniseg.GraphemeClusterCount(strings.TrimSpace(s.Text)) <= 1 {
		return []lyric.Syllable{s}
	}

	tokens := tokensFor(s.Text, opts)
	total := 0.0
	lastVisible := -1
	for i, t := range tokens {
		total += t.weight(opts)
		if t.Class != ClassWhitespace {
			lastVisible = i
		}
	}
	if total <= 0 || lastVisible < 0 {
		return []lyric.Syllable{s}
	}

	perWeight := float64(s.Duration()) / total
	out := make([]lyric.Syllable, 0, len(tokens))
	cur := s.StartMS
	acc := 0.0
	for i, t := range tokens {
		if t.Class == ClassWhitespace {
			if len(out) > 0 {
				out[len(out)-1].EndsWithSpace = true
			}
			continue
		}
		acc += t.weight(opts)
		end := s.StartMS + uint64(math.Round(acc*perWeight))
		if i == lastVisible || end > s.EndMS {
			end = s.EndMS
		}
		out = append(out, lyric.Syllable{Text: t.Text, StartMS: cur, EndMS: end})
		cur = end
		if i == lastVisible {
			break
		}
	}
	out[len(out)-1].EndsWithSpace = s.EndsWithSpace
	return out
}

// SplitTrack 拆分轨道中的每个音节，词的划分保持不变
func SplitTrack(t *lyric.Track, opts Options) {
	for wi := range t.Words {
		syls := t.Words[wi].Syllables
		out := make([]lyric.Syllable, 0, len(syls))
		for _, s := range syls {
			out = append(out, Split(s, opts)...)
		}
		t.Words[wi].Syllables = out
	}
}

// SplitDocument 对逐字计时文档中所有计时轨道（含翻译、音译）就地拆分
func SplitDocument(doc *lyric.Document, opts Options) *lyric.Document {
	if doc.IsLineTimed {
		return doc
	}
	for li := range doc.Lines {
		for ti := range doc.Lines[li].Tracks {
			at := &doc.Lines[li].Tracks[ti]
			if at.Content.IsTimed() {
				SplitTrack(&at.Content, opts)
			}
			for i := range at.Translations {
				if at.Translations[i].IsTimed() {
					SplitTrack(&at.Translations[i], opts)
				}
			}
			for i := range at.Romanizations {
				if at.Romanizations[i].IsTimed() {
					SplitTrack(&at.Romanizations[i], opts)
				}
			}
		}
	}
	return doc
}
