package parser

import (
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

// DefaultCreditKeywords 常见的制作人员署名前缀
var DefaultCreditKeywords = []string{
	"作词", "作曲", "编曲", "词", "曲", "演唱", "原唱", "翻唱", "制作人", "监制", "出品",
	"混音", "母带", "录音", "和声", "和音", "吉他", "贝斯", "鼓", "弦乐", "企划", "统筹",
	"作詞", "編曲", "製作人",
	"Lyrics", "Lyricist", "Composer", "Composed by", "Arranger", "Arranged by",
	"Producer", "Produced by", "Mixing", "Mastering", "Vocals",
}

const (
	DefaultHeaderScanLines = 20
	DefaultFooterScanLines = 10
)

// StripOptions 署名行清理选项
type StripOptions struct {
	Enabled bool
	// Keywords 行文本以关键词加冒号开头时视为署名
	Keywords             []string
	KeywordCaseSensitive bool
	// HeaderLines 从开头检查的行数，最后一个命中行及其之前的行全部移除
	HeaderLines int
	// FooterLines 从末尾向前检查的行数，遇到非署名行即停止
	FooterLines int
	// Patterns 任意位置匹配即移除的正则
	Patterns             []string
	PatternCaseSensitive bool
}

// DefaultStripOptions 关闭状态的默认选项
func DefaultStripOptions() StripOptions {
	return StripOptions{
		Keywords:    DefaultCreditKeywords,
		HeaderLines: DefaultHeaderScanLines,
		FooterLines: DefaultFooterScanLines,
	}
}

// StripCredits 移除开头与结尾的署名行，以及匹配 Patterns 的行，返回移除的行数。
// 无法编译的正则记为警告并忽略
func StripCredits(doc *lyric.Document, opts StripOptions) int {
	if !opts.Enabled || len(doc.Lines) == 0 {
		return 0
	}
	before := len(doc.Lines)

	if keywords := prepareKeywords(opts.Keywords, opts.KeywordCaseSensitive); len(keywords) > 0 {
		isCredit := func(l *lyric.Line) bool {
			return isCreditLine(l.Text(), keywords, opts.KeywordCaseSensitive)
		}

		first := 0
		for i := 0; i < len(doc.Lines) && i < opts.HeaderLines; i++ {
			if isCredit(&doc.Lines[i]) {
				first = i + 1
			}
		}

		last := len(doc.Lines)
		for i := len(doc.Lines) - 1; i >= first && i >= len(doc.Lines)-opts.FooterLines; i-- {
			if !isCredit(&doc.Lines[i]) {
				break
			}
			last = i
		}
		if first >= last {
			doc.Lines = doc.Lines[:0]
		} else {
			doc.Lines = doc.Lines[first:last]
		}
	}

	if res := compilePatterns(doc, opts.Patterns, opts.PatternCaseSensitive); len(res) > 0 {
		kept := doc.Lines[:0]
		for _, l := range doc.Lines {
			if !matchesAny(res, strings.TrimSpace(l.Text())) {
				kept = append(kept, l)
			}
		}
		doc.Lines = kept
	}
	return before - len(doc.Lines)
}

func prepareKeywords(keywords []string, caseSensitive bool) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if !caseSensitive {
			k = strings.ToLower(k)
		}
		out = append(out, k)
	}
	return out
}

// isCreditLine 去掉行首一个 [..] 或 (..) 标记后，以关键词加半角或全角冒号开头
func isCreditLine(text string, keywords []string, caseSensitive bool) bool {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "["):
		if i := strings.Index(text, "]"); i >= 0 {
			text = strings.TrimSpace(text[i+1:])
		}
	case strings.HasPrefix(text, "("):
		if i := strings.Index(text, ")"); i >= 0 {
			text = strings.TrimSpace(text[i+1:])
		}
	}
	if !caseSensitive {
		text = strings.ToLower(text)
	}
	for _, k := range keywords {
		rest, ok := strings.CutPrefix(text, k)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "：") {
			return true
		}
	}
	return false
}

func compilePatterns(doc *lyric.Document, patterns []string, caseSensitive bool) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		expr := p
		if !caseSensitive {
			expr = "(?i)" + p
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			doc.Warnf("strip pattern %q ignored: %v", p, err)
			continue
		}
		out = append(out, re)
	}
	return out
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
