// Package parser 把各种歌词文本解析为 lyric.Document
//
// 所有解析函数都不会因为外部输入而 panic：无法识别的行会被跳过并记录到
// Document.Warnings，只有结构性错误（例如 LYS 缺少 [property] 前缀、TTML
// 不是合法 XML）才会返回 *StructuralError。
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"lyricconv/pkg/lyric"
)

// ErrUnsupportedFormat 没有对应的解析器
var ErrUnsupportedFormat = errors.New("unsupported lyric format")

// StructuralError 缺少必需标记等结构性错误
type StructuralError struct {
	Format lyric.Format
	Line   int
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ", e.Format)
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Reason)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// ConflictError 同一 ASS 行出现多个互斥的角色标签
type ConflictError struct {
	Line int
	Tags []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("line %d: conflicting actor tags %s", e.Line, strings.Join(e.Tags, ", "))
}

// LRCStrategy 相同时间戳多行的处理方式
type LRCStrategy int

const (
	// LRCFirstIsMain 第一条为主歌词，其余为翻译
	LRCFirstIsMain LRCStrategy = iota
	// LRCAllAreMain 每条都是独立的主歌词行
	LRCAllAreMain
)

type options struct {
	lrcStrategy LRCStrategy
}

// Option 解析选项
type Option func(*options)

// WithLRCStrategy 设置 LRC 相同时间戳的处理方式
func WithLRCStrategy(s LRCStrategy) Option {
	return func(o *options) {
		o.lrcStrategy = s
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Parse 按格式分发到具体解析器
func Parse(format lyric.Format, text string, opts ...Option) (*lyric.Document, error) {
	switch format {
	case lyric.FormatLRC, lyric.FormatELRC:
		return ParseLRC(text, opts...)
	case lyric.FormatQRC:
		return ParseQRC(text)
	case lyric.FormatYRC:
		return ParseYRC(text)
	case lyric.FormatKRC:
		return ParseKRC(text)
	case lyric.FormatASS:
		return ParseASS(text)
	case lyric.FormatLYS:
		return ParseLYS(text)
	case lyric.FormatSPL:
		return ParseSPL(text)
	case lyric.FormatTTML:
		return ParseTTML(text)
	case lyric.FormatLYL:
		return ParseLYL(text)
	case lyric.FormatLQE:
		return ParseLQE(text, opts...)
	case lyric.FormatJSON:
		return ParseJSON(text)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

var tagLineRe = regexp.MustCompile(`^\[([A-Za-z#][\w#-]*):(.*)\]$`)

// splitLines 统一换行符并去掉 BOM
func splitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// parseTagLine 解析 [key:value] 头部标签
func parseTagLine(line string) (key, value string, ok bool) {
	m := tagLineRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

func atou(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// fractionToMS 把小数部分转换为毫秒：1 位 x100，2 位 x10，3 位原值，更多位截取前 3 位
func fractionToMS(frac string) uint64 {
	switch {
	case frac == "":
		return 0
	case len(frac) == 1:
		return atou(frac) * 100
	case len(frac) == 2:
		return atou(frac) * 10
	default:
		return atou(frac[:3])
	}
}

type rawSyllable struct {
	text       string
	start, end uint64
}

// buildSyllables 规范化音节：纯空白的 token 折叠为前一个音节的 EndsWithSpace，
// 前导空白标记前一个音节，尾随空白标记当前音节，文本本身去掉空白
func buildSyllables(raws []rawSyllable) []lyric.Syllable {
	out := make([]lyric.Syllable, 0, len(raws))
	for _, r := range raws {
		trimmed := strings.TrimSpace(r.text)
		if trimmed == "" {
			if r.text != "" && len(out) > 0 {
				out[len(out)-1].EndsWithSpace = true
			}
			continue
		}
		if startsWithSpace(r.text) && len(out) > 0 {
			out[len(out)-1].EndsWithSpace = true
		}
		end := r.end
		if end < r.start {
			end = r.start
		}
		out = append(out, lyric.Syllable{
			Text:          trimmed,
			StartMS:       r.start,
			EndMS:         end,
			EndsWithSpace: endsWithSpace(r.text),
		})
	}
	if len(out) > 0 {
		out[len(out)-1].EndsWithSpace = false
	}
	return out
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return s != "" && unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return s != "" && unicode.IsSpace(r)
}

// newLine 由主轨道音节构造一行，起止时间取音节范围
func newLine(syllables []lyric.Syllable) lyric.Line {
	line := lyric.Line{}
	line.EnsureTrack(lyric.ContentMain).Content = lyric.NewTrack(syllables, "")
	line.RecalculateTiming()
	return line
}
