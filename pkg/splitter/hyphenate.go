package splitter

import (
	"bufio"
	_ "embed"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/speedata/hyphenation"
)

//go:embed hyph-en-us.pat.txt
var enUSPatterns string

//go:embed hyphenation_en.txt
var hyphenationData string

const (
	// 断点左右至少保留的字符数，与 TeX 美式英语一致
	leftMin  = 2
	rightMin = 3
)

// enUS 美式英语 Liang 断字模式
var enUS = mustLoadPatterns(enUSPatterns)

// hyphenExceptions 小写单词 -> 各音节的字素数，优先于断字模式
var hyphenExceptions = loadHyphenExceptions(hyphenationData)

func mustLoadPatterns(data string) *hyphenation.Lang {
	l, err := hyphenation.New(strings.NewReader(data))
	if err != nil {
		panic("splitter: load hyphenation patterns: " + err.Error())
	}
	return l
}

func loadHyphenExceptions(data string) map[string][]int {
	dict := make(map[string][]int)
	sc := bufio.NewScanner(strings.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, "-")
		lens := make([]int, len(parts))
		for i, p := range parts {
			lens[i] = uniseg.GraphemeClusterCount(p)
		}
		dict[strings.ToLower(strings.Join(parts, ""))] = lens
	}
	return dict
}

// Hyphenate 把一个拉丁字母单词切分为音节，保留原大小写。先查例外词表，
// 查不到时用 Knuth-Liang 断字模式；太短或无法切分时原样返回
func Hyphenate(word string) []string {
	if lens, ok := hyphenExceptions[strings.ToLower(word)]; ok {
		return splitGraphemes(word, lens)
	}

	runes := []rune(word)
	n := len(runes)
	if n < leftMin+rightMin {
		return []string{word}
	}

	var out []string
	prev := 0
	for _, p := range enUS.Hyphenate(word) {
		if p < leftMin || n-p < rightMin {
			continue
		}
		out = append(out, string(runes[prev:p]))
		prev = p
	}
	return append(out, string(runes[prev:]))
}

func splitGraphemes(word string, lens []int) []string {
	gs := graphemes(word)
	out := make([]string, 0, len(lens))
	pos := 0
	for _, n := range lens {
		if pos+n > len(gs) {
			break
		}
		out = append(out, strings.Join(gs[pos:pos+n], ""))
		pos += n
	}
	if pos < len(gs) {
		out = append(out, strings.Join(gs[pos:], ""))
	}
	return out
}

func graphemes(s string) []string {
	var out []string
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}
