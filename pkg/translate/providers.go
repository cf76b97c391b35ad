package translate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"lyricconv/pkg/ai"
	"lyricconv/tencent"
)

var numberedLineRe = regexp.MustCompile(`^\s*(\d+)\s*[.、:：)]\s*(.*)$`)

// AITranslator 通过大模型逐行翻译
type AITranslator struct {
	client ai.Client
}

func NewAITranslator(client ai.Client) *AITranslator {
	return &AITranslator{client: client}
}

func (a *AITranslator) Name() string {
	return a.client.Name()
}

func (a *AITranslator) Translate(ctx context.Context, lines []string, source, target string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	reply, err := a.client.HandleText(ctx, translationPrompt(lines, source, target))
	if err != nil {
		return nil, err
	}
	out, ok := parseNumbered(reply, len(lines))
	if !ok {
		return nil, &LineCountError{Provider: a.Name(), Want: len(lines), Got: len(out)}
	}
	return out, nil
}

func translationPrompt(lines []string, source, target string) string {
	var b strings.Builder
	from := "the original language"
	if source != "" && source != "auto" {
		from = source
	}
	fmt.Fprintf(&b, "Translate the following song lyrics from %s into %s. ", from, target)
	b.WriteString("Keep the numbering, output exactly one translated line per numbered input line, ")
	b.WriteString("no explanations and no markdown.\n\n")
	for i, l := range lines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, l)
	}
	return b.String()
}

// parseNumbered 按编号取回译文，缺少任意一行时 ok 为 false
func parseNumbered(reply string, n int) ([]string, bool) {
	out := make([]string, n)
	found := 0
	for _, line := range strings.Split(reply, "\n") {
		m := numberedLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n || out[idx-1] != "" {
			continue
		}
		text := strings.TrimSpace(m[2])
		if text == "" {
			continue
		}
		out[idx-1] = text
		found++
	}
	if found != n {
		return out[:found], false
	}
	return out, true
}

// TencentBatchSize 单次请求的最大行数
const TencentBatchSize = 50

// TencentTranslator 腾讯云机器翻译
type TencentTranslator struct {
	client tencent.Client
}

func NewTencentTranslator(client tencent.Client) *TencentTranslator {
	return &TencentTranslator{client: client}
}

func (t *TencentTranslator) Name() string {
	return "tencent"
}

func (t *TencentTranslator) Translate(ctx context.Context, lines []string, source, target string) ([]string, error) {
	src, dst := tencentLanguage(source), tencentLanguage(target)
	if src == "" {
		src = "auto"
	}
	out := make([]string, 0, len(lines))
	for start := 0; start < len(lines); start += TencentBatchSize {
		end := min(start+TencentBatchSize, len(lines))
		part, err := t.client.TranslateBatch(ctx, lines[start:end], src, dst)
		if err != nil {
			return nil, err
		}
		if len(part) != end-start {
			return nil, &LineCountError{Provider: t.Name(), Want: end - start, Got: len(part)}
		}
		out = append(out, part...)
	}
	return out, nil
}

// tencentLanguage BCP 47 标签转为腾讯云语言代码，繁体中文保留地区
func tencentLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	switch strings.ToLower(lang) {
	case "":
		return ""
	case "zh-tw", "zh-hk", "zh-hant":
		return "zh-TW"
	}
	base, _, _ := strings.Cut(lang, "-")
	return strings.ToLower(base)
}
