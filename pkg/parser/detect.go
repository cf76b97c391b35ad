package parser

import (
	"regexp"
	"strings"

	"lyricconv/pkg/lyric"
)

var (
	detectBracketPairRe = regexp.MustCompile(`(?m)^\[\d+,\d+\]`)
	detectKRCRe         = regexp.MustCompile(`<\d+,\d+,\d+>`)
	detectYRCRe         = regexp.MustCompile(`\(\d+,\d+,\d+\)`)
	detectQRCRe         = regexp.MustCompile(`\(\d+,\d+\)`)
	detectLYSRe         = regexp.MustCompile(`(?m)^\[\d\].*\(\d+,\d+\)`)
	detectSPLRe         = regexp.MustCompile(`(?m)^\[\d{1,3}:\d{1,2}\.\d{1,6}\].*\S.*[\[<]\d{1,3}:\d{1,2}\.\d{1,6}[\]>]`)
	detectELRCRe        = regexp.MustCompile(`<\d{2,}:\d{2}[.:]\d{2,3}>`)
)

// Detect 猜测未声明格式的文本，无法判断时返回 LRC
func Detect(text string) lyric.Format {
	t := strings.TrimSpace(strings.TrimPrefix(text, "\ufeff"))
	switch {
	case strings.HasPrefix(t, "<") && strings.Contains(t, "<tt"):
		return lyric.FormatTTML
	case strings.Contains(t, LQEHeader):
		return lyric.FormatLQE
	case strings.HasPrefix(t, "{") && !detectBracketPairRe.MatchString(t):
		// 网易云 YRC 以 {"t":..} 署名行开头
		return lyric.FormatJSON
	case strings.Contains(t, "[Script Info]") || strings.Contains(t, "\nDialogue:") || strings.HasPrefix(t, "Dialogue:"):
		return lyric.FormatASS
	case strings.Contains(t, "LyricContent="):
		return lyric.FormatQRC
	case strings.Contains(strings.ToLower(t), "[type:lyricifylines]"):
		return lyric.FormatLYL
	case detectBracketPairRe.MatchString(t):
		switch {
		case detectKRCRe.MatchString(t):
			return lyric.FormatKRC
		case detectYRCRe.MatchString(t):
			return lyric.FormatYRC
		case detectQRCRe.MatchString(t):
			return lyric.FormatQRC
		}
		return lyric.FormatLYL
	case detectLYSRe.MatchString(t):
		return lyric.FormatLYS
	case detectELRCRe.MatchString(t):
		return lyric.FormatELRC
	case detectSPLRe.MatchString(t):
		return lyric.FormatSPL
	}
	return lyric.FormatLRC
}
