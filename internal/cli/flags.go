package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"lyricconv/pkg/chinese"
	"lyricconv/pkg/lyric"
)

// Flags 所有命令行参数
type Flags struct {
	CfgFile string
	Verbose bool

	From   formatValue
	To     formatValue
	Output string
	OutDir string

	Translation         string
	TranslationFormat   formatValue
	TranslationLanguage string
	Romanization        string
	RomanizationFormat  formatValue
	ToleranceMS         uint64
	Metadata            []string

	TranslateTo    string
	SourceLanguage string
	Chinese        string
	ChineseTarget  string

	LRCStrategy   string
	StripCredits  bool
	StripPatterns []string
	TimingMode    string
	Apple         bool
	Indent        bool
	Split         bool
	NoCache       bool

	YAML   bool
	Player string
	Socket string
}

// NewFlags 格式类参数为空表示使用配置或自动识别
func NewFlags() *Flags {
	return &Flags{ChineseTarget: "translation"}
}

// formatValue 把 lyric.Format 暴露为 pflag.Value
type formatValue struct {
	format lyric.Format
}

var _ pflag.Value = (*formatValue)(nil)

func (f *formatValue) String() string {
	return string(f.format)
}

func (f *formatValue) Set(s string) error {
	format, err := lyric.ParseFormat(s)
	if err != nil {
		return err
	}
	f.format = format
	return nil
}

func (f *formatValue) Type() string {
	return "format"
}

func (f *formatValue) Format() lyric.Format {
	return f.format
}

// parseMetadata 解析 key=value 列表
func parseMetadata(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, want key=value", p)
		}
		out[k] = append(out[k], strings.TrimSpace(v))
	}
	return out, nil
}

func parseChineseTarget(s string) (chinese.Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "translation":
		return chinese.TargetTranslation, nil
	case "main":
		return chinese.TargetMain, nil
	case "all":
		return chinese.TargetAll, nil
	}
	return chinese.TargetTranslation, fmt.Errorf("unknown chinese target %q", s)
}

func addSourceFlags(fs *pflag.FlagSet, flags *Flags) {
	fs.VarP(&flags.From, "from", "f", "source format (detected when empty)")
	fs.StringVar(&flags.LRCStrategy, "lrc-strategy", "", "same-timestamp LRC lines: first-is-main or all-are-main")
	fs.StringArrayVar(&flags.Metadata, "meta", nil, "metadata used when the source lacks the key (key=value, repeatable)")
	fs.BoolVar(&flags.StripCredits, "strip-credits", false, "remove leading and trailing credit lines such as 作词: / 作曲:")
	fs.StringArrayVar(&flags.StripPatterns, "strip-pattern", nil, "remove lines matching this regular expression (repeatable)")
}

func addMergeFlags(fs *pflag.FlagSet, flags *Flags) {
	fs.StringVar(&flags.Translation, "translation", "", "translation lyric file to merge")
	fs.Var(&flags.TranslationFormat, "translation-format", "translation file format (detected when empty)")
	fs.StringVar(&flags.TranslationLanguage, "translation-lang", "", "language tag of the translation")
	fs.StringVar(&flags.Romanization, "romanization", "", "romanization lyric file to merge")
	fs.Var(&flags.RomanizationFormat, "romanization-format", "romanization file format (detected when empty)")
	fs.Uint64Var(&flags.ToleranceMS, "tolerance", 0, "timestamp match tolerance in ms")
}

func addOutputFlags(fs *pflag.FlagSet, flags *Flags) {
	fs.VarP(&flags.To, "to", "t", "target format")
	fs.StringVar(&flags.TimingMode, "timing", "", "TTML timing: auto, word or line")
	fs.BoolVar(&flags.Apple, "apple", false, "Apple Music style TTML")
	fs.BoolVar(&flags.Indent, "indent", true, "indent TTML output")
	fs.BoolVar(&flags.Split, "split", false, "split line-timed syllables into words")
	fs.StringVar(&flags.TranslateTo, "translate-to", "", "machine-translate lines missing this language")
	fs.StringVar(&flags.SourceLanguage, "source-lang", "", "source language for machine translation (auto when empty)")
	fs.StringVar(&flags.Chinese, "chinese", "", "OpenCC conversion: t2s, s2t, s2tw, tw2s, s2hk, hk2s")
	fs.StringVar(&flags.ChineseTarget, "chinese-target", flags.ChineseTarget, "tracks converted: translation, main or all")
	fs.BoolVar(&flags.NoCache, "no-cache", false, "skip the conversion cache")
}
