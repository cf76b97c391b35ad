// Package chinese 简繁转换，基于 OpenCC 词典
package chinese

import (
	"fmt"
	"strings"
	"sync"

	"github.com/liuzl/gocc"

	"lyricconv/pkg/lyric"
)

// Conversion OpenCC 配置名
type Conversion string

const (
	None Conversion = ""
	// T2S 繁体转简体
	T2S Conversion = "t2s"
	// S2T 简体转繁体
	S2T  Conversion = "s2t"
	S2TW Conversion = "s2tw"
	TW2S Conversion = "tw2s"
	S2HK Conversion = "s2hk"
	HK2S Conversion = "hk2s"
)

// Target 转换作用的轨道
type Target int

const (
	TargetTranslation Target = iota
	TargetMain
	TargetAll
)

// ParseConversion 接受配置名或常见别名
func ParseConversion(s string) (Conversion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return None, nil
	case "t2s", "simplified", "zh-hans":
		return T2S, nil
	case "s2t", "traditional", "zh-hant":
		return S2T, nil
	case "s2tw", "zh-tw":
		return S2TW, nil
	case "tw2s":
		return TW2S, nil
	case "s2hk", "zh-hk":
		return S2HK, nil
	case "hk2s":
		return HK2S, nil
	}
	return None, fmt.Errorf("unknown chinese conversion %q", s)
}

var (
	convertersMu sync.Mutex
	converters   = map[Conversion]*gocc.OpenCC{}
)

// converter 词典加载较慢，每种转换只加载一次
func converter(c Conversion) (*gocc.OpenCC, error) {
	convertersMu.Lock()
	defer convertersMu.Unlock()
	if cc, ok := converters[c]; ok {
		return cc, nil
	}
	cc, err := gocc.New(string(c))
	if err != nil {
		return nil, fmt.Errorf("load opencc %s: %w", c, err)
	}
	converters[c] = cc
	return cc, nil
}

// ConvertText 转换单个字符串
func ConvertText(c Conversion, text string) (string, error) {
	if c == None || text == "" {
		return text, nil
	}
	cc, err := converter(c)
	if err != nil {
		return "", err
	}
	return cc.Convert(text)
}

// ConvertDocument 就地转换文档中指定轨道的文本。OpenCC 可能改变字数，
// 因此按音节逐个转换以保留时间
func ConvertDocument(doc *lyric.Document, c Conversion, target Target) error {
	if c == None {
		return nil
	}
	cc, err := converter(c)
	if err != nil {
		return err
	}
	convert := func(t *lyric.Track) error {
		for wi := range t.Words {
			syls := t.Words[wi].Syllables
			for si := range syls {
				out, err := cc.Convert(syls[si].Text)
				if err != nil {
					return fmt.Errorf("convert %q: %w", syls[si].Text, err)
				}
				syls[si].Text = out
			}
		}
		return nil
	}

	for i := range doc.Lines {
		for ti := range doc.Lines[i].Tracks {
			at := &doc.Lines[i].Tracks[ti]
			if target == TargetMain || target == TargetAll {
				if err := convert(&at.Content); err != nil {
					return err
				}
			}
			if target == TargetTranslation || target == TargetAll {
				for k := range at.Translations {
					if err := convert(&at.Translations[k]); err != nil {
						return err
					}
				}
			}
		}
	}
	if target == TargetTranslation || target == TargetAll {
		for i := range doc.StandaloneTranslations {
			out, err := cc.Convert(doc.StandaloneTranslations[i].Text)
			if err != nil {
				return err
			}
			doc.StandaloneTranslations[i].Text = out
		}
	}
	return nil
}
