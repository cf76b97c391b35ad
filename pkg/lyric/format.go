package lyric

import (
	"fmt"
	"strings"
)

// Format 歌词格式
type Format string

const (
	FormatASS  Format = "ass"
	FormatTTML Format = "ttml"
	FormatJSON Format = "json"
	FormatLYS  Format = "lys"
	FormatLRC  Format = "lrc"
	// FormatELRC 增强型 LRC（逐字 <mm:ss.xx> 标签）
	FormatELRC Format = "elrc"
	FormatQRC  Format = "qrc"
	FormatYRC  Format = "yrc"
	// FormatLYL Lyricify Lines
	FormatLYL Format = "lyl"
	FormatSPL Format = "spl"
	// FormatLQE Lyricify Quick Export
	FormatLQE Format = "lqe"
	FormatKRC Format = "krc"
)

// AllFormats 返回所有支持的格式
func AllFormats() []Format {
	return []Format{
		FormatASS, FormatTTML, FormatJSON, FormatLYS, FormatLRC, FormatELRC,
		FormatQRC, FormatYRC, FormatLYL, FormatSPL, FormatLQE, FormatKRC,
	}
}

// ParseFormat 解析格式名，忽略大小写、空格和点号
func ParseFormat(s string) (Format, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", ".", "").Replace(s))
	switch norm {
	case "lyricifylines":
		return FormatLYL, nil
	case "lyricifyquickexport":
		return FormatLQE, nil
	case "lyricifysyllable":
		return FormatLYS, nil
	case "enhancedlrc":
		return FormatELRC, nil
	case "xml":
		return FormatTTML, nil
	}
	for _, f := range AllFormats() {
		if string(f) == norm {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown lyric format %q", s)
}

// Extension 返回该格式的文件扩展名（含点号）
func (f Format) Extension() string {
	switch f {
	case FormatELRC:
		return ".lrc"
	case FormatLYL:
		return ".lyl"
	default:
		return "." + string(f)
	}
}

// IsWordTimed 该格式是否携带逐字时间
func (f Format) IsWordTimed() bool {
	switch f {
	case FormatLRC, FormatLYL:
		return false
	}
	return true
}

func (f Format) String() string {
	return string(f)
}
