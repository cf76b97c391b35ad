package parser

import (
	"encoding/json"
	"strings"

	"lyricconv/pkg/lyric"
)

// ParseJSON 读取本程序导出的 JSON 文档
func ParseJSON(text string) (*lyric.Document, error) {
	var doc lyric.Document
	if err := json.NewDecoder(strings.NewReader(text)).Decode(&doc); err != nil {
		return nil, &StructuralError{Format: lyric.FormatJSON, Reason: "invalid JSON document", Err: err}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string][]string)
	}
	for i := range doc.Lines {
		if doc.Lines[i].EndMS < doc.Lines[i].StartMS {
			doc.Warnf("line %d: end before start, clamped", i+1)
			doc.Lines[i].EndMS = doc.Lines[i].StartMS
		}
	}
	doc.SourceFormat = lyric.FormatJSON
	doc.Sort()
	return &doc, nil
}
