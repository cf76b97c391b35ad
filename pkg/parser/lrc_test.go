package parser

import (
	"strings"
	"testing"

	"lyricconv/pkg/lyric"
)

const sampleLRC = `[ti:Song]
[ar:Singer]
[00:01.00]Hello
[00:01.00]你好
[00:05.50][00:20.000]Chorus
[00:61.00]bad
[00:10.00]
[00:12.345]Last
`

func TestParseLRC(t *testing.T) {
	doc, err := ParseLRC(sampleLRC)
	if err != nil {
		t.Fatalf("ParseLRC() error = %v", err)
	}

	want := []struct {
		start, end  uint64
		text, trans string
	}{
		{1000, 5500, "Hello", "你好"},
		{5500, 10000, "Chorus", ""},
		{12345, 20000, "Last", ""},
		{20000, 30000, "Chorus", ""},
	}
	if len(doc.Lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(doc.Lines), len(want))
	}
	for i, w := range want {
		l := doc.Lines[i]
		if l.StartMS != w.start || l.EndMS != w.end {
			t.Errorf("line %d: got %d..%d, want %d..%d", i, l.StartMS, l.EndMS, w.start, w.end)
		}
		if l.Text() != w.text {
			t.Errorf("line %d: text %q, want %q", i, l.Text(), w.text)
		}
		if l.Translation() != w.trans {
			t.Errorf("line %d: translation %q, want %q", i, l.Translation(), w.trans)
		}
	}

	if !doc.IsLineTimed {
		t.Error("plain LRC should be line timed")
	}
	if doc.FirstMetadata("ti") != "Song" || doc.FirstMetadata("ar") != "Singer" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
	if len(doc.Warnings) != 1 || !strings.Contains(doc.Warnings[0], "out of range") {
		t.Errorf("warnings = %v", doc.Warnings)
	}
}

func TestParseLRCEndInvariant(t *testing.T) {
	doc, err := ParseLRC("[00:01.00]a\n[00:00.50]b\n[01:00.00]c")
	if err != nil {
		t.Fatal(err)
	}
	for i, l := range doc.Lines {
		if l.EndMS < l.StartMS {
			t.Errorf("line %d: end %d < start %d", i, l.EndMS, l.StartMS)
		}
	}
	last := doc.Lines[len(doc.Lines)-1]
	if last.EndMS-last.StartMS != LRCLastLinePadMS {
		t.Errorf("last line duration = %d, want %d", last.EndMS-last.StartMS, LRCLastLinePadMS)
	}
}

func TestParseLRCAllAreMain(t *testing.T) {
	doc, err := ParseLRC("[00:01.00]one\n[00:01.00]two", WithLRCStrategy(LRCAllAreMain))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(doc.Lines))
	}
	if doc.Lines[0].Translation() != "" {
		t.Error("lines should not carry translations")
	}
}

func TestParseELRC(t *testing.T) {
	doc, err := ParseLRC("[00:01.00]<00:01.00>Hello <00:01.50>world<00:02.00>\n[00:03.00]next")
	if err != nil {
		t.Fatal(err)
	}
	if doc.IsLineTimed || doc.SourceFormat != lyric.FormatELRC {
		t.Errorf("IsLineTimed = %v, SourceFormat = %s", doc.IsLineTimed, doc.SourceFormat)
	}
	syls := doc.Lines[0].MainTrack().Content.Syllables()
	want := []lyric.Syllable{
		{Text: "Hello", StartMS: 1000, EndMS: 1500, EndsWithSpace: true},
		{Text: "world", StartMS: 1500, EndMS: 2000},
	}
	if len(syls) != len(want) {
		t.Fatalf("got %+v", syls)
	}
	for i := range want {
		if syls[i] != want[i] {
			t.Errorf("syllable %d = %+v, want %+v", i, syls[i], want[i])
		}
	}
}

func TestBuildSyllablesWhitespace(t *testing.T) {
	got := buildSyllables([]rawSyllable{
		{text: " ", start: 0, end: 0},
		{text: "a ", start: 0, end: 100},
		{text: " ", start: 100, end: 100},
		{text: " b", start: 100, end: 200},
		{text: "c ", start: 200, end: 300},
	})
	if len(got) != 3 {
		t.Fatalf("got %+v", got)
	}
	if !got[0].EndsWithSpace || got[1].EndsWithSpace || got[2].EndsWithSpace {
		t.Errorf("unexpected space flags: %+v", got)
	}
	for _, s := range got {
		if strings.TrimSpace(s.Text) != s.Text {
			t.Errorf("syllable text %q carries whitespace", s.Text)
		}
	}
}
