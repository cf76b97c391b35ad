package parser

import (
	"strings"
	"testing"
)

const sampleSPL = `[ti:SPL]
[00:01.00]Hello[00:02.00]
[00:03.00]
[00:04.00][00:10.00]Chorus
翻译一
[00:04.00][00:10.00]翻译二
[00:06.00]Last
`

func TestParseSPL(t *testing.T) {
	doc, err := ParseSPL(sampleSPL)
	if err != nil {
		t.Fatalf("ParseSPL() error = %v", err)
	}

	want := []struct {
		start, end  uint64
		text, trans string
	}{
		{1000, 3000, "Hello", ""},
		{4000, 6000, "Chorus", "翻译一/翻译二"},
		{6000, 11000, "Last", ""},
		{10000, 12000, "Chorus", "翻译一/翻译二"},
	}
	if len(doc.Lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(doc.Lines), len(want))
	}
	for i, w := range want {
		l := doc.Lines[i]
		if l.StartMS != w.start || l.EndMS != w.end || l.Text() != w.text || l.Translation() != w.trans {
			t.Errorf("line %d = %d..%d %q/%q, want %+v", i, l.StartMS, l.EndMS, l.Text(), l.Translation(), w)
		}
	}

	t.Run("trailing stamp ends the syllable", func(t *testing.T) {
		syls := doc.Lines[0].MainTrack().Content.Syllables()
		if len(syls) != 1 || syls[0].StartMS != 1000 || syls[0].EndMS != 2000 {
			t.Errorf("syllables = %+v", syls)
		}
	})

	t.Run("repeats shift syllables", func(t *testing.T) {
		syls := doc.Lines[3].MainTrack().Content.Syllables()
		if syls[0].StartMS != 10000 || syls[0].EndMS != 12000 {
			t.Errorf("syllables = %+v", syls)
		}
	})

	if doc.FirstMetadata("ti") != "SPL" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
}

func TestParseSPLInlineOutOfOrder(t *testing.T) {
	doc, err := ParseSPL("[00:05.00]a[00:04.00]b")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Lines) != 1 || doc.IsLineTimed {
		t.Fatalf("lines = %+v", doc.Lines)
	}
	found := false
	for _, w := range doc.Warnings {
		if strings.Contains(w, "earlier") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v", doc.Warnings)
	}
	for _, l := range doc.Lines {
		if l.EndMS < l.StartMS {
			t.Errorf("line end %d before start %d", l.EndMS, l.StartMS)
		}
	}
}

func TestParseSPLEndOnTranslationLine(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantEnd   uint64
		wantTrans string
	}{
		{"ImplicitTranslation", "[00:01.00]Hello\n翻译[00:04.00]\n[00:10.00]Next\n", 4000, "翻译"},
		{"SameStampTranslation", "[00:01.00]Hello\n[00:01.00]翻译 [00:04.50]\n[00:10.00]Next\n", 4500, "翻译"},
		{"StampOnlyTranslation", "[00:01.00]Hello\n[00:03.00]\n", 3000, ""},
		{"MainLineWins", "[00:01.00]Hello[00:02.00]\n翻译[00:04.00]\n[00:10.00]Next\n", 2000, "翻译"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseSPL(tt.input)
			if err != nil {
				t.Fatalf("ParseSPL() error = %v", err)
			}
			l := doc.Lines[0]
			if l.StartMS != 1000 || l.EndMS != tt.wantEnd {
				t.Errorf("line 0 = %d..%d, want 1000..%d", l.StartMS, l.EndMS, tt.wantEnd)
			}
			if l.Text() != "Hello" || l.Translation() != tt.wantTrans {
				t.Errorf("line 0 = %q/%q, want Hello/%q", l.Text(), l.Translation(), tt.wantTrans)
			}
		})
	}
}
