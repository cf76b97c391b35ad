package parser

import (
	"testing"

	"lyricconv/pkg/lyric"
)

func textDoc(lines ...string) *lyric.Document {
	doc := lyric.NewDocument(lyric.FormatLRC)
	for i, s := range lines {
		ms := uint64(i) * 1000
		doc.Lines = append(doc.Lines, lyric.Line{
			StartMS: ms,
			EndMS:   ms + 1000,
			Tracks:  []lyric.AnnotatedTrack{{Content: lyric.NewTextTrack(s, "", ms, ms+1000)}},
		})
	}
	return doc
}

func lineTexts(doc *lyric.Document) []string {
	out := make([]string, len(doc.Lines))
	for i := range doc.Lines {
		out[i] = doc.Lines[i].Text()
	}
	return out
}

func TestStripCredits(t *testing.T) {
	enabled := DefaultStripOptions()
	enabled.Enabled = true

	tests := []struct {
		name    string
		lines   []string
		opts    func(o *StripOptions)
		want    []string
		removed int
	}{
		{
			name:    "HeaderAndFooter",
			lines:   []string{"作词 : 某人", "作曲：某人", "第一句", "第二句", "混音: 某人"},
			opts:    func(o *StripOptions) { o.HeaderLines = 3 },
			want:    []string{"第一句", "第二句"},
			removed: 3,
		},
		{
			name:    "LyricBetweenHeaderCredits",
			lines:   []string{"作词: A", "序", "编曲: B", "正文"},
			want:    []string{"正文"},
			removed: 3,
		},
		{
			name:    "FooterStopsAtLyric",
			lines:   []string{"正文", "Producer: X", "尾句", "Mixing: Y"},
			opts:    func(o *StripOptions) { o.HeaderLines = 1 },
			want:    []string{"正文", "Producer: X", "尾句"},
			removed: 1,
		},
		{
			name:  "CaseInsensitiveByDefault",
			lines: []string{"COMPOSER: X", "Hello"},
			want:  []string{"Hello"},
		},
		{
			name:  "CaseSensitive",
			lines: []string{"COMPOSER: X", "Hello"},
			opts:  func(o *StripOptions) { o.KeywordCaseSensitive = true },
			want:  []string{"COMPOSER: X", "Hello"},
		},
		{
			name:  "LeadingTagSkipped",
			lines: []string{"(Intro) 作词: A", "Hello"},
			want:  []string{"Hello"},
		},
		{
			name:  "KeywordWithoutColonKept",
			lines: []string{"作词人很厉害", "Hello"},
			want:  []string{"作词人很厉害", "Hello"},
		},
		{
			name:  "HeaderLimit",
			lines: []string{"Hello", "World", "作词: A", "End"},
			opts:  func(o *StripOptions) { o.HeaderLines = 2 },
			want:  []string{"Hello", "World", "作词: A", "End"},
		},
		{
			name:  "OnlyCredits",
			lines: []string{"作词: A", "作曲: B"},
			want:  []string{},
		},
		{
			name:  "Patterns",
			lines: []string{"Hello", "未经许可 不得翻唱", "World", "QQ Music"},
			opts: func(o *StripOptions) {
				o.Keywords = nil
				o.Patterns = []string{"不得翻唱", "^qq music$", "("}
			},
			want: []string{"Hello", "World"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := enabled
			if tt.opts != nil {
				tt.opts(&opts)
			}
			doc := textDoc(tt.lines...)
			n := StripCredits(doc, opts)
			got := lineTexts(doc)
			if len(got) != len(tt.want) {
				t.Fatalf("lines = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("lines = %q, want %q", got, tt.want)
				}
			}
			if n != len(tt.lines)-len(tt.want) {
				t.Errorf("removed = %d, want %d", n, len(tt.lines)-len(tt.want))
			}
			if tt.removed > 0 && n != tt.removed {
				t.Errorf("removed = %d, want %d", n, tt.removed)
			}
		})
	}
}

func TestStripCreditsBadPatternWarns(t *testing.T) {
	opts := DefaultStripOptions()
	opts.Enabled = true
	opts.Patterns = []string{"("}
	doc := textDoc("Hello")
	StripCredits(doc, opts)
	if len(doc.Warnings) != 1 || len(doc.Lines) != 1 {
		t.Errorf("warnings = %v, lines = %d", doc.Warnings, len(doc.Lines))
	}
}

func TestStripCreditsDisabled(t *testing.T) {
	doc := textDoc("作词: A", "Hello")
	if n := StripCredits(doc, DefaultStripOptions()); n != 0 || len(doc.Lines) != 2 {
		t.Errorf("disabled strip removed %d lines", n)
	}
}
