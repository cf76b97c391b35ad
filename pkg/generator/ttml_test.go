package generator

import (
	"strings"
	"testing"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/parser"
)

func TestFormatTTMLTime(t *testing.T) {
	tests := []struct {
		ms   uint64
		want string
	}{
		{0, "0.000"},
		{7123, "7.123"},
		{59999, "59.999"},
		{60000, "1:00.000"},
		{754321, "12:34.321"},
		{3723500, "1:02:03.500"},
	}
	for _, tt := range tests {
		got := FormatTTMLTime(tt.ms)
		if got != tt.want {
			t.Errorf("FormatTTMLTime(%d) = %q, want %q", tt.ms, got, tt.want)
		}
		if back, err := parser.ParseTTMLTime(got); err != nil || back != tt.ms {
			t.Errorf("ParseTTMLTime(%q) = %d, %v", got, back, err)
		}
	}
}

func TestGenerateTTMLIdempotent(t *testing.T) {
	for _, opts := range []Options{
		{},
		{AppleFormat: true},
		{TimingMode: TimingLine},
		{Indent: true},
	} {
		first := mustGenerate(t, sampleDoc(), lyric.FormatTTML, opts)
		doc, err := parser.ParseTTML(first)
		if err != nil {
			t.Fatalf("%+v: reparse: %v", opts, err)
		}
		second := mustGenerate(t, doc, lyric.FormatTTML, opts)
		if first != second {
			t.Errorf("%+v: output changed after round trip\nfirst:\n%s\nsecond:\n%s", opts, first, second)
		}
	}
}

func TestGenerateTTMLWordMode(t *testing.T) {
	out := mustGenerate(t, sampleDoc(), lyric.FormatTTML, DefaultOptions())
	for _, want := range []string{
		`itunes:timing="Word"`,
		`<ttm:agent type="person" xml:id="v1"/>`,
		`<amll:meta key="musicName" value="Song"/>`,
		`<amll:meta key="artists" value="Singer"/>`,
		`<body dur="9.000">`,
		`<p begin="1.000" end="2.500" itunes:key="L1" ttm:agent="v1">`,
		`<span begin="1.000" end="1.500">Hello</span> <span begin="1.500" end="2.500">world</span>`,
		`<span ttm:role="x-translation" xml:lang="zh-CN">你好世界</span>`,
		`<span ttm:role="x-bg" begin="2.000" end="2.400"><span begin="2.000" end="2.200">ooh</span> <span begin="2.200" end="2.400">ah</span>`,
		`<p begin="8.000" end="9.000" itunes:key="L2">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "iTunesMetadata") {
		t.Errorf("generic output should not carry iTunesMetadata:\n%s", out)
	}
}

func TestGenerateTTMLAppleFormat(t *testing.T) {
	doc := sampleDoc()
	doc.AddMetadata("songwriter", "Bob")
	doc.Lines[0].SongPart = "Verse"
	main := doc.Lines[0].MainTrack()
	main.AddRomanization(lyric.NewTrack([]lyric.Syllable{
		{Text: "ha", StartMS: 1000, EndMS: 1500, EndsWithSpace: true},
		{Text: "lo", StartMS: 1500, EndMS: 2500},
	}, "en-Latn"))

	out := mustGenerate(t, doc, lyric.FormatTTML, Options{AppleFormat: true})
	for _, want := range []string{
		`itunes:song-part="Verse"`,
		`<translation type="subtitle" xml:lang="zh-CN"><text for="L1">你好世界<span ttm:role="x-bg">哦啊</span></text></translation>`,
		`<songwriter>Bob</songwriter>`,
		`<span begin="2.000" end="2.200">(ooh</span>`,
		`<span begin="2.200" end="2.400">ah)</span>`,
		`<span ttm:role="x-roman" xml:lang="en-Latn"><span begin="1.000" end="1.500">ha</span>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
	if strings.Contains(out, `ttm:role="x-translation"`) {
		t.Errorf("apple output should move translations to the head:\n%s", out)
	}

	parsed, err := parser.ParseTTML(out)
	if err != nil {
		t.Fatal(err)
	}
	line := parsed.Lines[0]
	if line.Translation() != "你好世界" || line.SongPart != "Verse" {
		t.Errorf("line = %+v", line)
	}
	bg := line.BackgroundTrack()
	if bg == nil || bg.Content.Text() != "ooh ah" || len(bg.Translations) != 1 || bg.Translations[0].Text() != "哦啊" {
		t.Errorf("background = %+v", bg)
	}
	if r := line.MainTrack().Romanizations; len(r) != 1 || r[0].Len() != 2 {
		t.Errorf("romanizations = %+v", r)
	}
}

func TestGenerateTTMLLineMode(t *testing.T) {
	out := mustGenerate(t, sampleDoc(), lyric.FormatTTML, Options{TimingMode: TimingLine})
	if !strings.Contains(out, `itunes:timing="Line"`) {
		t.Fatalf("timing attribute missing:\n%s", out)
	}
	if !strings.Contains(out, `itunes:key="L1" ttm:agent="v1">Hello world<span`) {
		t.Errorf("line text not written as one text node:\n%s", out)
	}

	doc, err := parser.ParseTTML(out)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.IsLineTimed || len(doc.Lines) != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	first := doc.Lines[0]
	if first.Text() != "Hello world" || first.Translation() != "你好世界" {
		t.Errorf("first = %q / %q", first.Text(), first.Translation())
	}
	if bg := first.BackgroundTrack(); bg == nil || bg.Content.Text() != "ooh ah" {
		t.Errorf("background = %+v", bg)
	}
}

func TestGenerateTTMLLineModeKeepsSyllableSpacing(t *testing.T) {
	doc := lyric.NewDocument(lyric.FormatQRC)
	doc.Lines = []lyric.Line{{
		StartMS: 0,
		EndMS:   1500,
		Tracks: []lyric.AnnotatedTrack{{Content: lyric.NewTrack([]lyric.Syllable{
			{Text: "你", StartMS: 0, EndMS: 500},
			{Text: "好", StartMS: 500, EndMS: 1000, EndsWithSpace: true},
			{Text: "Hi", StartMS: 1000, EndMS: 1500},
		}, "")}},
	}}
	out := mustGenerate(t, doc, lyric.FormatTTML, Options{TimingMode: TimingLine})
	if !strings.Contains(out, ">你好 Hi</p>") {
		t.Errorf("line text should follow syllable spacing:\n%s", out)
	}
}

func TestGenerateTTMLSongPartGroups(t *testing.T) {
	doc := sampleDoc()
	doc.Lines[0].SongPart = "Verse"
	doc.Lines[1].SongPart = "Chorus"
	out := mustGenerate(t, doc, lyric.FormatTTML, DefaultOptions())
	if n := strings.Count(out, "<div "); n != 2 {
		t.Errorf("got %d divs:\n%s", n, out)
	}
	if !strings.Contains(out, `<div begin="8.000" end="9.000" itunes:song-part="Chorus">`) {
		t.Errorf("chorus div missing:\n%s", out)
	}
}
