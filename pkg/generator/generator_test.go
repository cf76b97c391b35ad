package generator

import (
	"errors"
	"strings"
	"testing"

	"lyricconv/pkg/lyric"
	"lyricconv/pkg/merger"
	"lyricconv/pkg/parser"
)

// sampleDoc 两行：第一行逐字并带翻译和背景人声，第二行与第一行间隔超过 5 秒
func sampleDoc() *lyric.Document {
	doc := lyric.NewDocument(lyric.FormatQRC)
	doc.AddMetadata("ti", "Song")
	doc.AddMetadata("ar", "Singer")

	first := lyric.Line{Agent: "v1"}
	main := first.EnsureTrack(lyric.ContentMain)
	main.Content = lyric.NewTrack([]lyric.Syllable{
		{Text: "Hello", StartMS: 1000, EndMS: 1500, EndsWithSpace: true},
		{Text: "world", StartMS: 1500, EndMS: 2500},
	}, "")
	main.AddTranslation(lyric.NewTextTrack("你好世界", "zh-CN", 0, 0))
	bg := first.EnsureTrack(lyric.ContentBackground)
	bg.Content = lyric.NewTrack([]lyric.Syllable{
		{Text: "ooh", StartMS: 2000, EndMS: 2200, EndsWithSpace: true},
		{Text: "ah", StartMS: 2200, EndMS: 2400},
	}, "")
	bg.AddTranslation(lyric.NewTextTrack("哦啊", "zh-CN", 0, 0))
	first.RecalculateTiming()

	second := lyric.Line{}
	second.EnsureTrack(lyric.ContentMain).Content = lyric.NewTrack([]lyric.Syllable{
		{Text: "Next", StartMS: 8000, EndMS: 9000},
	}, "")
	second.RecalculateTiming()

	doc.Lines = []lyric.Line{first, second}
	return doc
}

func mustGenerate(t *testing.T, doc *lyric.Document, format lyric.Format, opts Options) string {
	t.Helper()
	out, err := Generate(doc, format, opts)
	if err != nil {
		t.Fatalf("generate %s: %v", format, err)
	}
	return out
}

func TestGenerateExactOutput(t *testing.T) {
	tests := []struct {
		format lyric.Format
		want   string
	}{
		{
			format: lyric.FormatLRC,
			want: "[ti:Song]\n[ar:Singer]\n" +
				"[00:01.000]Hello world\n[00:01.000]你好世界\n" +
				"[00:02.500]\n" +
				"[00:08.000]Next\n",
		},
		{
			format: lyric.FormatELRC,
			want: "[ti:Song]\n[ar:Singer]\n" +
				"[00:01.000]<00:01.000>Hello <00:01.500>world<00:02.500>\n[00:01.000]你好世界\n" +
				"[00:02.500]\n" +
				"[00:08.000]<00:08.000>Next<00:09.000>\n",
		},
		{
			format: lyric.FormatQRC,
			want: "[ti:Song]\n[ar:Singer]\n" +
				"[1000,1500]Hello (1000,500)world(1500,1000)\n" +
				"[2000,400](ooh (2000,200)ah)(2200,200)\n" +
				"[8000,1000]Next(8000,1000)\n",
		},
		{
			format: lyric.FormatYRC,
			want: "[1000,1500](1000,500,0)Hello (1500,1000,0)world\n" +
				"[8000,1000](8000,1000,0)Next\n",
		},
		{
			format: lyric.FormatLYL,
			want:   "[type:LyricifyLines]\n[1000,2500]Hello world\n[8000,9000]Next\n",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := mustGenerate(t, sampleDoc(), tt.format, DefaultOptions()); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestGenerateLRCTranslationLanguage(t *testing.T) {
	doc := sampleDoc()
	main := doc.Lines[0].MainTrack()
	main.AddTranslation(lyric.NewTextTrack("Hi world", "en", 0, 0))

	opts := DefaultOptions()
	opts.TranslationLanguage = "en"
	out := mustGenerate(t, doc, lyric.FormatLRC, opts)
	if !strings.Contains(out, "[00:01.000]Hi world\n") || strings.Contains(out, "你好世界") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	tests := []struct {
		format lyric.Format
		parse  func(string) (*lyric.Document, error)
		// 格式是否能携带翻译
		translation bool
	}{
		{lyric.FormatKRC, parser.ParseKRC, true},
		{lyric.FormatLYS, parser.ParseLYS, false},
		{lyric.FormatSPL, parser.ParseSPL, true},
		{lyric.FormatASS, parser.ParseASS, true},
		{lyric.FormatTTML, parser.ParseTTML, true},
		{lyric.FormatJSON, parser.ParseJSON, true},
		{lyric.FormatLQE, func(s string) (*lyric.Document, error) { return parser.ParseLQE(s) }, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			out := mustGenerate(t, sampleDoc(), tt.format, DefaultOptions())
			doc, err := tt.parse(out)
			if err != nil {
				t.Fatalf("reparse: %v\n%s", err, out)
			}
			if len(doc.Lines) != 2 {
				t.Fatalf("got %d lines:\n%s", len(doc.Lines), out)
			}

			first := doc.Lines[0]
			if first.Text() != "Hello world" {
				t.Errorf("text = %q", first.Text())
			}
			if syls := first.MainTrack().Content.Syllables(); len(syls) != 2 ||
				syls[0].StartMS != 1000 || syls[1].StartMS != 1500 || syls[1].EndMS != 2500 {
				t.Errorf("syllables = %+v", syls)
			}
			if tt.translation && first.Translation() != "你好世界" {
				t.Errorf("translation = %q", first.Translation())
			}
			if doc.Lines[1].Text() != "Next" || doc.Lines[1].StartMS != 8000 {
				t.Errorf("second = %+v", doc.Lines[1])
			}
		})
	}
}

func TestGenerateBackgroundRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		format lyric.Format
		parse  func(string) (*lyric.Document, error)
	}{
		{lyric.FormatLYS, parser.ParseLYS},
		{lyric.FormatASS, parser.ParseASS},
		{lyric.FormatTTML, parser.ParseTTML},
	} {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := tt.parse(mustGenerate(t, sampleDoc(), tt.format, DefaultOptions()))
			if err != nil {
				t.Fatal(err)
			}
			bg := doc.Lines[0].BackgroundTrack()
			if bg == nil {
				t.Fatal("background track lost")
			}
			if bg.Content.Text() != "ooh ah" {
				t.Errorf("background = %q", bg.Content.Text())
			}
			if start, end, _ := bg.Content.TimeRange(); start != 2000 || end != 2400 {
				t.Errorf("background range %d..%d", start, end)
			}
		})
	}
}

func TestGenerateKRCHeaderOmitsLanguage(t *testing.T) {
	doc := sampleDoc()
	doc.AddMetadata("language", "ja")
	out := mustGenerate(t, doc, lyric.FormatKRC, DefaultOptions())
	if strings.Contains(out, "[language:ja]") {
		t.Errorf("language metadata written as KRC language tag:\n%s", out)
	}
	parsed, err := parser.ParseKRC(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Warnings) != 0 {
		t.Errorf("warnings = %v", parsed.Warnings)
	}
	if parsed.Lines[1].Translation() != "" {
		t.Errorf("second line got translation %q", parsed.Lines[1].Translation())
	}
}

func TestGenerateLQESections(t *testing.T) {
	out := mustGenerate(t, sampleDoc(), lyric.FormatLQE, DefaultOptions())
	for _, want := range []string{
		parser.LQEHeader + "\n[version:1.0]\n[ti:Song]\n[ar:Singer]\n",
		"[lyrics: format@Lyricify Syllable]\n",
		"[translation: format@LRC, language@zh-CN]\n[00:01.000]你好世界\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "[pronunciation:") {
		t.Errorf("empty pronunciation section written:\n%s", out)
	}

	doc, err := parser.ParseLQE(out)
	if err != nil {
		t.Fatal(err)
	}
	if tr := doc.Lines[0].MainTrack().Translations; len(tr) != 1 || tr[0].Language != "zh-CN" {
		t.Errorf("translations = %+v", tr)
	}
}

func TestAuxiliary(t *testing.T) {
	doc := sampleDoc()
	doc.Lines[1].MainTrack().AddRomanization(lyric.NewTextTrack("nekusuto", "ja-Latn", 0, 0))

	if got, want := Auxiliary(doc, merger.Translation, ""), "[00:01.000]你好世界\n[00:02.000]哦啊\n"; got != want {
		t.Errorf("translation = %q, want %q", got, want)
	}
	if got, want := Auxiliary(doc, merger.Romanization, ""), "[00:08.000]nekusuto\n"; got != want {
		t.Errorf("romanization = %q, want %q", got, want)
	}
}

func TestGenerateUnsupported(t *testing.T) {
	_, err := Generate(sampleDoc(), lyric.Format("midi"), DefaultOptions())
	var genErr *Error
	if !errors.As(err, &genErr) || !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v", err)
	}
	if genErr.Format != "midi" {
		t.Errorf("format = %q", genErr.Format)
	}
}

func TestGenerateAutoWordSplitting(t *testing.T) {
	doc := sampleDoc()
	opts := DefaultOptions()
	opts.AutoWordSplitting = true

	out := mustGenerate(t, doc, lyric.FormatQRC, opts)
	if !strings.Contains(out, "Hel(1000,300)lo (1300,200)") {
		t.Errorf("hello not split:\n%s", out)
	}
	if n := doc.Lines[0].MainTrack().Content.Len(); n != 2 {
		t.Errorf("input document mutated: %d syllables", n)
	}

	lrc := mustGenerate(t, doc, lyric.FormatLRC, opts)
	if !strings.Contains(lrc, "[00:01.000]Hello world\n") {
		t.Errorf("line-timed output should not be affected:\n%s", lrc)
	}
}

func TestParseTimingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TimingMode
		wantErr bool
	}{
		{"", TimingAuto, false},
		{"Auto", TimingAuto, false},
		{"word", TimingWord, false},
		{"syllable", TimingWord, false},
		{" line ", TimingLine, false},
		{"frame", TimingAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseTimingMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTimingMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestFormatASSTime(t *testing.T) {
	tests := []struct {
		ms   uint64
		want string
	}{
		{0, "0:00:00.00"},
		{1234, "0:00:01.23"},
		{1235, "0:00:01.24"},
		{3723995, "1:02:04.00"},
	}
	for _, tt := range tests {
		if got := formatASSTime(tt.ms); got != tt.want {
			t.Errorf("formatASSTime(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
