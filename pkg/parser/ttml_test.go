package parser

import (
	"errors"
	"testing"
)

const sampleAppleTTML = `<tt xmlns="http://www.w3.org/ns/ttml" xmlns:itunes="http://music.apple.com/lyric-ttml-internal" xmlns:ttm="http://www.w3.org/ns/ttml#metadata" xmlns:amll="http://www.example.com/ns/amll" itunes:timing="Word" xml:lang="ja">
<head>
<metadata>
<ttm:agent type="person" xml:id="v1"><ttm:name type="full">Alice</ttm:name></ttm:agent>
<amll:meta key="musicName" value="Song"/>
<iTunesMetadata xmlns="http://music.apple.com/lyric-ttml-internal">
<songwriters><songwriter>Bob</songwriter></songwriters>
<translations><translation type="subtitle" xml:lang="zh-CN"><text for="L1">你好世界（背景）</text></translation></translations>
</iTunesMetadata>
</metadata>
</head>
<body dur="3.000"><div begin="1.000" end="3.000" itunes:song-part="Verse">
<p begin="1.000" end="3.000" itunes:key="L1" ttm:agent="v1"><span begin="1.000" end="1.500">Hello</span> <span begin="1.500" end="2.000">world</span><span ttm:role="x-bg"><span begin="2.000" end="2.500">(ooh</span> <span begin="2.500" end="3.000">ah)</span></span></p>
</div></body>
</tt>`

func TestParseTTMLWordMode(t *testing.T) {
	doc, err := ParseTTML(sampleAppleTTML)
	if err != nil {
		t.Fatalf("ParseTTML() error = %v", err)
	}
	if doc.IsLineTimed {
		t.Error("word timing expected")
	}
	if len(doc.Lines) != 1 {
		t.Fatalf("got %d lines", len(doc.Lines))
	}
	l := doc.Lines[0]
	if l.StartMS != 1000 || l.EndMS != 3000 || l.Agent != "v1" || l.SongPart != "Verse" || l.ITunesKey != "L1" {
		t.Errorf("line = %+v", l)
	}

	t.Run("main syllables", func(t *testing.T) {
		syls := l.MainTrack().Content.Syllables()
		if len(syls) != 2 || !syls[0].EndsWithSpace || syls[1].StartMS != 1500 {
			t.Errorf("syllables = %+v", syls)
		}
		if l.Text() != "Hello world" {
			t.Errorf("text = %q", l.Text())
		}
	})

	t.Run("background strips parentheses", func(t *testing.T) {
		bs := l.BackgroundSection()
		if bs == nil || len(bs.Syllables) != 2 {
			t.Fatalf("background = %+v", bs)
		}
		if bs.Syllables[0].Text != "ooh" || bs.Syllables[1].Text != "ah" {
			t.Errorf("background syllables = %+v", bs.Syllables)
		}
		if bs.Translation == nil || bs.Translation.Text() != "背景" {
			t.Errorf("background translation = %+v", bs.Translation)
		}
	})

	t.Run("apple translation", func(t *testing.T) {
		tr := l.MainTrack().Translations
		if len(tr) != 1 || tr[0].Text() != "你好世界" || tr[0].Language != "zh-CN" {
			t.Errorf("translations = %+v", tr)
		}
	})

	t.Run("head", func(t *testing.T) {
		if doc.AgentName("v1") != "Alice" {
			t.Errorf("agents = %+v", doc.Agents)
		}
		for key, want := range map[string]string{"language": "ja", "musicName": "Song", "songwriter": "Bob"} {
			if got := doc.FirstMetadata(key); got != want {
				t.Errorf("metadata %s = %q, want %q", key, got, want)
			}
		}
	})
}

func TestParseTTMLLineMode(t *testing.T) {
	const src = `<tt xmlns="http://www.w3.org/ns/ttml" xmlns:itunes="http://music.apple.com/lyric-ttml-internal" xmlns:ttm="http://www.w3.org/ns/ttml#metadata" itunes:timing="Line">
<body><div>
<p begin="00:01.000" end="00:02.500">Line one<span ttm:role="x-translation" xml:lang="en">trans</span></p>
<p begin="3s" end="4s">  two   words </p>
</div></body></tt>`

	doc, err := ParseTTML(src)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.IsLineTimed || len(doc.Lines) != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	first, second := doc.Lines[0], doc.Lines[1]
	if first.StartMS != 1000 || first.EndMS != 2500 || first.Text() != "Line one" {
		t.Errorf("first = %d..%d %q", first.StartMS, first.EndMS, first.Text())
	}
	if tr := first.MainTrack().Translations; len(tr) != 1 || tr[0].Text() != "trans" || tr[0].Language != "en" {
		t.Errorf("translations = %+v", tr)
	}
	if second.StartMS != 3000 || second.EndMS != 4000 || second.Text() != "two words" {
		t.Errorf("second = %d..%d %q", second.StartMS, second.EndMS, second.Text())
	}
}

func TestParseTTMLTime(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"7.123", 7123, false},
		{"12.5s", 12500, false},
		{"1:00.000", 60000, false},
		{"01:02:03.5", 3723500, false},
		{"0.1234", 123, false},
		{"1:60.000", 0, true},
		{"1:61:00.000", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTMLTime(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTTMLTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTTMLTime(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTTMLStructuralErrors(t *testing.T) {
	for _, src := range []string{`<tt a=></tt>`, `<root/>`} {
		_, err := ParseTTML(src)
		var se *StructuralError
		if !errors.As(err, &se) {
			t.Errorf("ParseTTML(%q) error = %v, want StructuralError", src, err)
		}
	}
}
