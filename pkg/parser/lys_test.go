package parser

import (
	"errors"
	"testing"
)

const sampleLYS = `[ti:LYS]
[1]Hello (1000,500)world(1500,500)
[7]ooh(1200,300)
[3]Next(3000,500)
[8]right bg(3500,200)
[2]Duet(5000,500)
[8]ah(5100,200)
`

func TestParseLYS(t *testing.T) {
	doc, err := ParseLYS(sampleLYS)
	if err != nil {
		t.Fatalf("ParseLYS() error = %v", err)
	}
	if len(doc.Lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(doc.Lines))
	}

	t.Run("property 7 merges into foreground", func(t *testing.T) {
		l := doc.Lines[0]
		bs := l.BackgroundSection()
		if bs == nil || bs.StartMS != 1200 || bs.EndMS != 1500 {
			t.Fatalf("background = %+v", bs)
		}
		if l.Text() != "Hello world" || l.StartMS != 1000 || l.EndMS != 2000 {
			t.Errorf("line = %q %d..%d", l.Text(), l.StartMS, l.EndMS)
		}
	})

	t.Run("property 3 never creates background", func(t *testing.T) {
		if doc.Lines[1].Text() != "Next" || doc.Lines[1].BackgroundSection() != nil {
			t.Errorf("line = %+v", doc.Lines[1])
		}
	})

	t.Run("channel mismatch stays standalone", func(t *testing.T) {
		l := doc.Lines[2]
		if l.MainTrack() != nil || l.BackgroundSection() == nil || l.Agent != "v2" {
			t.Errorf("line = %+v", l)
		}
	})

	t.Run("vocal2 background", func(t *testing.T) {
		l := doc.Lines[3]
		if l.Agent != "v2" || l.BackgroundSection() == nil {
			t.Errorf("line = %+v", l)
		}
	})

	if doc.FirstMetadata("ti") != "LYS" {
		t.Errorf("metadata = %v", doc.Metadata)
	}
}

func TestParseLYSMissingProperty(t *testing.T) {
	_, err := ParseLYS("[1]ok(0,100)\nno property(100,100)")
	var se *StructuralError
	if !errors.As(err, &se) || se.Line != 2 {
		t.Fatalf("expected StructuralError on line 2, got %v", err)
	}
}

func TestLYSPropertyRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		agent string
		bg    bool
	}{{"v1", false}, {"v1", true}, {"v2", false}, {"v2", true}} {
		p := lysPropertyOf(uint64(LYSProperty(tt.agent, tt.bg)))
		if p.agent != tt.agent || p.background != tt.bg {
			t.Errorf("LYSProperty(%s, %v) does not map back: %+v", tt.agent, tt.bg, p)
		}
	}
}
