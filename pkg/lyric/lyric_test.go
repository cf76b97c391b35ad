package lyric

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"TTML", FormatTTML, false},
		{".lrc", FormatLRC, false},
		{"Lyricify Lines", FormatLYL, false},
		{"l y s", FormatLYS, false},
		{"krc", FormatKRC, false},
		{"docx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTrackTextAndRange(t *testing.T) {
	track := NewTrack([]Syllable{
		{Text: "Hello", StartMS: 100, EndMS: 400, EndsWithSpace: true},
		{Text: "world", StartMS: 400, EndMS: 900, EndsWithSpace: true},
	}, "en")

	if got := track.Text(); got != "Hello world" {
		t.Errorf("Text() = %q, want %q", got, "Hello world")
	}
	start, end, ok := track.TimeRange()
	if !ok || start != 100 || end != 900 {
		t.Errorf("TimeRange() = %d, %d, %v", start, end, ok)
	}
	if !track.IsTimed() {
		t.Error("expected track to be timed")
	}
	if NewTextTrack("  ", "", 0, 0).Len() != 0 {
		t.Error("blank text track should have no syllables")
	}
}

func TestShiftTimeClampsAtZero(t *testing.T) {
	track := NewTrack([]Syllable{{Text: "a", StartMS: 100, EndMS: 300}}, "")
	track.ShiftTime(-200)
	s := track.Syllables()[0]
	if s.StartMS != 0 || s.EndMS != 100 {
		t.Errorf("got %d..%d, want 0..100", s.StartMS, s.EndMS)
	}
}

func TestBackgroundSectionRoundTrip(t *testing.T) {
	line := Line{StartMS: 0, EndMS: 2000}
	line.EnsureTrack(ContentMain).Content = NewTextTrack("main", "", 0, 2000)

	tr := NewTextTrack("背景", "zh-CN", 0, 0)
	line.SetBackgroundSection(&BackgroundSection{
		Syllables:   []Syllable{{Text: "ooh", StartMS: 500, EndMS: 800}, {Text: "ah", StartMS: 800, EndMS: 1200}},
		Translation: &tr,
	})

	bs := line.BackgroundSection()
	if bs == nil {
		t.Fatal("expected background section")
	}
	if bs.StartMS != 500 || bs.EndMS != 1200 {
		t.Errorf("section range = %d..%d, want 500..1200", bs.StartMS, bs.EndMS)
	}
	if bs.Translation == nil || bs.Translation.Text() != "背景" {
		t.Errorf("translation lost: %+v", bs.Translation)
	}
	if line.Tracks[0].ContentType != ContentMain {
		t.Error("main track should stay first")
	}

	line.SetBackgroundSection(nil)
	if line.BackgroundTrack() != nil {
		t.Error("background track should be removed")
	}
}

func TestAddTranslationDedup(t *testing.T) {
	var at AnnotatedTrack
	if !at.AddTranslation(NewTextTrack("你好", "zh", 0, 0)) {
		t.Fatal("first add should succeed")
	}
	if at.AddTranslation(NewTextTrack("你好", "zh", 0, 0)) {
		t.Error("duplicate translation should be ignored")
	}
	if at.AddRomanization(Track{}) {
		t.Error("empty romanization should be ignored")
	}
}

func TestLineIndexAt(t *testing.T) {
	lines := []Line{{StartMS: 1000}, {StartMS: 2000}, {StartMS: 3000}}
	tests := []struct {
		ms   uint64
		want int
	}{
		{0, -1},
		{1000, 0},
		{2500, 1},
		{9000, 2},
	}
	for _, tt := range tests {
		if got := LineIndexAt(lines, tt.ms); got != tt.want {
			t.Errorf("LineIndexAt(%d) = %d, want %d", tt.ms, got, tt.want)
		}
	}
	if LineIndexAt(nil, 10) != -1 {
		t.Error("empty lines should return -1")
	}
}

func TestDocumentAgents(t *testing.T) {
	doc := NewDocument(FormatTTML)
	doc.SetAgent(Agent{ID: "v1"})
	doc.SetAgent(Agent{ID: "v1", Name: "Alice"})
	if len(doc.Agents) != 1 || doc.AgentName("v1") != "Alice" || doc.Agents[0].Type != AgentPerson {
		t.Errorf("unexpected agents: %+v", doc.Agents)
	}
}
