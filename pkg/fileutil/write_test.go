package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.lrc")
	if err := WriteFileOverwrite(path, []byte("first line that is long"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileOverwrite(path, []byte("short"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "short" {
		t.Errorf("content = %q", got)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, outDir, ext string
		want               string
	}{
		{"songs/a.lrc", "", ".ttml", filepath.Join("songs", "a.ttml")},
		{"songs/a.qrc", "out", ".lrc", filepath.Join("out", "a.lrc")},
		{"a.lrc", "", ".lrc", "a.converted.lrc"},
		{"/tmp/b.ass", "", ".lys", "/tmp/b.lys"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.input, tt.outDir, tt.ext); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tt.input, tt.outDir, tt.ext, got, tt.want)
		}
	}
}
