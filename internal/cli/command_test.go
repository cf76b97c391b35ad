package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"lyricconv/internal/config"
	"lyricconv/pkg/chinese"
	"lyricconv/pkg/lyric"
)

const sampleLRC = "[ti:Song]\n[00:01.00]Hello\n[00:02.00]World\n"

// isolate 让配置和缓存目录落在临时目录
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{config.EnvAIAPIKey, config.EnvTencentSecretID, config.EnvTencentSecretKey} {
		t.Setenv(k, "")
	}
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := CreateRootCommand(NewFlags())
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCreateRootCommand(t *testing.T) {
	cmd := CreateRootCommand(NewFlags())
	if cmd.Use != "lyricconv" {
		t.Errorf("Use = %q", cmd.Use)
	}

	for _, name := range []string{"convert", "merge", "batch", "inspect", "formats", "preview"} {
		t.Run("command_"+name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			if err != nil || sub.Name() != name {
				t.Errorf("expected subcommand %s, got %v (%v)", name, sub, err)
			}
		})
	}

	convert, _, _ := cmd.Find([]string{"convert"})
	for _, name := range []string{"from", "to", "output", "translation", "romanization", "meta", "apple", "timing", "split", "translate-to", "chinese", "no-cache"} {
		var flag *pflag.Flag = convert.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("convert is missing flag --%s", name)
		}
	}
	if cmd.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent --config flag")
	}
}

func TestConvertCommand(t *testing.T) {
	dir := isolate(t)
	in := writeFile(t, dir, "song.lrc", sampleLRC)

	t.Run("Stdout", func(t *testing.T) {
		stdout, _, err := run(t, "convert", in, "-t", "lrc", "--no-cache")
		if err != nil {
			t.Fatalf("convert failed: %v", err)
		}
		for _, want := range []string{"[ti:Song]", "Hello", "World"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("output missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("File", func(t *testing.T) {
		out := filepath.Join(dir, "out", "song.ttml")
		if _, _, err := run(t, "convert", in, "-t", "ttml", "-o", out); err != nil {
			t.Fatalf("convert failed: %v", err)
		}
		b, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), "<tt") || !strings.Contains(string(b), "Hello") {
			t.Errorf("unexpected TTML:\n%s", b)
		}
	})

	t.Run("StripCredits", func(t *testing.T) {
		credited := writeFile(t, dir, "credited.lrc", "[00:00.00]作词: A\n"+sampleLRC)
		stdout, _, err := run(t, "convert", credited, "-t", "lrc", "--no-cache", "--strip-credits", "--strip-pattern", "^world$")
		if err != nil {
			t.Fatalf("convert failed: %v", err)
		}
		if strings.Contains(stdout, "作词") || strings.Contains(stdout, "World") || !strings.Contains(stdout, "Hello") {
			t.Errorf("credits not stripped:\n%s", stdout)
		}
	})

	t.Run("BadFormat", func(t *testing.T) {
		if _, _, err := run(t, "convert", in, "-t", "mp3"); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("MissingInput", func(t *testing.T) {
		if _, _, err := run(t, "convert", filepath.Join(dir, "nope.lrc"), "-t", "lrc"); err == nil {
			t.Error("expected error for missing input")
		}
	})
}

func TestMergeCommand(t *testing.T) {
	dir := isolate(t)
	in := writeFile(t, dir, "song.lrc", sampleLRC)
	tr := writeFile(t, dir, "song.zh.lrc", "[00:01.00]你好\n[00:02.00]世界\n")

	stdout, _, err := run(t, "merge", in, tr, "-t", "ttml", "--translation-lang", "zh-CN", "--no-cache")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	for _, want := range []string{"你好", "世界", `xml:lang="zh-CN"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("merged output missing %q:\n%s", want, stdout)
		}
	}
}

func TestBatchCommand(t *testing.T) {
	dir := isolate(t)
	a := writeFile(t, dir, "a.lrc", sampleLRC)
	b := writeFile(t, dir, "b.lrc", "[00:05.00]Other\n")
	outDir := filepath.Join(dir, "converted")

	stdout, _, err := run(t, "batch", a, b, "-t", "lys", "--out-dir", outDir)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if !strings.Contains(stdout, "ok") {
		t.Errorf("summary table missing status:\n%s", stdout)
	}
	for _, name := range []string{"a.lys", "b.lys"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}

	_, _, err = run(t, "batch", a, filepath.Join(dir, "missing.lrc"), "-t", "lys", "--out-dir", outDir)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("expected partial failure, got %v", err)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := isolate(t)
	in := writeFile(t, dir, "song.lrc", sampleLRC)

	stdout, _, err := run(t, "inspect", in)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"Format: lrc", "Lines: 2", "Hello", "00:01.000"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("inspect output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = run(t, "inspect", in, "--yaml")
	if err != nil {
		t.Fatalf("inspect --yaml failed: %v", err)
	}
	if !strings.Contains(stdout, "lines:") || !strings.Contains(stdout, "source_format: lrc") {
		t.Errorf("unexpected yaml:\n%s", stdout)
	}
}

func TestFormatsCommand(t *testing.T) {
	isolate(t)
	stdout, _, err := run(t, "formats")
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range lyric.AllFormats() {
		if !strings.Contains(stdout, string(f)) {
			t.Errorf("formats output missing %s", f)
		}
	}
}

func TestParseMetadata(t *testing.T) {
	got, err := parseMetadata([]string{"ti=Song", "ar = A", "ar=B"})
	if err != nil {
		t.Fatal(err)
	}
	if got["ti"][0] != "Song" || len(got["ar"]) != 2 || got["ar"][0] != "A" {
		t.Errorf("unexpected metadata %v", got)
	}
	if _, err := parseMetadata([]string{"novalue"}); err == nil {
		t.Error("expected error for missing '='")
	}
}

func TestFormatValue(t *testing.T) {
	var v formatValue
	if err := v.Set("Lyricify Syllable"); err != nil {
		t.Fatal(err)
	}
	if v.Format() != lyric.FormatLYS || v.String() != "lys" || v.Type() != "format" {
		t.Errorf("unexpected value %+v", v)
	}
	if err := v.Set("wav"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseChineseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want chinese.Target
	}{
		{"", chinese.TargetTranslation},
		{"main", chinese.TargetMain},
		{"ALL", chinese.TargetAll},
	}
	for _, tt := range tests {
		got, err := parseChineseTarget(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("parseChineseTarget(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := parseChineseTarget("bogus"); err == nil {
		t.Error("expected error")
	}
}
