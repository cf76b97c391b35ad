package textio

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

func utf16(t *testing.T, s string, order unicode.Endianness) []byte {
	t.Helper()
	b, err := unicode.UTF16(order, unicode.UseBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDecode(t *testing.T) {
	const text = "[00:01.00]你好\n[00:02.00]world"
	tests := []struct {
		name string
		data []byte
	}{
		{"utf8", []byte(text)},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"crlf", []byte("[00:01.00]你好\r\n[00:02.00]world")},
		{"utf16 le", utf16(t, text, unicode.LittleEndian)},
		{"utf16 be", utf16(t, text, unicode.BigEndian)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			if err != nil {
				t.Fatal(err)
			}
			if got != text {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0x00, 0xc3}); err == nil {
		t.Error("expected error for invalid utf-8 without BOM")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.lrc")
	if err := os.WriteFile(path, utf16(t, "hi", unicode.LittleEndian), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil || got != "hi" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.lrc")); err == nil {
		t.Error("expected error for missing file")
	}
}
