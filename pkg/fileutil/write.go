package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFileOverwrite writes content to a file at the specified path,
// overwriting it if it already exists. Missing parent directories are created.
func WriteFileOverwrite(filePath string, content []byte, perm os.FileMode) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer f.Close()

	_, err = f.Write(content)
	if err != nil {
		return fmt.Errorf("failed to write to file %s: %w", filePath, err)
	}

	return nil
}

// OutputPath replaces the extension of input with ext. When outDir is not
// empty the file is placed there instead of next to the input.
func OutputPath(input, outDir, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := filepath.Dir(input)
	if outDir != "" {
		dir = outDir
	}
	out := filepath.Join(dir, base+ext)
	if out == filepath.Clean(input) {
		out = filepath.Join(dir, base+".converted"+ext)
	}
	return out
}
