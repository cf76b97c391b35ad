// Package doccache 记录转换结果所在文件的持久索引，每行一条 "key => value"
package doccache

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"lyricconv/pkg/fileutil"
)

const (
	kvSep    = " => "
	kvFormat = "%s" + kvSep + "%s\n"

	// IndexFile 索引文件名
	IndexFile = "convert_cache.list"
)

// ErrNotFound 索引中没有该键
var ErrNotFound = errors.New("not found")

var logger = log.With().Str("component", "doccache").Logger()

// Cache 索引加上按键存放的结果文件
type Cache struct {
	dir     string
	entries sync.Map
	// 追加写索引文件
	mu sync.Mutex
}

// Open 加载 dir 下的索引，目录不存在时创建
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	c := &Cache{dir: dir}

	f, err := os.Open(c.indexPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("open cache index: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	loaded := 0
	for scanner.Scan() {
		k, v, ok := strings.Cut(scanner.Text(), kvSep)
		if !ok || k == "" {
			continue
		}
		c.entries.Store(k, v)
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cache index: %w", err)
	}
	logger.Debug().Int("entries", loaded).Str("dir", dir).Msg("Cache index loaded")
	return c, nil
}

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, IndexFile)
}

// Get 返回缓存的内容；索引存在但文件丢失时视为未命中
func (c *Cache) Get(key string) (string, error) {
	v, ok := c.entries.Load(key)
	if !ok {
		return "", ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(c.dir, v.(string)))
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cached file missing")
		c.entries.Delete(key)
		return "", ErrNotFound
	}
	return string(data), nil
}

// Put 写入结果文件并追加索引，name 是相对缓存目录的文件名
func (c *Cache) Put(key, name, content string) error {
	if err := fileutil.WriteFileOverwrite(filepath.Join(c.dir, name), []byte(content), 0o644); err != nil {
		return err
	}
	if prev, loaded := c.entries.Swap(key, name); loaded && prev.(string) == name {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	f, err := os.OpenFile(c.indexPath(), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open cache index: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, kvFormat, key, name); err != nil {
		return fmt.Errorf("append cache index: %w", err)
	}
	return nil
}

// Len 索引条目数
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
