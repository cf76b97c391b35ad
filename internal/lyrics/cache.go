package lyrics

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"lyricconv/pkg/doccache"
	"lyricconv/pkg/redis"
)

// Cache 转换结果缓存
type Cache interface {
	Name() string
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, req *Request, output string) error
}

// keyNamespace 所有缓存键的 UUID 命名空间
var keyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://lyricconv/convert"))

// CacheKey 由请求中所有影响输出的字段生成的确定性键
func CacheKey(req *Request) string {
	var b strings.Builder
	field := func(s string) {
		b.WriteString(s)
		b.WriteByte(0)
	}
	field(req.Input)
	field(string(req.SourceFormat))
	field(string(req.TargetFormat))
	field(req.Translation)
	field(string(req.TranslationFormat))
	field(req.TranslationLanguage)
	field(req.Romanization)
	field(string(req.RomanizationFormat))
	field(req.MachineTranslateTo)
	field(string(req.ChineseConversion))
	field(formatInt(int(req.ChineseTarget)))
	field(formatInt(int(req.LRCStrategy)))
	field(formatInt(int(req.ToleranceMS)))

	st := req.Strip
	field(formatBool(st.Enabled, st.KeywordCaseSensitive, st.PatternCaseSensitive))
	if st.Enabled {
		field(strings.Join(st.Keywords, "\x01"))
		field(formatInt(st.HeaderLines))
		field(formatInt(st.FooterLines))
		field(strings.Join(st.Patterns, "\x01"))
	}

	o := req.Options
	field(formatInt(int(o.TimingMode)))
	field(formatBool(o.AppleFormat, o.Indent, o.AutoWordSplitting))
	field(formatFloat(o.PunctuationWeight))
	field(o.MainLanguage)
	field(o.TranslationLanguage)
	field(o.RomanizationLanguage)

	keys := make([]string, 0, len(req.Metadata))
	for k := range req.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field(k)
		field(strings.Join(req.Metadata[k], "\x01"))
	}
	return uuid.NewSHA1(keyNamespace, []byte(b.String())).String()
}

// redisCache 结果保存在 Redis，带过期时间
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache ttl 为 0 时永久保存
func NewRedisCache(client *redis.Client, ttl time.Duration) Cache {
	return &redisCache{client: client, ttl: ttl}
}

func (c *redisCache) Name() string {
	return "redis"
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	b, err := c.client.GetBytes(ctx, key)
	if err != nil || b == nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, _ *Request, output string) error {
	return c.client.SetWithExpiration(ctx, key, output, c.ttl)
}

// diskCache 结果写入缓存目录，文件名为键加目标格式扩展名
type diskCache struct {
	cache *doccache.Cache
}

func NewDiskCache(cache *doccache.Cache) Cache {
	return &diskCache{cache: cache}
}

func (c *diskCache) Name() string {
	return "disk"
}

func (c *diskCache) Get(_ context.Context, key string) (string, bool, error) {
	v, err := c.cache.Get(key)
	if errors.Is(err, doccache.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *diskCache) Set(_ context.Context, key string, req *Request, output string) error {
	return c.cache.Put(key, key+req.TargetFormat.Extension(), output)
}
