package lyrics

import (
	"context"
	"fmt"
	"strings"

	"lyricconv/internal/config"
	"lyricconv/pkg/ai"
	"lyricconv/pkg/ai/gemini"
	aiopenai "lyricconv/pkg/ai/openai"
	"lyricconv/pkg/chinese"
	"lyricconv/pkg/doccache"
	"lyricconv/pkg/generator"
	"lyricconv/pkg/lyric"
	"lyricconv/pkg/parser"
	"lyricconv/pkg/redis"
	"lyricconv/pkg/translate"
	"lyricconv/tencent"
)

const redisKeyPrefix = "lyricconv:"

// CreateAIClient 按模块名创建 AI 客户端
func CreateAIClient(ctx context.Context, cfg config.AIConfig) (ai.Client, error) {
	switch strings.ToLower(cfg.ModuleName) {
	case "gemini", "":
		return gemini.NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return aiopenai.NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown ai module: %s", cfg.ModuleName)
	}
}

// CreateTranslator 按优先级组装机器翻译：腾讯云在前，AI 在后。
// 没有任何可用提供商时返回 translate.ErrNoProviders
func CreateTranslator(ctx context.Context, cfg *config.Config) (*translate.Manager, error) {
	var providers []translate.Translator

	if cfg.Tencent.SecretID != "" && cfg.Tencent.SecretKey != "" {
		client, err := tencent.NewClient(cfg.Tencent.SecretID, cfg.Tencent.SecretKey, cfg.Tencent.Region)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create tencent translator")
		} else {
			logger.Info().Msg("Creating tencent translator")
			providers = append(providers, translate.NewTencentTranslator(client))
		}
	}

	if cfg.AI.APIKey != "" {
		client, err := CreateAIClient(ctx, cfg.AI)
		if err != nil {
			logger.Warn().Err(err).Str("module", cfg.AI.ModuleName).Msg("Failed to create ai translator")
		} else {
			logger.Info().Str("module", client.Name()).Msg("Creating ai translator")
			providers = append(providers, translate.NewAITranslator(client))
		}
	}

	if len(providers) == 0 {
		return nil, translate.ErrNoProviders
	}
	return translate.NewManager(providers, translate.DefaultBreakerSettings()), nil
}

// New 根据配置创建服务。Redis 或翻译不可用时降级运行，返回的 cleanup 负责关闭连接
func New(ctx context.Context, cfg *config.Config) (*Service, func(), error) {
	var (
		caches  []Cache
		closers []func() error
	)

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redisKeyPrefix)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, continuing without it")
		} else {
			caches = append(caches, NewRedisCache(client, cfg.Redis.TTL))
			closers = append(closers, client.Close)
		}
	}

	if cfg.App.CacheDir != "" {
		disk, err := doccache.Open(cfg.App.CacheDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open cache dir: %w", err)
		}
		caches = append(caches, NewDiskCache(disk))
	}

	var translator translate.Translator
	if cfg.HasTranslator() {
		m, err := CreateTranslator(ctx, cfg)
		if err != nil {
			logger.Warn().Err(err).Msg("Machine translation disabled")
		} else {
			translator = m
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn().Err(err).Msg("Close failed")
			}
		}
	}
	return NewService(translator, cfg.Convert.BatchWorkers, caches...), cleanup, nil
}

// ParseLRCStrategy 解析 "first-is-main" / "all-are-main"
func ParseLRCStrategy(s string) (parser.LRCStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-is-main", "first":
		return parser.LRCFirstIsMain, nil
	case "all-are-main", "all":
		return parser.LRCAllAreMain, nil
	}
	return parser.LRCFirstIsMain, fmt.Errorf("unknown lrc strategy %q", s)
}

// RequestDefaults 用配置填充请求中与输出相关的默认值
func RequestDefaults(c config.ConvertConfig) (*Request, error) {
	target, err := lyric.ParseFormat(c.TargetFormat)
	if err != nil {
		return nil, err
	}
	timing, err := generator.ParseTimingMode(c.TimingMode)
	if err != nil {
		return nil, err
	}
	strategy, err := ParseLRCStrategy(c.LRCStrategy)
	if err != nil {
		return nil, err
	}
	conv, err := chinese.ParseConversion(c.ChineseConversion)
	if err != nil {
		return nil, err
	}
	return &Request{
		TargetFormat:        target,
		TranslationLanguage: c.TranslationLanguage,
		ToleranceMS:         c.MatchToleranceMS,
		ChineseConversion:   conv,
		LRCStrategy:         strategy,
		Strip: parser.StripOptions{
			Enabled:              c.StripCredits,
			Keywords:             c.CreditKeywords,
			KeywordCaseSensitive: c.CreditKeywordCaseSensitive,
			HeaderLines:          c.CreditHeaderLines,
			FooterLines:          c.CreditFooterLines,
			Patterns:             c.StripPatterns,
			PatternCaseSensitive: c.StripPatternCaseSensitive,
		},
		Options: generator.Options{
			TimingMode:          timing,
			AppleFormat:         c.AppleFormat,
			Indent:              c.Indent,
			AutoWordSplitting:   c.AutoWordSplitting,
			PunctuationWeight:   c.PunctuationWeight,
			MainLanguage:        c.MainLanguage,
			TranslationLanguage: c.TranslationLanguage,
		},
	}, nil
}
