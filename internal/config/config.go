package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"lyricconv/pkg/parser"
)

const (
	DefaultSocketPath    = "/tmp/lyricconv.sock"
	DefaultCheckInterval = 5 * time.Second
	DefaultTargetFormat  = "ttml"
	DefaultBatchWorkers  = 4
	DefaultRedisTTL      = 7 * 24 * time.Hour
)

// 可通过环境变量或 .env 提供的密钥
const (
	EnvAIAPIKey         = "LYRICS_AI_API_KEY"
	EnvTencentSecretID  = "TENCENT_SECRET_ID"
	EnvTencentSecretKey = "TENCENT_SECRET_KEY"
	EnvRedisPassword    = "LYRICS_REDIS_PASSWORD"
)

var logger = log.With().Str("component", "config").Logger()

func getDefaultCacheDir() string {
	// 优先使用 XDG_CACHE_HOME 环境变量
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lyrics")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lyrics_cache"
	}

	return filepath.Join(homeDir, ".cache", "lyrics")
}

// TomlConfig TOML配置文件结构
type TomlConfig struct {
	App struct {
		SocketPath    string `toml:"socket_path"`
		CheckInterval string `toml:"check_interval"`
		CacheDir      string `toml:"cache_dir"`
		LogLevel      string `toml:"log_level"`
	} `toml:"app"`

	Convert struct {
		TargetFormat        string  `toml:"target_format"`
		TimingMode          string  `toml:"timing_mode"`
		AutoWordSplitting   *bool   `toml:"auto_word_splitting"`
		PunctuationWeight   float64 `toml:"punctuation_weight"`
		AppleFormat         *bool   `toml:"apple_format"`
		Indent              *bool   `toml:"indent"`
		LRCStrategy         string  `toml:"lrc_strategy"`
		MatchToleranceMS    uint64  `toml:"match_tolerance_ms"`
		MainLanguage        string  `toml:"main_language"`
		TranslationLanguage string  `toml:"translation_language"`
		ChineseConversion   string  `toml:"chinese_conversion"`
		BatchWorkers        int     `toml:"batch_workers"`

		StripCredits               *bool    `toml:"strip_credits"`
		CreditKeywords             []string `toml:"credit_keywords"`
		CreditKeywordCaseSensitive *bool    `toml:"credit_keyword_case_sensitive"`
		CreditHeaderLines          int      `toml:"credit_header_lines"`
		CreditFooterLines          int      `toml:"credit_footer_lines"`
		StripPatterns              []string `toml:"strip_patterns"`
		StripPatternCaseSensitive  *bool    `toml:"strip_pattern_case_sensitive"`
	} `toml:"convert"`

	AI struct {
		ModuleName string `toml:"module_name"`
		Model      string `toml:"model"`
		APIKey     string `toml:"api_key"`
		BaseURL    string `toml:"base_url"` // for OpenAI
	} `toml:"ai"`

	Tencent struct {
		SecretID  string `toml:"secret_id"`
		SecretKey string `toml:"secret_key"`
		Region    string `toml:"region"`
	} `toml:"tencent"`

	Redis struct {
		Enabled  bool   `toml:"enabled"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		TTL      string `toml:"ttl"`
	} `toml:"redis"`
}

// AppConfig 应用配置
type AppConfig struct {
	SocketPath    string
	CheckInterval time.Duration
	CacheDir      string
	LogLevel      string
}

// ConvertConfig 转换默认选项，命令行参数可覆盖
type ConvertConfig struct {
	TargetFormat        string
	TimingMode          string
	AutoWordSplitting   bool
	PunctuationWeight   float64
	AppleFormat         bool
	Indent              bool
	LRCStrategy         string
	MatchToleranceMS    uint64
	MainLanguage        string
	TranslationLanguage string
	ChineseConversion   string
	BatchWorkers        int

	// 署名行清理
	StripCredits               bool
	CreditKeywords             []string
	CreditKeywordCaseSensitive bool
	CreditHeaderLines          int
	CreditFooterLines          int
	StripPatterns              []string
	StripPatternCaseSensitive  bool
}

// AIConfig AI配置
type AIConfig struct {
	ModuleName string
	Model      string
	APIKey     string
	BaseURL    string
}

// TencentConfig 腾讯云机器翻译
type TencentConfig struct {
	SecretID  string
	SecretKey string
	Region    string
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Config 主配置结构
type Config struct {
	App     AppConfig
	Convert ConvertConfig
	AI      AIConfig
	Tencent TencentConfig
	Redis   RedisConfig
}

// Default 不读取任何文件时的配置
func Default() *Config {
	return &Config{
		App: AppConfig{
			SocketPath:    DefaultSocketPath,
			CheckInterval: DefaultCheckInterval,
			CacheDir:      getDefaultCacheDir(),
			LogLevel:      "info",
		},
		Convert: ConvertConfig{
			TargetFormat:      DefaultTargetFormat,
			TimingMode:        "auto",
			PunctuationWeight: 0.3,
			Indent:            true,
			LRCStrategy:       "first-is-main",
			MatchToleranceMS:  15,
			BatchWorkers:      DefaultBatchWorkers,
			CreditKeywords:    parser.DefaultCreditKeywords,
			CreditHeaderLines: parser.DefaultHeaderScanLines,
			CreditFooterLines: parser.DefaultFooterScanLines,
		},
		AI: AIConfig{
			ModuleName: "gemini",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  DefaultRedisTTL,
		},
	}
}

// Path 获取配置文件路径
func Path() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyrics", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Warn().Err(err).Msg("Cannot get user home directory")
		return "config.toml"
	}

	return filepath.Join(homeDir, ".config", "lyrics", "config.toml")
}

// Load 从默认路径加载，失败时记录错误并使用默认配置
func Load() *Config {
	cfg, err := LoadFrom(Path())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load config file, using default configuration")
		cfg = Default()
		applyEnv(cfg)
	}
	return cfg
}

// LoadFrom 加载指定配置文件；文件不存在时返回默认配置。
// 同目录和当前目录下的 .env 会被读入环境变量，环境变量中的密钥优先于文件
func LoadFrom(path string) (*Config, error) {
	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")

	cfg := Default()
	var tc TomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		logger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else {
		logger.Info().Str("path", path).Msg("Loaded config")
		overlay(cfg, &tc)
	}
	applyEnv(cfg)
	return cfg, nil
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.Warn().Err(err).Str("path", p).Msg("Failed to load .env")
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v, name string) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().Str(name, v).Msg("Invalid duration format, using default")
		return
	}
	*dst = d
}

// overlay 非空的 TOML 值覆盖默认值
func overlay(cfg *Config, tc *TomlConfig) {
	setString(&cfg.App.SocketPath, tc.App.SocketPath)
	setDuration(&cfg.App.CheckInterval, tc.App.CheckInterval, "check_interval")
	setString(&cfg.App.CacheDir, tc.App.CacheDir)
	setString(&cfg.App.LogLevel, tc.App.LogLevel)

	c := &cfg.Convert
	setString(&c.TargetFormat, tc.Convert.TargetFormat)
	setString(&c.TimingMode, tc.Convert.TimingMode)
	setBool(&c.AutoWordSplitting, tc.Convert.AutoWordSplitting)
	if tc.Convert.PunctuationWeight > 0 {
		c.PunctuationWeight = tc.Convert.PunctuationWeight
	}
	setBool(&c.AppleFormat, tc.Convert.AppleFormat)
	setBool(&c.Indent, tc.Convert.Indent)
	setString(&c.LRCStrategy, tc.Convert.LRCStrategy)
	if tc.Convert.MatchToleranceMS > 0 {
		c.MatchToleranceMS = tc.Convert.MatchToleranceMS
	}
	setString(&c.MainLanguage, tc.Convert.MainLanguage)
	setString(&c.TranslationLanguage, tc.Convert.TranslationLanguage)
	setString(&c.ChineseConversion, tc.Convert.ChineseConversion)
	if tc.Convert.BatchWorkers > 0 {
		c.BatchWorkers = tc.Convert.BatchWorkers
	}
	setBool(&c.StripCredits, tc.Convert.StripCredits)
	if tc.Convert.CreditKeywords != nil {
		c.CreditKeywords = tc.Convert.CreditKeywords
	}
	setBool(&c.CreditKeywordCaseSensitive, tc.Convert.CreditKeywordCaseSensitive)
	if tc.Convert.CreditHeaderLines > 0 {
		c.CreditHeaderLines = tc.Convert.CreditHeaderLines
	}
	if tc.Convert.CreditFooterLines > 0 {
		c.CreditFooterLines = tc.Convert.CreditFooterLines
	}
	c.StripPatterns = append(c.StripPatterns, tc.Convert.StripPatterns...)
	setBool(&c.StripPatternCaseSensitive, tc.Convert.StripPatternCaseSensitive)

	setString(&cfg.AI.ModuleName, tc.AI.ModuleName)
	setString(&cfg.AI.Model, tc.AI.Model)
	setString(&cfg.AI.APIKey, tc.AI.APIKey)
	setString(&cfg.AI.BaseURL, tc.AI.BaseURL)

	setString(&cfg.Tencent.SecretID, tc.Tencent.SecretID)
	setString(&cfg.Tencent.SecretKey, tc.Tencent.SecretKey)
	setString(&cfg.Tencent.Region, tc.Tencent.Region)

	cfg.Redis.Enabled = tc.Redis.Enabled
	setString(&cfg.Redis.Addr, tc.Redis.Addr)
	setString(&cfg.Redis.Password, tc.Redis.Password)
	if tc.Redis.DB != 0 {
		cfg.Redis.DB = tc.Redis.DB
	}
	setDuration(&cfg.Redis.TTL, tc.Redis.TTL, "redis.ttl")
}

func applyEnv(cfg *Config) {
	setString(&cfg.AI.APIKey, os.Getenv(EnvAIAPIKey))
	setString(&cfg.Tencent.SecretID, os.Getenv(EnvTencentSecretID))
	setString(&cfg.Tencent.SecretKey, os.Getenv(EnvTencentSecretKey))
	setString(&cfg.Redis.Password, os.Getenv(EnvRedisPassword))
}

// HasTranslator 是否配置了任意机器翻译提供商
func (c *Config) HasTranslator() bool {
	return c.AI.APIKey != "" || (c.Tencent.SecretID != "" && c.Tencent.SecretKey != "")
}
