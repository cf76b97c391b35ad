// Package lyrics 串联解析、合并、翻译、简繁转换与生成的转换服务
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"lyricconv/internal/config"
	"lyricconv/pkg/chinese"
	"lyricconv/pkg/generator"
	"lyricconv/pkg/lyric"
	"lyricconv/pkg/merger"
	"lyricconv/pkg/metadata"
	"lyricconv/pkg/parser"
	"lyricconv/pkg/translate"
)

var logger = log.With().Str("component", "lyrics-service").Logger()

// ErrEmptyInput 主歌词为空
var ErrEmptyInput = errors.New("empty lyric input")

// Request 一次转换请求。文本已解码为 UTF-8
type Request struct {
	// Name 仅用于日志
	Name  string
	Input string
	// SourceFormat 为空时自动识别
	SourceFormat lyric.Format
	TargetFormat lyric.Format

	Translation         string
	TranslationFormat   lyric.Format
	TranslationLanguage string
	Romanization        string
	RomanizationFormat  lyric.Format
	ToleranceMS         uint64

	// Metadata 解析结果缺少的键使用这些值
	Metadata map[string][]string

	// MachineTranslateTo 非空时对缺少该语言翻译的行调用机器翻译
	MachineTranslateTo string
	SourceLanguage     string

	ChineseConversion chinese.Conversion
	ChineseTarget     chinese.Target

	LRCStrategy parser.LRCStrategy
	// Strip 合并之后移除署名行
	Strip   parser.StripOptions
	Options generator.Options

	NoCache bool
}

// Result 转换结果；命中缓存时 Document 为空
type Result struct {
	Name     string
	Output   string
	Document *lyric.Document
	Warnings []string
	Key      string
	Cached   bool
}

// Service 转换服务
type Service struct {
	translator translate.Translator
	caches     []Cache
	workers    int
}

// NewService translator 可以为 nil，此时机器翻译请求只产生警告
func NewService(translator translate.Translator, workers int, caches ...Cache) *Service {
	if workers <= 0 {
		workers = config.DefaultBatchWorkers
	}
	return &Service{translator: translator, caches: caches, workers: workers}
}

// Translator 当前使用的机器翻译
func (s *Service) Translator() translate.Translator {
	return s.translator
}

// Convert 执行一次完整转换
func (s *Service) Convert(ctx context.Context, req *Request) (*Result, error) {
	if req.Input == "" {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	key := CacheKey(req)
	res := &Result{Name: req.Name, Key: key}

	if !req.NoCache {
		if out, ok := s.lookup(ctx, key, req); ok {
			logger.Debug().Str("name", req.Name).Str("key", key).Msg("Cache hit")
			res.Output = out
			res.Cached = true
			return res, nil
		}
	}

	doc, err := s.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := generator.Generate(doc, req.TargetFormat, req.Options)
	if err != nil {
		return nil, err
	}
	res.Output = out
	res.Document = doc
	res.Warnings = doc.Warnings

	if !req.NoCache {
		s.store(ctx, key, req, out)
	}
	logger.Info().
		Str("name", req.Name).
		Str("from", string(doc.SourceFormat)).
		Str("to", string(req.TargetFormat)).
		Int("lines", len(doc.Lines)).
		Int("warnings", len(doc.Warnings)).
		Dur("took", time.Since(start)).
		Msg("Converted")
	return res, nil
}

// Build 解析主歌词并应用合并、翻译与转换，不生成输出
func (s *Service) Build(ctx context.Context, req *Request) (*lyric.Document, error) {
	format := req.SourceFormat
	if format == "" {
		format = parser.Detect(req.Input)
		logger.Debug().Str("name", req.Name).Str("format", string(format)).Msg("Detected source format")
	}
	doc, err := parser.Parse(format, req.Input, parser.WithLRCStrategy(req.LRCStrategy))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	seedMetadata(doc, req.Metadata)

	if req.Translation != "" {
		merger.Merge(doc, req.Translation, merger.Translation, merger.Source{
			Format:      req.TranslationFormat,
			Language:    req.TranslationLanguage,
			ToleranceMS: req.ToleranceMS,
		})
	}
	if req.Romanization != "" {
		merger.Merge(doc, req.Romanization, merger.Romanization, merger.Source{
			Format:      req.RomanizationFormat,
			ToleranceMS: req.ToleranceMS,
		})
	}

	if n := parser.StripCredits(doc, req.Strip); n > 0 {
		logger.Debug().Str("name", req.Name).Int("lines", n).Msg("Stripped credit lines")
	}

	if req.MachineTranslateTo != "" {
		s.machineTranslate(ctx, doc, req)
	}

	if req.ChineseConversion != chinese.None {
		if err := chinese.ConvertDocument(doc, req.ChineseConversion, req.ChineseTarget); err != nil {
			doc.Warnf("chinese conversion skipped: %v", err)
		}
	}
	return doc, nil
}

func (s *Service) machineTranslate(ctx context.Context, doc *lyric.Document, req *Request) {
	if s.translator == nil {
		doc.Warnf("machine translation requested but no translator is configured")
		return
	}
	err := translate.Document(ctx, s.translator, doc, req.SourceLanguage, req.MachineTranslateTo)
	if err != nil {
		logger.Warn().Err(err).Str("name", req.Name).Str("translator", s.translator.Name()).Msg("Machine translation failed")
		doc.Warnf("machine translation failed: %v", err)
	}
}

// seedMetadata 只填充文档中没有的键
func seedMetadata(doc *lyric.Document, seed map[string][]string) {
	if len(seed) == 0 {
		return
	}
	existing := metadata.FromRaw(doc.Metadata)
	for raw, values := range seed {
		if len(existing.GetAll(metadata.ParseKey(raw))) > 0 {
			continue
		}
		for _, v := range values {
			doc.AddMetadata(raw, v)
		}
	}
}

// lookup 依次查询缓存，命中后回填之前未命中的层
func (s *Service) lookup(ctx context.Context, key string, req *Request) (string, bool) {
	for i, c := range s.caches {
		out, ok, err := c.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("cache", c.Name()).Msg("Cache read failed")
			continue
		}
		if !ok {
			continue
		}
		for _, prev := range s.caches[:i] {
			if err := prev.Set(ctx, key, req, out); err != nil {
				logger.Warn().Err(err).Str("cache", prev.Name()).Msg("Cache backfill failed")
			}
		}
		return out, true
	}
	return "", false
}

func (s *Service) store(ctx context.Context, key string, req *Request, out string) {
	for _, c := range s.caches {
		if err := c.Set(ctx, key, req, out); err != nil {
			logger.Warn().Err(err).Str("cache", c.Name()).Msg("Cache write failed")
		}
	}
}

// BatchResult 批量转换中的一项
type BatchResult struct {
	*Result
	Err error
}

// ConvertBatch 并发转换，单项失败不影响其他项。结果顺序与请求一致
func (s *Service) ConvertBatch(ctx context.Context, reqs []*Request) ([]BatchResult, error) {
	results := make([]BatchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			res, err := s.Convert(gctx, req)
			if err != nil {
				logger.Error().Err(err).Str("name", req.Name).Msg("Conversion failed")
			}
			results[i] = BatchResult{Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
