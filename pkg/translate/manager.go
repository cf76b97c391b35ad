package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

var logger = log.With().Str("component", "translate-manager").Logger()

// BreakerSettings 每个提供商一个熔断器
type BreakerSettings struct {
	// MaxFailures 连续失败多少次后熔断
	MaxFailures uint32
	// OpenTimeout 熔断后多久进入半开状态
	OpenTimeout time.Duration
}

// DefaultBreakerSettings 连续失败 3 次熔断 1 分钟
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MaxFailures: 3, OpenTimeout: time.Minute}
}

type guarded struct {
	Translator
	breaker *gobreaker.CircuitBreaker
}

// Manager 按顺序尝试提供商，失败时回退到下一个
type Manager struct {
	providers []guarded
}

var _ Translator = (*Manager)(nil)

// NewManager 第一个提供商为主提供商
func NewManager(providers []Translator, settings BreakerSettings) *Manager {
	if len(providers) == 0 {
		logger.Warn().Msg("No translation providers configured")
		return &Manager{}
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = DefaultBreakerSettings().MaxFailures
	}

	m := &Manager{providers: make([]guarded, 0, len(providers))}
	for _, p := range providers {
		maxFailures := settings.MaxFailures
		m.providers = append(m.providers, guarded{
			Translator: p,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    p.Name(),
				Timeout: settings.OpenTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= maxFailures
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					logger.Warn().
						Str("provider", name).
						Str("from", from.String()).
						Str("to", to.String()).
						Msg("Circuit breaker state changed")
				},
			}),
		})
	}
	logger.Info().
		Int("provider_count", len(providers)).
		Str("primary_provider", providers[0].Name()).
		Msg("Translation manager initialized")
	return m
}

// Translate 返回第一个成功的提供商的结果
func (m *Manager) Translate(ctx context.Context, lines []string, source, target string) ([]string, error) {
	if len(m.providers) == 0 {
		return nil, ErrNoProviders
	}

	var lastErr error
	for i, p := range m.providers {
		logger.Info().
			Str("provider", p.Name()).
			Int("attempt", i+1).
			Int("total_providers", len(m.providers)).
			Int("lines", len(lines)).
			Msg("Trying provider")

		res, err := p.breaker.Execute(func() (interface{}, error) {
			out, err := p.Translate(ctx, lines, source, target)
			if err != nil {
				return nil, err
			}
			if len(out) != len(lines) {
				return nil, &LineCountError{Provider: p.Name(), Want: len(lines), Got: len(out)}
			}
			return out, nil
		})
		if err == nil {
			logger.Info().Str("provider", p.Name()).Msg("Successfully translated")
			return res.([]string), nil
		}

		logger.Warn().
			Str("provider", p.Name()).
			Err(err).
			Msg("Provider failed")
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("all providers failed, last error: %w", lastErr)
}

// Name 实现 Translator
func (m *Manager) Name() string {
	if len(m.providers) > 0 {
		return fmt.Sprintf("Manager[Primary: %s]", m.providers[0].Name())
	}
	return "Manager[No Providers]"
}

// ProviderNames 所有提供商名称，按尝试顺序
func (m *Manager) ProviderNames() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}

// BreakerState 提供商熔断器当前状态，未知提供商返回 false
func (m *Manager) BreakerState(name string) (gobreaker.State, bool) {
	for _, p := range m.providers {
		if p.Name() == name {
			return p.breaker.State(), true
		}
	}
	return gobreaker.StateClosed, false
}
