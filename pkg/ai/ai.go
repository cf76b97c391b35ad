package ai

import "context"

// Client 大模型文本接口
type Client interface {
	Name() string
	HandleText(ctx context.Context, prompt string) (string, error)
}

// MaxRetries 单次请求失败后的最大尝试次数
const MaxRetries = 3
