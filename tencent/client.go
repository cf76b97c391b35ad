package tencent

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/regions"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"
)

// DefaultRegion 未配置地域时使用
const DefaultRegion = regions.Guangzhou

var logger = log.With().Str("component", "tencent-tmt").Logger()

// Client 腾讯云机器翻译
type Client interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
	TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error)
}

type ClientImpl struct {
	tmtClient *tmt.Client
	projectID int64
}

func NewClient(secretID, secretKey, region string) (*ClientImpl, error) {
	if secretID == "" || secretKey == "" {
		return nil, errors.New("tencent: secret id/key not configured")
	}
	if region == "" {
		region = DefaultRegion
	}
	credential := common.NewCredential(secretID, secretKey)

	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqMethod = "POST"
	cpf.HttpProfile.ReqTimeout = 10
	cpf.HttpProfile.Endpoint = "tmt.tencentcloudapi.com"

	tmtClient, err := tmt.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("new tencent tmt client: %w", err)
	}
	return &ClientImpl{tmtClient: tmtClient}, nil
}

// DetectLanguage 返回 zh、en、ja 等语言代码
func (c *ClientImpl) DetectLanguage(ctx context.Context, text string) (string, error) {
	request := tmt.NewLanguageDetectRequest()
	request.Text = common.StringPtr(text)
	request.ProjectId = common.Int64Ptr(c.projectID)
	response, err := c.tmtClient.LanguageDetectWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("tencent language detect: %w", err)
	}
	if response.Response == nil || response.Response.Lang == nil {
		return "", errors.New("tencent language detect: empty response")
	}
	return *response.Response.Lang, nil
}

// TranslateBatch source 可以为 "auto"，返回结果与 texts 一一对应
func (c *ClientImpl) TranslateBatch(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if source == "" {
		source = "auto"
	}
	request := tmt.NewTextTranslateBatchRequest()
	request.Source = common.StringPtr(source)
	request.Target = common.StringPtr(target)
	request.ProjectId = common.Int64Ptr(c.projectID)
	request.SourceTextList = common.StringPtrs(texts)

	response, err := c.tmtClient.TextTranslateBatchWithContext(ctx, request)
	if err != nil {
		logger.Error().Err(err).Int("lines", len(texts)).Msg("failed to send request")
		return nil, fmt.Errorf("tencent translate: %w", err)
	}
	if response.Response == nil {
		return nil, errors.New("tencent translate: empty response")
	}
	out := make([]string, 0, len(response.Response.TargetTextList))
	for _, t := range response.Response.TargetTextList {
		if t == nil {
			out = append(out, "")
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}
