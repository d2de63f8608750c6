package adapter

import (
	"context"
	"fmt"
	"net/http"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// FeishuAdapter 飞书群机器人。
// 渠道配置：webhookUrl。
type FeishuAdapter struct {
	client     *http.Client
	webhookURL string
}

func NewFeishuAdapter(channel domain.Channel) (Adapter, error) {
	webhookURL := channel.Config.Str("webhookUrl")
	if webhookURL == "" {
		return nil, fmt.Errorf("%w: 缺少 webhookUrl", errs.ErrInvalidParameter)
	}
	return &FeishuAdapter{client: newHTTPClient(), webhookURL: webhookURL}, nil
}

type feishuResp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (f *FeishuAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	payload := map[string]any{
		"msg_type": "text",
		"content": map[string]string{
			"text": msg.Content,
		},
	}
	var resp feishuResp
	if err := postJSON(ctx, f.client, f.webhookURL, payload, &resp); err != nil {
		return domain.ProviderResult{}, err
	}
	if resp.Code != 0 {
		return domain.ProviderResult{}, fmt.Errorf("%w: code=%d %s", errs.ErrProviderRejected, resp.Code, resp.Msg)
	}
	return domain.ProviderResult{}, nil
}
