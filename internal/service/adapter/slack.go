package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// SlackAdapter Slack Incoming Webhook。
// 渠道配置：webhookUrl。Webhook 绑定频道，接收地址仅用于 @ 提醒。
type SlackAdapter struct {
	client     *http.Client
	webhookURL string
}

func NewSlackAdapter(channel domain.Channel) (Adapter, error) {
	webhookURL := channel.Config.Str("webhookUrl")
	if webhookURL == "" {
		return nil, fmt.Errorf("%w: 缺少 webhookUrl", errs.ErrInvalidParameter)
	}
	return &SlackAdapter{client: newHTTPClient(), webhookURL: webhookURL}, nil
}

func (s *SlackAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	text := msg.Content
	if msg.Target != "" {
		text = fmt.Sprintf("<@%s> %s", msg.Target, msg.Content)
	}
	var raw []byte
	if err := postJSON(ctx, s.client, s.webhookURL, map[string]any{"text": text}, &raw); err != nil {
		return domain.ProviderResult{}, err
	}
	// Incoming Webhook 成功时返回字面量 ok
	if !strings.EqualFold(strings.TrimSpace(string(raw)), "ok") {
		return domain.ProviderResult{}, fmt.Errorf("%w: %s", errs.ErrProviderRejected, raw)
	}
	return domain.ProviderResult{}, nil
}
