package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// WebhookAdapter 通用 Webhook，把消息以 JSON 推给任意业务回调地址。
// 渠道配置：url、method（默认 POST）、headers（可选，键值对）。
type WebhookAdapter struct {
	client  *http.Client
	url     string
	method  string
	headers map[string]string
}

func NewWebhookAdapter(channel domain.Channel) (Adapter, error) {
	targetURL := channel.Config.Str("url")
	if targetURL == "" {
		return nil, fmt.Errorf("%w: 缺少 url", errs.ErrInvalidParameter)
	}
	method := channel.Config.Str("method")
	if method == "" {
		method = http.MethodPost
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if raw, ok := channel.Config["headers"].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}
	return &WebhookAdapter{
		client:  newHTTPClient(),
		url:     targetURL,
		method:  method,
		headers: headers,
	}, nil
}

type webhookPayload struct {
	Recipient    string            `json:"recipient"`
	TemplateCode string            `json:"templateCode"`
	Title        string            `json:"title,omitempty"`
	Content      string            `json:"content"`
	Params       map[string]string `json:"params,omitempty"`
}

func (w *WebhookAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	body, err := json.Marshal(webhookPayload{
		Recipient:    msg.Target,
		TemplateCode: msg.TemplateCode,
		Title:        msg.Title,
		Content:      msg.Content,
		Params:       msg.Params,
	})
	if err != nil {
		return domain.ProviderResult{}, err
	}
	// 2xx 即成功，响应体不做约定
	if err := doRequest(ctx, w.client, w.method, w.url, w.headers, body, nil); err != nil {
		return domain.ProviderResult{}, err
	}
	return domain.ProviderResult{}, nil
}
