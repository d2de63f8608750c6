package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// DingTalkAdapter 钉钉群机器人。
// 渠道配置：webhookUrl、secret（加签密钥，可选）。
// 接收地址是手机号，用于 @ 提醒。
type DingTalkAdapter struct {
	client     *http.Client
	webhookURL string
	secret     string
}

func NewDingTalkAdapter(channel domain.Channel) (Adapter, error) {
	webhookURL := channel.Config.Str("webhookUrl")
	if webhookURL == "" {
		return nil, fmt.Errorf("%w: 缺少 webhookUrl", errs.ErrInvalidParameter)
	}
	return &DingTalkAdapter{
		client:     newHTTPClient(),
		webhookURL: webhookURL,
		secret:     channel.Config.Str("secret"),
	}, nil
}

type dingTalkResp struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (d *DingTalkAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	target := d.webhookURL
	if d.secret != "" {
		target = d.signedURL(time.Now().UnixMilli())
	}
	content := msg.Content
	if msg.Title != "" {
		content = msg.Title + "\n" + msg.Content
	}
	payload := map[string]any{
		"msgtype": "text",
		"text": map[string]string{
			"content": content,
		},
	}
	if msg.Target != "" {
		payload["at"] = map[string]any{
			"atMobiles": []string{msg.Target},
		}
	}
	var resp dingTalkResp
	if err := postJSON(ctx, d.client, target, payload, &resp); err != nil {
		return domain.ProviderResult{}, err
	}
	if resp.ErrCode != 0 {
		return domain.ProviderResult{}, fmt.Errorf("%w: errcode=%d %s", errs.ErrProviderRejected, resp.ErrCode, resp.ErrMsg)
	}
	return domain.ProviderResult{}, nil
}

// signedURL 钉钉加签：HmacSHA256(timestamp + "\n" + secret)，Base64 后 URL 编码
func (d *DingTalkAdapter) signedURL(timestamp int64) string {
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, d.secret)
	h := hmac.New(sha256.New, []byte(d.secret))
	h.Write([]byte(stringToSign))
	sign := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s&timestamp=%d&sign=%s", d.webhookURL, timestamp, url.QueryEscape(sign))
}
