package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramAdapter Telegram Bot。
// 渠道配置：botToken。接收地址是 chat_id。
type TelegramAdapter struct {
	client   *http.Client
	botToken string
	baseURL  string
}

func NewTelegramAdapter(channel domain.Channel) (Adapter, error) {
	botToken := channel.Config.Str("botToken")
	if botToken == "" {
		return nil, fmt.Errorf("%w: 缺少 botToken", errs.ErrInvalidParameter)
	}
	return &TelegramAdapter{client: newHTTPClient(), botToken: botToken, baseURL: telegramBaseURL}, nil
}

type telegramResp struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (t *TelegramAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	payload := map[string]any{
		"chat_id": msg.Target,
		"text":    msg.Content,
	}
	var resp telegramResp
	if err := postJSON(ctx, t.client, url, payload, &resp); err != nil {
		return domain.ProviderResult{}, err
	}
	if !resp.OK {
		return domain.ProviderResult{}, fmt.Errorf("%w: %s", errs.ErrProviderRejected, resp.Description)
	}
	return domain.ProviderResult{MsgID: strconv.FormatInt(resp.Result.MessageID, 10)}, nil
}
