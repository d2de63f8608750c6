package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// WechatWorkAdapter 企业微信应用消息。
// 渠道配置：corpId、corpSecret、agentId。接收地址是企业内成员 UserID。
type WechatWorkAdapter struct {
	client  *http.Client
	agentID int
	token   *accessToken
}

func NewWechatWorkAdapter(channel domain.Channel) (Adapter, error) {
	corpID := channel.Config.Str("corpId")
	corpSecret := channel.Config.Str("corpSecret")
	agentID := channel.Config.Int("agentId")
	if corpID == "" || corpSecret == "" || agentID == 0 {
		return nil, fmt.Errorf("%w: 缺少 corpId/corpSecret/agentId", errs.ErrInvalidParameter)
	}
	a := &WechatWorkAdapter{client: newHTTPClient(), agentID: agentID}
	a.token = &accessToken{fetch: func(ctx context.Context) (string, int, error) {
		return fetchWechatToken(ctx, a.client, fmt.Sprintf(
			"https://qyapi.weixin.qq.com/cgi-bin/gettoken?corpid=%s&corpsecret=%s",
			url.QueryEscape(corpID), url.QueryEscape(corpSecret)))
	}}
	return a, nil
}

type wechatWorkSendResp struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	MsgID   string `json:"msgid"`
}

func (w *WechatWorkAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	token, err := w.token.get(ctx)
	if err != nil {
		return domain.ProviderResult{}, err
	}
	// https://developer.work.weixin.qq.com/document/path/90236
	content := msg.Content
	if msg.Title != "" {
		content = msg.Title + "\n" + msg.Content
	}
	payload := map[string]any{
		"touser":  msg.Target,
		"msgtype": "text",
		"agentid": w.agentID,
		"text": map[string]string{
			"content": content,
		},
	}
	sendURL := "https://qyapi.weixin.qq.com/cgi-bin/message/send?access_token=" + url.QueryEscape(token)
	var resp wechatWorkSendResp
	if err := postJSON(ctx, w.client, sendURL, payload, &resp); err != nil {
		return domain.ProviderResult{}, err
	}
	if resp.ErrCode != 0 {
		return domain.ProviderResult{}, fmt.Errorf("%w: errcode=%d %s", errs.ErrProviderRejected, resp.ErrCode, resp.ErrMsg)
	}
	return domain.ProviderResult{MsgID: resp.MsgID}, nil
}
