package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// accessToken 微信系 access_token 的进程内缓存，过期前 60 秒刷新
type accessToken struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	fetch   func(ctx context.Context) (string, int, error)
}

func (a *accessToken) get(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && time.Now().Before(a.expires) {
		return a.token, nil
	}
	token, expiresIn, err := a.fetch(ctx)
	if err != nil {
		return "", err
	}
	a.token = token
	a.expires = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	return token, nil
}

// WechatOfficialAdapter 微信服务号模板消息。
// 渠道配置：appId、appSecret、redirectUrl（可选，点击消息跳转）。
// 接收地址是用户 OpenID，内容由微信侧按第三方模板渲染，这里只传变量。
type WechatOfficialAdapter struct {
	client      *http.Client
	redirectURL string
	token       *accessToken
}

func NewWechatOfficialAdapter(channel domain.Channel) (Adapter, error) {
	appID := channel.Config.Str("appId")
	appSecret := channel.Config.Str("appSecret")
	if appID == "" || appSecret == "" {
		return nil, fmt.Errorf("%w: 缺少 appId/appSecret", errs.ErrInvalidParameter)
	}
	a := &WechatOfficialAdapter{
		client:      newHTTPClient(),
		redirectURL: channel.Config.Str("redirectUrl"),
	}
	a.token = &accessToken{fetch: func(ctx context.Context) (string, int, error) {
		return fetchWechatToken(ctx, a.client, fmt.Sprintf(
			"https://api.weixin.qq.com/cgi-bin/token?grant_type=client_credential&appid=%s&secret=%s",
			url.QueryEscape(appID), url.QueryEscape(appSecret)))
	}}
	return a, nil
}

type wechatTokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
}

func fetchWechatToken(ctx context.Context, client *http.Client, tokenURL string) (string, int, error) {
	var resp wechatTokenResp
	if err := doRequest(ctx, client, http.MethodGet, tokenURL, nil, nil, &resp); err != nil {
		return "", 0, err
	}
	if resp.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: errcode=%d %s", errs.ErrProviderAuth, resp.ErrCode, resp.ErrMsg)
	}
	return resp.AccessToken, resp.ExpiresIn, nil
}

type wechatSendResp struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
	MsgID   int64  `json:"msgid"`
}

func (w *WechatOfficialAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	token, err := w.token.get(ctx)
	if err != nil {
		return domain.ProviderResult{}, err
	}
	// https://developers.weixin.qq.com/doc/offiaccount/Message_Management/Template_Message_Interface.html
	data := make(map[string]map[string]string, len(msg.TemplateVars))
	for _, name := range msg.TemplateVars {
		data[name] = map[string]string{"value": msg.Params[name]}
	}
	payload := map[string]any{
		"touser":      msg.Target,
		"template_id": msg.TemplateID,
		"data":        data,
	}
	if w.redirectURL != "" {
		payload["url"] = w.redirectURL
	}
	sendURL := "https://api.weixin.qq.com/cgi-bin/message/template/send?access_token=" + url.QueryEscape(token)
	var resp wechatSendResp
	if err := postJSON(ctx, w.client, sendURL, payload, &resp); err != nil {
		return domain.ProviderResult{}, err
	}
	if resp.ErrCode != 0 {
		return domain.ProviderResult{}, fmt.Errorf("%w: errcode=%d %s", errs.ErrProviderRejected, resp.ErrCode, resp.ErrMsg)
	}
	return domain.ProviderResult{MsgID: strconv.FormatInt(resp.MsgID, 10)}, nil
}
