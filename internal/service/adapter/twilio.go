package adapter

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

const twilioBaseURL = "https://api.twilio.com"

// TwilioAdapter Twilio 短信，走 REST API。
// 渠道配置：accountSid、authToken、fromPhone。
type TwilioAdapter struct {
	client     *http.Client
	accountSid string
	authToken  string
	fromPhone  string
	baseURL    string
}

func NewTwilioAdapter(channel domain.Channel) (Adapter, error) {
	accountSid := channel.Config.Str("accountSid")
	authToken := channel.Config.Str("authToken")
	fromPhone := channel.Config.Str("fromPhone")
	if accountSid == "" || authToken == "" || fromPhone == "" {
		return nil, fmt.Errorf("%w: 缺少 accountSid/authToken/fromPhone", errs.ErrInvalidParameter)
	}
	return &TwilioAdapter{
		client:     newHTTPClient(),
		accountSid: accountSid,
		authToken:  authToken,
		fromPhone:  fromPhone,
		baseURL:    twilioBaseURL,
	}, nil
}

type twilioResp struct {
	Sid          string `json:"sid"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (t *TwilioAdapter) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	// https://www.twilio.com/docs/sms/api/message-resource
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSid)
	form := url.Values{}
	form.Set("To", msg.Target)
	form.Set("From", t.fromPhone)
	form.Set("Body", msg.Content)

	auth := base64.StdEncoding.EncodeToString([]byte(t.accountSid + ":" + t.authToken))
	headers := map[string]string{
		"Content-Type":  "application/x-www-form-urlencoded",
		"Authorization": "Basic " + auth,
	}
	var resp twilioResp
	if err := doRequest(ctx, t.client, http.MethodPost, endpoint, headers, []byte(form.Encode()), &resp); err != nil {
		return domain.ProviderResult{}, err
	}
	if resp.ErrorCode != nil {
		return domain.ProviderResult{}, fmt.Errorf("%w: error_code=%d %s",
			errs.ErrProviderRejected, *resp.ErrorCode, resp.ErrorMessage)
	}
	return domain.ProviderResult{MsgID: resp.Sid}, nil
}
