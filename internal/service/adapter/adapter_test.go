package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/logger"
)

func TestRegistry_UnknownType(t *testing.T) {
	t.Parallel()
	r := NewRegistry(logger.NewNopLogger())
	_, err := r.Get(domain.Channel{ID: 1, Type: domain.ChannelType("PIGEON")})
	assert.ErrorIs(t, err, errs.ErrUnknownChannel)
}

func TestRegistry_CacheByUtime(t *testing.T) {
	t.Parallel()
	r := NewRegistry(logger.NewNopLogger())
	var built int
	r.Register(domain.ChannelWebhook, func(channel domain.Channel) (Adapter, error) {
		built++
		return NewWebhookAdapter(channel)
	})
	channel := domain.Channel{
		ID:     7,
		Type:   domain.ChannelWebhook,
		Config: domain.ChannelConfig{"url": "http://example.com/hook"},
		Utime:  100,
	}
	_, err := r.Get(channel)
	require.NoError(t, err)
	_, err = r.Get(channel)
	require.NoError(t, err)
	assert.Equal(t, 1, built)

	// 配置变更后重建
	channel.Utime = 200
	_, err = r.Get(channel)
	require.NoError(t, err)
	assert.Equal(t, 2, built)
}

func TestRegistry_AllTypesRegistered(t *testing.T) {
	t.Parallel()
	r := NewRegistry(logger.NewNopLogger())
	for _, typ := range domain.ChannelTypes {
		_, ok := r.builders[typ]
		assert.True(t, ok, "渠道类型 %s 未注册", typ)
	}
}

func TestTelegramAdapter_Send(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "chat123", body["chat_id"])
		assert.Equal(t, "你好", body["text"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": map[string]any{"message_id": 42},
		})
	}))
	defer srv.Close()

	a := &TelegramAdapter{client: srv.Client(), botToken: "token", baseURL: srv.URL}
	res, err := a.Send(context.Background(), domain.ChannelMessage{Target: "chat123", Content: "你好"})
	require.NoError(t, err)
	assert.Equal(t, "42", res.MsgID)
}

func TestFeishuAdapter_Send(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		resp    feishuResp
		wantErr error
	}{
		{name: "成功", resp: feishuResp{Code: 0}},
		{name: "被拒绝", resp: feishuResp{Code: 19001, Msg: "param invalid"}, wantErr: errs.ErrProviderRejected},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				_ = json.NewEncoder(w).Encode(tc.resp)
			}))
			defer srv.Close()
			a := &FeishuAdapter{client: srv.Client(), webhookURL: srv.URL}
			_, err := a.Send(context.Background(), domain.ChannelMessage{Target: "u1", Content: "内容"})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSlackAdapter_Send(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		assert.Contains(t, string(body), "<@U123>")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	a := &SlackAdapter{client: srv.Client(), webhookURL: srv.URL}
	_, err := a.Send(context.Background(), domain.ChannelMessage{Target: "U123", Content: "部署完成"})
	assert.NoError(t, err)
}

func TestWebhookAdapter_Send(t *testing.T) {
	t.Parallel()
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "secret-token", req.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a, err := NewWebhookAdapter(domain.Channel{
		Type: domain.ChannelWebhook,
		Config: domain.ChannelConfig{
			"url":     srv.URL,
			"headers": map[string]any{"X-Api-Key": "secret-token"},
		},
	})
	require.NoError(t, err)
	_, err = a.Send(context.Background(), domain.ChannelMessage{
		Target:       "user-1",
		TemplateCode: "ORDER_SHIPPED",
		Content:      "订单已发货",
		Params:       map[string]string{"orderNo": "A001"},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.Recipient)
	assert.Equal(t, "ORDER_SHIPPED", got.TemplateCode)
	assert.Equal(t, "订单已发货", got.Content)
}

func TestWebhookAdapter_RejectedAndAuth(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "服务端报错", status: http.StatusInternalServerError, wantErr: errs.ErrProviderRejected},
		{name: "认证失败", status: http.StatusUnauthorized, wantErr: errs.ErrProviderAuth},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()
			a, err := NewWebhookAdapter(domain.Channel{
				Type:   domain.ChannelWebhook,
				Config: domain.ChannelConfig{"url": srv.URL},
			})
			require.NoError(t, err)
			_, err = a.Send(context.Background(), domain.ChannelMessage{Target: "u", Content: "c"})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestTwilioAdapter_ParseForm(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, req.ParseForm())
		assert.Equal(t, "+15551234567", req.PostForm.Get("To"))
		assert.Equal(t, "+15550000000", req.PostForm.Get("From"))
		assert.NotEmpty(t, req.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"sid": "SM123"})
	}))
	defer srv.Close()

	a := &TwilioAdapter{
		client:     srv.Client(),
		accountSid: "AC1",
		authToken:  "tok",
		fromPhone:  "+15550000000",
		baseURL:    srv.URL,
	}
	res, err := a.Send(context.Background(), domain.ChannelMessage{Target: "+15551234567", Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "SM123", res.MsgID)
}

func TestDingTalkAdapter_SignedURL(t *testing.T) {
	t.Parallel()
	a := &DingTalkAdapter{webhookURL: "https://oapi.dingtalk.com/robot/send?access_token=abc", secret: "SEC000"}
	signed := a.signedURL(1700000000000)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "1700000000000", q.Get("timestamp"))
	assert.NotEmpty(t, q.Get("sign"))
	// 同一时间戳签名必须稳定
	assert.Equal(t, signed, a.signedURL(1700000000000))
}

func TestTimeoutAdapter(t *testing.T) {
	t.Parallel()
	slow := adapterFunc(func(ctx context.Context, _ domain.ChannelMessage) (domain.ProviderResult, error) {
		select {
		case <-ctx.Done():
			return domain.ProviderResult{}, ctx.Err()
		case <-time.After(time.Second):
			return domain.ProviderResult{}, nil
		}
	})
	a := newTimeoutAdapter(slow, 10*time.Millisecond)
	_, err := a.Send(context.Background(), domain.ChannelMessage{})
	assert.ErrorIs(t, err, errs.ErrSendTimeout)
}

type adapterFunc func(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error)

func (f adapterFunc) Send(ctx context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	return f(ctx, msg)
}
