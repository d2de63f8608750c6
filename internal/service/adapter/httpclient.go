package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go-unimessage/internal/errs"
)

const maxRespBodySize = 1 << 20

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// postJSON 发送 JSON 请求并读回响应体。
// 网络层错误归类为 ErrUnreachable，4xx/5xx 归类为 ErrProviderRejected。
func postJSON(ctx context.Context, client *http.Client, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return doRequest(ctx, client, http.MethodPost, url, map[string]string{"Content-Type": "application/json"}, body, out)
}

func doRequest(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxRespBodySize))
	if err != nil {
		return fmt.Errorf("%w: 读取响应失败: %w", errs.ErrUnreachable, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d: %s", errs.ErrProviderAuth, resp.StatusCode, respBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d: %s", errs.ErrProviderRejected, resp.StatusCode, respBody)
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = respBody
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: 响应不是合法 JSON: %s", errs.ErrProviderRejected, respBody)
	}
	return nil
}
