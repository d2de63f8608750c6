package domain

import (
	"fmt"

	"go-unimessage/internal/errs"
)

// SendRequest 发送请求
type SendRequest struct {
	TemplateCode string            `json:"templateCode"` // 模板编码，必填
	Recipients   []string          `json:"recipients"`   // 手动指定的接收地址，空则回退到模板默认接收者
	Params       map[string]string `json:"params"`       // 模板参数
	BizID        string            `json:"bizId"`        // 业务唯一ID，用于请求幂等
	AppID        int64             `json:"appId"`        // 调用方应用ID，由接入层填充
}

func (r SendRequest) Validate() error {
	if r.TemplateCode == "" {
		return fmt.Errorf("%w: 模板编码", errs.ErrInvalidParameter)
	}
	for _, rec := range r.Recipients {
		if rec == "" {
			return fmt.Errorf("%w: 接收者地址为空", errs.ErrInvalidParameter)
		}
	}
	return nil
}

// SendResponse 发送受理结果
type SendResponse struct {
	BatchNo string `json:"batchNo"`
	// 受理人数与解析阶段被跳过的人数（无地址或去重拦截），跳过不产生 Detail
	TotalCount   int `json:"totalCount"`
	SkippedCount int `json:"skippedCount"`
}

// ChannelMessage 提交给渠道适配器的单条消息
type ChannelMessage struct {
	Target       string            `json:"target"`  // 解析后的接收地址
	Title        string            `json:"title"`   // 标题，部分渠道使用
	Content      string            `json:"content"` // 渲染后的内容
	TemplateID   string            `json:"templateId"`
	Params       map[string]string `json:"params"` // 模板参数，SDK 类渠道使用
	TemplateVars []string          `json:"templateVars"`
	TemplateCode string            `json:"templateCode"`
}

// ProviderResult 适配器发送成功后的回执
type ProviderResult struct {
	MsgID string `json:"msgId"` // 第三方消息ID，可为空
}
