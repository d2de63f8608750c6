package domain

import (
	"strconv"
)

// ChannelType 渠道类型
type ChannelType string

const (
	ChannelSMS            ChannelType = "SMS"             // 阿里云短信
	ChannelEmail          ChannelType = "EMAIL"           // 邮件
	ChannelWechatOfficial ChannelType = "WECHAT_OFFICIAL" // 微信服务号
	ChannelWechatWork     ChannelType = "WECHAT_WORK"     // 企业微信
	ChannelDingTalk       ChannelType = "DINGTALK"        // 钉钉
	ChannelFeishu         ChannelType = "FEISHU"          // 飞书
	ChannelTelegram       ChannelType = "TELEGRAM"        // Telegram
	ChannelSlack          ChannelType = "SLACK"           // Slack
	ChannelTencentSMS     ChannelType = "TENCENT_SMS"     // 腾讯云短信
	ChannelTwilio         ChannelType = "TWILIO"          // Twilio 短信
	ChannelWebhook        ChannelType = "WEBHOOK"         // 通用 Webhook
)

// ChannelTypes 全部渠道类型，注册适配器时使用
var ChannelTypes = []ChannelType{
	ChannelSMS,
	ChannelEmail,
	ChannelWechatOfficial,
	ChannelWechatWork,
	ChannelDingTalk,
	ChannelFeishu,
	ChannelTelegram,
	ChannelSlack,
	ChannelTencentSMS,
	ChannelTwilio,
	ChannelWebhook,
}

func (c ChannelType) String() string {
	return string(c)
}

func (c ChannelType) IsValid() bool {
	for _, t := range ChannelTypes {
		if c == t {
			return true
		}
	}
	return false
}

// IsPhoneBased 按手机号寻址的渠道
func (c ChannelType) IsPhoneBased() bool {
	return c == ChannelSMS || c == ChannelTencentSMS || c == ChannelTwilio
}

// IsEmailBased 按邮箱寻址的渠道
func (c ChannelType) IsEmailBased() bool {
	return c == ChannelEmail
}

// ChannelConfig 渠道账号配置，来自 sys_channel 的配置 JSON
type ChannelConfig map[string]any

func (c ChannelConfig) Str(key string) string {
	v, ok := c[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func (c ChannelConfig) Int(key string) int {
	switch val := c[key].(type) {
	case float64:
		return int(val)
	case string:
		n, _ := strconv.Atoi(val)
		return n
	default:
		return 0
	}
}

func (c ChannelConfig) Bool(key string) bool {
	switch val := c[key].(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)
		return b
	default:
		return false
	}
}

// Channel 渠道实例，一个渠道绑定一种供应商账号
type Channel struct {
	ID       int64         `json:"id"`
	Name     string        `json:"name"`     // 渠道名称，如：阿里云短信-营销
	Type     ChannelType   `json:"type"`     // 渠道类型
	Provider string        `json:"provider"` // 供应商标签：ALIYUN、TENCENT、LOCAL_SMTP 等
	Config   ChannelConfig `json:"config"`   // 账号配置（AccessKey、Secret、Host 等）
	Status   int8          `json:"status"`   // 1启用 0禁用
	Ctime    int64         `json:"ctime"`
	Utime    int64         `json:"utime"`
}

func (c Channel) Enabled() bool {
	return c.Status == StatusEnabled
}
