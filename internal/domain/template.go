package domain

const (
	StatusEnabled  int8 = 1
	StatusDisabled int8 = 0
)

// MsgType 消息类型
type MsgType int8

const (
	MsgTypeNotification MsgType = 10 // 通知
	MsgTypeMarketing    MsgType = 20 // 营销
	MsgTypeVerification MsgType = 30 // 验证码
)

// DedupConfig 去重配置：interval 秒内同一（模板，接收者）最多允许 count 次发送
type DedupConfig struct {
	IntervalSeconds int64 `json:"interval"`
	Count           int   `json:"count"`
}

func (d *DedupConfig) Valid() bool {
	return d != nil && d.IntervalSeconds > 0 && d.Count > 0
}

// Template 消息模板
type Template struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Code         string       `json:"code"`         // 模板编码，业务方调用凭证
	AppID        int64        `json:"appId"`        // 关联应用ID，0 表示公共模板
	ChannelID    int64        `json:"channelId"`    // 关联渠道ID
	MsgType      MsgType      `json:"msgType"`      // 消息类型
	ThirdPartyID string       `json:"thirdPartyId"` // 第三方模板ID，如阿里云短信模板Code
	Title        string       `json:"title"`        // 标题，邮件/钉钉等渠道需要
	Content      string       `json:"content"`      // 内容模板，支持 ${var} 占位符
	Variables    []string     `json:"variables"`    // 声明的占位符名称
	Dedup        *DedupConfig `json:"dedup"`        // 去重配置，nil 表示不去重
	// 默认接收者，请求未指定接收者时回退使用
	RecipientGroupIDs []int64 `json:"recipientGroupIds"`
	RecipientIDs      []int64 `json:"recipientIds"`
	RateLimit         int     `json:"rateLimit"` // 每秒最大发送数，0或负数表示不限制
	Status            int8    `json:"status"`
	Ctime             int64   `json:"ctime"`
	Utime             int64   `json:"utime"`
}

func (t Template) Enabled() bool {
	return t.Status == StatusEnabled
}

func (t Template) RateLimited() bool {
	return t.RateLimit > 0
}
