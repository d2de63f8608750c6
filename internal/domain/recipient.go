package domain

// Recipient 接收者，按渠道类型持有不同的寻址方式
type Recipient struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
	// 各渠道外部用户ID，key 为渠道类型
	// 形如 {"WECHAT_OFFICIAL": "openid", "DINGTALK": "userid"}
	UserIDs map[string]string `json:"userIds"`
	Status  int8              `json:"status"`
	Ctime   int64             `json:"ctime"`
	Utime   int64             `json:"utime"`
}

// Address 取出该渠道类型对应的地址。
// 短信类渠道取手机号，邮件渠道取邮箱，IM/Webhook 类渠道取渠道外部用户ID，
// 没有外部用户ID时回退到手机号。没有可用地址时返回 false。
func (r Recipient) Address(typ ChannelType) (string, bool) {
	var addr string
	switch {
	case typ.IsPhoneBased():
		addr = r.Mobile
	case typ.IsEmailBased():
		addr = r.Email
	default:
		addr = r.UserIDs[typ.String()]
		if addr == "" {
			addr = r.Mobile
		}
	}
	return addr, addr != ""
}

// RecipientGroup 接收者分组
type RecipientGroup struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	RecipientIDs []int64 `json:"recipientIds"`
	Status       int8    `json:"status"`
	Ctime        int64   `json:"ctime"`
	Utime        int64   `json:"utime"`
}

// ResolvedRecipient 解析后的接收者，地址已按渠道类型落定
type ResolvedRecipient struct {
	RecipientID int64  `json:"recipientId"` // 手动指定地址时为 0
	Name        string `json:"name"`
	Address     string `json:"address"`
}
