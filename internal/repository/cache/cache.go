package cache

import (
	"errors"
	"fmt"
	"time"
)

var ErrKeyNotFound = errors.New("缓存中未找到 key")

// DefaultExpiredTime 模板和渠道配置变更不频繁，本地缓存几分钟足够
const DefaultExpiredTime = time.Minute * 10

func TemplateKey(id int64) string {
	return fmt.Sprintf("template:%d", id)
}

func TemplateCodeKey(code string) string {
	return fmt.Sprintf("template:code:%s", code)
}

func ChannelKey(id int64) string {
	return fmt.Sprintf("channel:%d", id)
}
