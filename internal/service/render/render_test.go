package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-unimessage/internal/pkg/logger"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()
	r := NewRenderer(logger.NewNopLogger())
	testCases := []struct {
		name   string
		tpl    string
		params map[string]string
		want   string
	}{
		{
			name:   "正常替换",
			tpl:    "您的验证码是 ${code}，${minutes} 分钟内有效",
			params: map[string]string{"code": "123456", "minutes": "5"},
			want:   "您的验证码是 123456，5 分钟内有效",
		},
		{
			name:   "同一变量出现多次",
			tpl:    "${name} 你好，${name}",
			params: map[string]string{"name": "张三"},
			want:   "张三 你好，张三",
		},
		{
			name:   "缺失变量保留占位符",
			tpl:    "您好 ${name}，订单 ${orderNo} 已发货",
			params: map[string]string{"name": "李四"},
			want:   "您好 李四，订单 ${orderNo} 已发货",
		},
		{
			name:   "无占位符原样返回",
			tpl:    "固定通知内容",
			params: map[string]string{"unused": "x"},
			want:   "固定通知内容",
		},
		{
			name:   "变量值可以为空字符串",
			tpl:    "前缀${mid}后缀",
			params: map[string]string{"mid": ""},
			want:   "前缀后缀",
		},
		{
			name:   "params为nil",
			tpl:    "内容 ${a}",
			params: nil,
			want:   "内容 ${a}",
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, r.Render(tc.tpl, tc.params))
		})
	}
}

func TestRenderer_MissingVars(t *testing.T) {
	t.Parallel()
	r := NewRenderer(logger.NewNopLogger())
	missing := r.MissingVars([]string{"code", "minutes"}, map[string]string{"code": "1"})
	assert.Equal(t, []string{"minutes"}, missing)
	assert.Nil(t, r.MissingVars(nil, nil))
	assert.Nil(t, r.MissingVars([]string{"a"}, map[string]string{"a": ""}))
}
