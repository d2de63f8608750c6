package render

import (
	"regexp"

	"go-unimessage/internal/pkg/logger"
)

var placeholderRe = regexp.MustCompile(`\$\{([a-zA-Z0-9_.]+)\}`)

// Renderer 模板渲染器，替换 ${var} 占位符。
// 缺失的变量保留原占位符，只告警不报错，保证一人渲染失败不拖垮整个批次。
type Renderer interface {
	Render(tpl string, params map[string]string) string
	// MissingVars 返回声明过但本次未传的变量
	MissingVars(declared []string, params map[string]string) []string
}

type renderer struct {
	logger logger.Logger
}

func NewRenderer(l logger.Logger) Renderer {
	return &renderer{logger: l}
}

func (r *renderer) Render(tpl string, params map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		val, ok := params[name]
		if !ok {
			r.logger.Warn("模板变量缺失，保留占位符", logger.String("var", name))
			return match
		}
		return val
	})
}

func (r *renderer) MissingVars(declared []string, params map[string]string) []string {
	var missing []string
	for _, name := range declared {
		if _, ok := params[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
