package idgen

import (
	"strings"

	"github.com/google/uuid"
	"github.com/sony/sonyflake"
)

// Generator 生成批次主键与业务批次号
type Generator struct {
	sf *sonyflake.Sonyflake
}

func NewGenerator(sf *sonyflake.Sonyflake) *Generator {
	return &Generator{sf: sf}
}

// NextID 雪花ID，用作批次主键
func (g *Generator) NextID() (int64, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return 0, err
	}
	return int64(id), nil
}

// BatchNo 业务批次号，UUID 去掉连字符
func (g *Generator) BatchNo() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
