package ioc

import (
	"time"

	"github.com/sony/sonyflake"

	"go-unimessage/internal/pkg/idgen"
)

func InitIDGenerator() *idgen.Generator {
	// 使用固定设置的ID生成器
	sf := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Now(),
		MachineID: func() (uint16, error) {
			return 1, nil
		},
	})
	return idgen.NewGenerator(sf)
}
