package ioc

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"go-unimessage/internal/pkg/logger"
)

func InitLogger() logger.Logger {
	cfg := zap.NewProductionConfig()
	if level := viper.GetString("log.level"); level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			panic(err)
		}
		cfg.Level = lvl
	}
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger.NewZapLogger(l)
}
