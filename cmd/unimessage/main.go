package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go-unimessage/internal/ioc"
)

func main() {
	initViper()

	app := ioc.InitApp()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	app.Start(ctx)

	addr := viper.GetString("web.addr")
	if addr == "" {
		addr = ":8080"
	}
	if err := app.WebServer.Run(addr); err != nil {
		panic(err)
	}
}

func initViper() {
	cfile := pflag.String("config", "config/config.yaml", "配置文件路径")
	pflag.Parse()
	viper.SetConfigFile(*cfile)
	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}
}
