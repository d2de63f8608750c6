package ioc

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-unimessage/internal/pkg/ginx"
)

func InitWebServer(hdls []ginx.Handler) *gin.Engine {
	server := gin.Default()
	server.GET("/metrics", gin.WrapH(promhttp.Handler()))
	for _, hdl := range hdls {
		hdl.PublicRoutes(server)
		hdl.PrivateRoutes(server)
	}
	return server
}
