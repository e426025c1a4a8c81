package server

import (
	"time"

	"velora/cmd/assistant-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer 创建 HTTP 服务器，Gin 路由挂载在根路径
func NewHTTPServer(c *conf.Bootstrap, router *Router, logger log.Logger) *khttp.Server {
	opts := []khttp.ServerOption{
		khttp.Network(c.Server.HTTP.Network),
		khttp.Address(c.Server.HTTP.Addr),
		khttp.Timeout(conf.Duration(c.Server.HTTP.Timeout, 30*time.Second)),
	}

	srv := khttp.NewServer(opts...)
	srv.HandlePrefix("/", router.Engine())

	log.NewHelper(logger).Infof("HTTP server created on %s", c.Server.HTTP.Addr)
	return srv
}
