package main

import (
	"context"
	"flag"
	"os"
	"syscall"

	"velora/cmd/assistant-service/internal/conf"
	"velora/cmd/assistant-service/internal/service"
	"velora/pkg/observability"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name string = "assistant-service"
	// Version is the version of the compiled software.
	Version string = "v1.0.0"
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/assistant-service.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)
	helper := log.NewHelper(logger)

	// 加载配置
	bc, err := conf.Load(flagconf)
	if err != nil {
		helper.Fatalf("Failed to load config from %s: %v", flagconf, err)
	}

	// 初始化追踪
	shutdownTracing, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName:    bc.Observability.ServiceName,
		ServiceVersion: Version,
		Environment:    bc.Observability.Environment,
		Endpoint:       bc.Observability.OTELEndpoint,
		SamplingRate:   bc.Observability.SamplingRate,
		Enabled:        bc.Observability.EnableTrace,
	})
	if err != nil {
		helper.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			helper.Errorf("Tracing shutdown failed: %v", err)
		}
	}()

	// 使用Wire构建应用
	app, cleanup, err := wireApp(bc, logger)
	if err != nil {
		helper.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	// 启动应用
	helper.Infof("Starting %s %s", Name, Version)
	if err := app.Run(); err != nil {
		helper.Fatalf("Failed to run application: %v", err)
	}
}

// newApp 创建Kratos应用
func newApp(logger log.Logger, hs *http.Server, svc *service.AssistantService) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
		),
		kratos.BeforeStart(svc.Start),
		kratos.AfterStop(svc.Stop),
		kratos.Signal(syscall.SIGTERM, syscall.SIGINT),
	)
}
