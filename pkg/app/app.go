// Package app 负责应用初始化：配置、日志、追踪、指标、存储、签名器、调度器与 HTTP 引擎.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/imagevault/pkg/api"
	"github.com/yeisme/imagevault/pkg/configs"
	"github.com/yeisme/imagevault/pkg/internal/jobs"
	"github.com/yeisme/imagevault/pkg/internal/storage"
	"github.com/yeisme/imagevault/pkg/internal/storage/kv"
	"github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/metrics"
	"github.com/yeisme/imagevault/pkg/middleware"
	"github.com/yeisme/imagevault/pkg/rule"
	"github.com/yeisme/imagevault/pkg/scheduler"
	"github.com/yeisme/imagevault/pkg/signer"
	"github.com/yeisme/imagevault/pkg/tracing"
)

// shutdownTimeout 优雅退出的最长等待时间.
const shutdownTimeout = 15 * time.Second

// App 持有运行期资源.
type App struct {
	Engine  *gin.Engine
	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
}

// NewApp 加载配置并初始化全部依赖. 签名密钥只在这里读取一次.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	// gin 的 binding 与配置校验共用同一个 validator
	rule.Engine()

	if err := configs.Validate(); err != nil {
		return nil, err
	}

	config := configs.GetConfig()

	log.Init()
	l := log.Logger()

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(ctx, config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	sg, err := signer.New(config.Link.Secret)
	if err != nil {
		return nil, fmt.Errorf("init signer: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.RegisterCronJobs(sched, manager, sg, config.Jobs); err != nil {
		return nil, fmt.Errorf("register jobs: %w", err)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{middleware.TempPath, "/metrics"})),
		middleware.AuthMiddleware(config.Auth),
		middleware.RoleMiddleware(),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.InjectMiddleware(manager, sg, sched),
	)

	// 避免把 nil *kv.Client 装进接口
	var store kv.KVStore
	if kvc := manager.GetKVClient(); kvc != nil {
		store = kvc
	}

	api.RegisterGroup(engine, store)

	if config.Metrics.Enabled {
		if err := metrics.StartMetricsServer(config.Metrics, engine); err != nil {
			return nil, fmt.Errorf("start metrics: %w", err)
		}
	}

	return &App{
		Engine:  engine,
		config:  config,
		manager: manager,
		sched:   sched,
	}, nil
}

// Run 启动调度器与 HTTP 服务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	l := log.Logger()

	a.sched.Start()

	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		l.Info().Str("addr", srv.Addr).Str("version", configs.AppVersion).Msg("imagevault listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)

	a.close()

	if terr := tracing.ShutdownTracer(shutdownCtx); terr != nil {
		l.Warn().Err(terr).Msg("shutdown tracer failed")
	}

	return err
}

func (a *App) close() {
	l := log.Logger()

	if err := a.sched.Shutdown(); err != nil {
		l.Warn().Err(err).Msg("shutdown scheduler failed")
	}

	if err := a.manager.Close(); err != nil {
		l.Warn().Err(err).Msg("close storage failed")
	}
}
