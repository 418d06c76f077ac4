// Package log 提供基于 zerolog 的日志工具，支持 stdout/stderr 和文件输出（lumberjack 轮转）.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/imagevault/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 按当前配置初始化全局 logger，重复调用无效果.
func Init() {
	initOnce.Do(setup)
}

func setup() {
	cfg := configs.GetConfig()

	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || lvl == zerolog.NoLevel {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", cfg.Log.Level)

		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	zc := zerolog.New(io.MultiWriter(sinks(&cfg.Log)...)).With().
		Timestamp().
		Str("service", "imagevault")

	mode := gin.ReleaseMode
	if cfg.Server.Debug {
		zc = zc.Caller().Stack()
		mode = gin.DebugMode
	}

	gin.SetMode(mode)

	logger = zc.Logger()
	log.Logger = logger
}

// sinks 返回日志输出目标：stderr（console 或 json）以及可选的轮转文件.
func sinks(cfg *configs.LogConfig) []io.Writer {
	var out []io.Writer

	if cfg.Format == "json" {
		out = append(out, os.Stderr)
	} else {
		out = append(out, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}

	if cfg.EnableFile {
		out = append(out, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	return out
}

// Logger 返回全局 logger.
func Logger() *zerolog.Logger {
	initOnce.Do(setup)

	return &logger
}

type requestIDKey struct{}

// WithRequestID 把请求 ID 写入 context，供 FromContext 关联日志.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID 读取 context 中的请求 ID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}

// FromContext 返回附带 request_id 与 trace_id 的子 logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	base := Logger()
	if ctx == nil {
		return base
	}

	c := base.With()

	if id := RequestID(ctx); id != "" {
		c = c.Str("request_id", id)
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		c = c.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}

	l := c.Logger()

	return &l
}

// GinWriter 把 Gin 文本行转发为 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 创建 GinWriter.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

// Write 每次调用对应 gin 输出的一行，去掉结尾换行后按构造时的级别记录.
func (w *GinWriter) Write(p []byte) (int, error) {
	lvl := w.level
	if lvl >= zerolog.ErrorLevel {
		lvl = zerolog.ErrorLevel
	}

	w.logger.WithLevel(lvl).Str("component", "gin").Msg(strings.TrimRight(string(p), "\r\n "))

	return len(p), nil
}
