// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、运行时以及图片链接相关的业务指标.
//
// Example:
//
//	import "github.com/yeisme/imagevault/pkg/metrics"
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// 记录指标
//	metrics.RequestCounter.WithLabelValues("GET", "/temp", "200").Inc()
//	metrics.LinksRedeemed.WithLabelValues(metrics.RedeemExpired).Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 自动注册pprof端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/imagevault/pkg/configs"
)

// 兑换结果标签值.
const (
	RedeemOK       = "ok"
	RedeemMissing  = "missing"
	RedeemInvalid  = "invalid"
	RedeemExpired  = "expired"
	RedeemNoObject = "no_object"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器，按方法、路由模板与状态码区分.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagevault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// InflightRequests 正在处理的请求数.
	InflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagevault_http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// BytesServed 通过临时链接返回的图片字节数.
	BytesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_temp_bytes_served_total",
			Help: "Total bytes of image content served through expiring links",
		},
		[]string{"content_type"},
	)

	// LinksIssued 签发（含替换）过期链接次数.
	LinksIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_links_issued_total",
			Help: "Total number of expiring links issued or replaced",
		},
		[]string{"replaced"},
	)

	// LinksRedeemed 过期链接兑换次数，按结果区分.
	LinksRedeemed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_links_redeemed_total",
			Help: "Total number of expiring link redemptions by result",
		},
		[]string{"result"},
	)

	// LinksEvicted 因过期被删除的链接记录数，按触发路径区分.
	LinksEvicted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_links_evicted_total",
			Help: "Total number of expired link records deleted",
		},
		[]string{"reason"},
	)

	// ThumbnailsRendered 实际渲染（未命中缓存）的缩略图数量.
	ThumbnailsRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagevault_thumbnails_rendered_total",
			Help: "Total number of thumbnails rendered",
		},
		[]string{"size"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用只注册一次.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		// 注册标准收集器
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(RequestCounter, RequestDuration, InflightRequests)
		registry.MustRegister(LinksIssued, LinksRedeemed, LinksEvicted, ThumbnailsRendered, BytesServed)
	})

	return nil
}

// StartMetricsServer 在调试引擎上注册 /metrics 与可选的 pprof 端点.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	if config.Pprof {
		debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
