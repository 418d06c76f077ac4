package jobs

// 任务名称常量.
const (
	JobLinkSweep = "link.sweep"
)

// DefaultCronLinkSweep 清扫任务默认每 30 分钟执行一次.
const DefaultCronLinkSweep = "*/30 * * * *"
