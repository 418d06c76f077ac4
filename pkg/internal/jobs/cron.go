// Package jobs 负责注册与实现业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/imagevault/pkg/configs"
	ctxPkg "github.com/yeisme/imagevault/pkg/context"
	"github.com/yeisme/imagevault/pkg/internal/service"
	"github.com/yeisme/imagevault/pkg/internal/storage"
	"github.com/yeisme/imagevault/pkg/log"
	"github.com/yeisme/imagevault/pkg/scheduler"
	"github.com/yeisme/imagevault/pkg/signer"
)

// sweepTimeout 单次清扫的最长执行时间.
const sweepTimeout = 10 * time.Minute

// RegisterCronJobs 按配置注册业务定时任务：
//   - jobs.link_sweep.enabled 时定期删除过期链接记录（读取时的惰性淘汰仍是主路径）
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, sg *signer.Signer, cfg configs.JobsConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	if !cfg.LinkSweep.Enabled {
		return nil
	}

	// 把存储管理器和签名器放进 context，service 从中构造依赖
	baseCtx := ctxPkg.WithSigner(ctxPkg.WithStorageManager(context.Background(), mgr), sg)

	expr := cfg.LinkSweep.Cron
	if expr == "" {
		expr = DefaultCronLinkSweep
	}

	batch := cfg.LinkSweep.BatchSize

	return sched.AddCron(baseCtx, JobLinkSweep, expr, func(ctx context.Context) error {
		return runLinkSweep(ctx, batch)
	})
}

// runLinkSweep 执行一次过期链接清扫.
func runLinkSweep(ctx context.Context, batch int) error {
	l := log.Logger().With().Str("job", JobLinkSweep).Logger()

	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()

	n, err := service.NewLinkService(service.DepsFromContext(ctx)).Sweep(ctx, batch)
	if err != nil {
		l.Error().Err(err).Int("evicted", n).Msg("link sweep failed")
		return err
	}

	l.Info().Int("evicted", n).Dur("took", time.Since(start)).Msg("link sweep done")

	return nil
}
