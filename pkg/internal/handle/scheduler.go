package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeisme/imagevault/pkg/configs"
	ctxPkg "github.com/yeisme/imagevault/pkg/context"
	"github.com/yeisme/imagevault/pkg/internal/service"
	"github.com/yeisme/imagevault/pkg/scheduler"
)

func getScheduler(c *gin.Context) (*scheduler.Scheduler, bool) {
	sched := ctxPkg.GetScheduler(c.Request.Context())
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})
		return nil, false
	}

	return sched, true
}

// SchedulerJobs 返回所有定时任务信息.
//
//	@Summary	定时任务列表
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.JobInfos()})
}

// SchedulerStopJobs 停止所有任务.
//
//	@Summary	停止全部定时任务
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/stop [post]
func SchedulerStopJobs(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	if err := sched.StopJobs(); err != nil {
		respondError(c, err, "stop jobs failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "jobs stopped"})
}

// SchedulerRemoveJob 根据 id 删除任务.
//
//	@Summary	删除定时任务
//	@Tags		调度
//	@Param		id	path		string	true	"任务 ID"
//	@Success	200	{object}	map[string]string
//	@Failure	400	{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{id} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	if err := sched.RemoveJob(id); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}

		respondError(c, err, "remove job failed")

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

// SchedulerRunJob 立即运行一次指定名称的任务.
//
//	@Summary	立即运行定时任务
//	@Tags		调度
//	@Param		id	path		string	true	"任务名称"
//	@Success	202		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{id}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	if err := sched.RunNow(c.Param("id")); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}

		respondError(c, err, "run job failed")

		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered"})
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
//
//	@Summary	等待中的任务数
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Router		/api/v1/scheduler/queue/waiting [get]
func SchedulerQueueWaiting(c *gin.Context) {
	sched, ok := getScheduler(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}

// SweepLinks 立即清扫一次过期链接，不依赖定时任务是否开启.
//
//	@Summary	清扫过期链接
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	map[string]int
//	@Router		/api/v1/scheduler/links/sweep [post]
func SweepLinks(c *gin.Context) {
	n, err := service.NewLinkService(deps(c)).Sweep(c.Request.Context(), configs.GetConfig().Jobs.LinkSweep.BatchSize)
	if err != nil {
		respondError(c, err, "sweep links failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"evicted": n})
}
