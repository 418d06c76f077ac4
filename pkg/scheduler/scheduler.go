// Package scheduler 基于 gocron/v2 的定时任务调度，记录每个任务的运行状态供管理接口查询.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/imagevault/pkg/log"
)

// ErrJobNotFound 任务不存在.
var ErrJobNotFound = errors.New("job not found")

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 等待下一次触发
	StatusRunning   JobStatus = "running"   // 正在运行
	StatusError     JobStatus = "error"     // 上一次运行失败
)

// JobFunc 任务函数，返回的 error 会记录到任务状态中.
type JobFunc func(ctx context.Context) error

// JobInfo 任务的运行信息.
type JobInfo struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CronExpr     string        `json:"cron_expr"`
	NextRun      time.Time     `json:"next_run"`
	LastRun      time.Time     `json:"last_run"`
	LastSuccess  time.Time     `json:"last_success,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	Status       JobStatus     `json:"status"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Scheduler 包装 gocron.Scheduler，按名称管理任务.
type Scheduler struct {
	s      gocron.Scheduler
	mu     sync.RWMutex
	jobs   map[string]gocron.Job
	infos  map[string]*JobInfo
	logger *zerolog.Logger
}

// NewScheduler 创建调度器，需要调用 Start 后任务才会触发.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}

	return &Scheduler{
		s:      s,
		jobs:   make(map[string]gocron.Job),
		infos:  make(map[string]*JobInfo),
		logger: log.Logger(),
	}, nil
}

// AddCron 以 cron 表达式注册任务，名称不可重复. ctx 会传给每次运行.
func (s *Scheduler) AddCron(ctx context.Context, name, cronExpr string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %s already exists", name)
	}

	j, err := s.s.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, fn) }, ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.jobs[name] = j
	s.infos[name] = &JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
	}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// run 执行一次任务并记录结果，panic 视为失败.
func (s *Scheduler) run(ctx context.Context, name string, fn JobFunc) {
	start := time.Now()
	s.setRunning(name, start)

	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		err = fn(ctx)
	}()

	s.finish(name, start, err)
}

func (s *Scheduler) setRunning(name string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if info, ok := s.infos[name]; ok {
		info.Status = StatusRunning
		info.LastRun = at
	}
}

func (s *Scheduler) finish(name string, start time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.infos[name]
	if !ok {
		return
	}

	info.Runs++
	info.LastDuration = time.Since(start)

	if err != nil {
		info.Failures++
		info.Status = StatusError
		info.Error = err.Error()
		s.logger.Error().Err(err).Str("job", name).Msg("job failed")

		return
	}

	info.Status = StatusScheduled
	info.Error = ""
	info.LastSuccess = time.Now()
}

// RunNow 立即触发一次指定任务，不影响原有的调度.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s: %w", name, ErrJobNotFound)
	}

	return j.RunNow()
}

// RemoveJob 按 ID 删除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, j := range s.jobs {
		if j.ID() != id {
			continue
		}

		if err := s.s.RemoveJob(id); err != nil {
			return fmt.Errorf("remove job %s: %w", name, err)
		}

		delete(s.jobs, name)
		delete(s.infos, name)
		s.logger.Info().Str("job", name).Msg("removed job")

		return nil
	}

	return fmt.Errorf("%s: %w", id, ErrJobNotFound)
}

// JobInfos 返回所有任务信息，按名称排序.
func (s *Scheduler) JobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.infos))
	for name, info := range s.infos {
		cp := *info
		if next, err := s.jobs[name].NextRun(); err == nil {
			cp.NextRun = next
		}

		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// JobsWaitingInQueue 等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.s.JobsWaitingInQueue()
}

// StopJobs 停止所有任务的调度，已注册的任务保留.
func (s *Scheduler) StopJobs() error {
	return s.s.StopJobs()
}

// Start 启动调度.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.JobInfos())).Msg("starting scheduler")
	s.s.Start()
}

// Shutdown 停止调度并等待正在运行的任务结束.
func (s *Scheduler) Shutdown() error {
	s.logger.Info().Msg("stopping scheduler")

	return s.s.Shutdown()
}
