package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"policy_reco/config"
	"policy_reco/logger"
	"policy_reco/services"
)

// 将秒数转换为时间间隔
func secondsToDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// 验证小时和分钟是否有效
func validateHourMinute(cfg *config.Config, hour, minute int) (int, int) {
	defaultHour := cfg.Scheduler.DefaultHour
	defaultMinute := cfg.Scheduler.DefaultMinute

	if hour < 0 || hour > 23 {
		logger.Warn("无效的小时值", "hour", hour, "default", defaultHour)
		hour = defaultHour
	}
	if minute < 0 || minute > 59 {
		logger.Warn("无效的分钟值", "minute", minute, "default", defaultMinute)
		minute = defaultMinute
	}
	return hour, minute
}

// 计算下一个指定时间点
func getNextTimePoint(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// 任务类型
type TaskType int

const (
	TaskPurgeCache TaskType = iota
)

// 任务状态
type TaskStatus struct {
	LastRun     time.Time
	NextRun     time.Time
	IsRunning   bool
	Description string
	LastDeleted int64
}

// 任务调度器
type Scheduler struct {
	cfg       *config.Config
	purger    services.CachePurger
	retention time.Duration
	tasks     map[TaskType]*TaskStatus
	mutex     sync.Mutex
	wg        sync.WaitGroup
	done      chan struct{} // 主循环退出后关闭
}

// 创建新的调度器
func NewScheduler(cfg *config.Config, purger services.CachePurger) *Scheduler {
	days := cfg.Cron.RetentionDays
	if days <= 0 {
		days = 7
	}
	return &Scheduler{
		cfg:       cfg,
		purger:    purger,
		retention: time.Duration(days) * 24 * time.Hour,
		tasks:     make(map[TaskType]*TaskStatus),
		done:      make(chan struct{}),
	}
}

// 启动调度器，ctx 取消后主循环退出
func Start(ctx context.Context, cfg *config.Config, purger services.CachePurger) *Scheduler {
	scheduler := NewScheduler(cfg, purger)

	// 初始化任务
	scheduler.initTasks(time.Now())

	// 启动主循环
	go scheduler.run(ctx)

	logger.Info("调度器已启动", "check_interval_sec", int(scheduler.checkInterval()/time.Second))
	return scheduler
}

func (s *Scheduler) checkInterval() time.Duration {
	checkInterval := s.cfg.Scheduler.CheckIntervalSec
	if checkInterval <= 0 {
		checkInterval = 60 // 默认值
	}
	return secondsToDuration(checkInterval)
}

func (s *Scheduler) purgeInterval() time.Duration {
	freqSeconds := s.cfg.Debug.PurgeFreq
	if freqSeconds <= 0 {
		freqSeconds = 1800
	}
	return secondsToDuration(freqSeconds)
}

// 计算清理任务的下次运行时间
func (s *Scheduler) nextPurgeRun(now time.Time) time.Time {
	if s.cfg.Debug.Enabled {
		return now.Add(s.purgeInterval())
	}
	hour, minute := validateHourMinute(s.cfg, s.cfg.Cron.PurgeHour, s.cfg.Cron.PurgeMin)
	next := getNextTimePoint(now, hour, minute)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// 初始化任务
func (s *Scheduler) initTasks(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	next := s.nextPurgeRun(now)
	var desc string
	if s.cfg.Debug.Enabled {
		// Debug模式：按配置的秒数间隔清理
		desc = fmt.Sprintf("推荐缓存清理 (Debug模式: 每%d秒)", int(s.purgeInterval()/time.Second))
		logger.Info("Debug模式已启用", "frequency_seconds", int(s.purgeInterval()/time.Second))
	} else {
		// 正常模式：每天在指定时间点清理
		desc = fmt.Sprintf("推荐缓存清理 (%s)", next.Format("15:04"))
		logger.Info("正常模式", "schedule_time", next.Format("15:04"), "retention_days", int(s.retention/(24*time.Hour)))
	}

	s.tasks[TaskPurgeCache] = &TaskStatus{
		NextRun:     next,
		Description: desc,
	}
	logger.Info("定时任务初始化完成", "task_count", len(s.tasks))
}

// 主循环
func (s *Scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval())
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("调度器已停止")
			return
		case now := <-ticker.C:
			s.checkTasks(ctx, now)
		}
	}
}

// 检查任务
func (s *Scheduler) checkTasks(ctx context.Context, now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for taskType, status := range s.tasks {
		// 如果任务正在运行，跳过
		if status.IsRunning {
			continue
		}

		// 如果任务的NextRun为零值，跳过（表示不需要定期调度）
		if status.NextRun.IsZero() {
			continue
		}

		// 如果到达或超过下次运行时间，执行任务
		if !now.Before(status.NextRun) {
			status.IsRunning = true
			s.wg.Add(1)
			go s.runTask(ctx, taskType, now)
		}
	}
}

// 运行任务
func (s *Scheduler) runTask(ctx context.Context, taskType TaskType, now time.Time) {
	defer s.wg.Done()

	var deleted int64
	defer func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		status := s.tasks[taskType]
		status.IsRunning = false
		status.LastRun = now
		status.LastDeleted = deleted

		// 更新下次运行时间
		switch taskType {
		case TaskPurgeCache:
			status.NextRun = s.nextPurgeRun(now)
		}

		logger.Info("任务执行完成", "task", status.Description, "next_run", status.NextRun.Format("2006-01-02 15:04:05"))
	}()

	switch taskType {
	case TaskPurgeCache:
		logger.Info("开始执行任务", "task", "推荐缓存清理", "retention", s.retention.String())
		n, err := s.purger.PurgeExpired(ctx, s.retention)
		if err != nil {
			logger.Error("推荐缓存清理失败", "error", err)
			return
		}
		deleted = n
	}
}

// Status 返回任务状态快照
func (s *Scheduler) Status(taskType TaskType) (TaskStatus, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	status, ok := s.tasks[taskType]
	if !ok {
		return TaskStatus{}, false
	}
	return *status, true
}

// Wait 等待主循环退出并且正在运行的任务结束
// 主循环退出后不会再有新任务启动，此时 wg.Wait 不会与 checkTasks 中的 wg.Add 竞争
func (s *Scheduler) Wait() {
	<-s.done
	s.waitTasks()
}

func (s *Scheduler) waitTasks() {
	s.wg.Wait()
}
