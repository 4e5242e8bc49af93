package task

import (
	"context"
	"time"

	"github.com/medref/revision-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	LoopInterval() time.Duration   // 执行间隔，<=0 时只按 Schedule 或启动时执行
	IsStartupRun() bool            // 是否立即执行一次
}

// ScheduledTask is a Task driven by a cron schedule instead of a fixed interval
// ScheduledTask 按 cron 计划执行的任务
type ScheduledTask interface {
	Task
	Schedule() cron.Schedule
}

// cronParser 标准 5 段表达式，支持 @every / @hourly 等描述符
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule 解析 cron 表达式
func ParseSchedule(expr string) (cron.Schedule, error) {
	return cronParser.Parse(expr)
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
	now    func() time.Time
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		sc:     sc,
		now:    time.Now,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		s.startTask(task)
	}
}

// nextDelay 距下一次执行的时间，<=0 表示不再调度
func (s *Scheduler) nextDelay(task Task) time.Duration {
	if st, ok := task.(ScheduledTask); ok && st.Schedule() != nil {
		now := s.now()
		return st.Schedule().Next(now).Sub(now)
	}
	return task.LoopInterval()
}

// runOnce 执行一次任务，捕获 panic
func (s *Scheduler) runOnce(ctx context.Context, task Task, mode string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String("name", task.Name()),
				zap.String("mode", mode),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	s.logger.Info("task running", zap.String("name", task.Name()), zap.String("mode", mode))
	if err := task.Run(ctx); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.String("mode", mode),
			zap.Error(err))
	}
}

// startTask 启动单个任务
func (s *Scheduler) startTask(task Task) {

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-closeSignal
			cancel()
		}()

		if task.IsStartupRun() {
			go s.runOnce(ctx, task, "startupRun")
		}

		for {
			delay := s.nextDelay(task)
			if delay <= 0 {
				return
			}
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
				s.runOnce(ctx, task, "loopRun")
			case <-closeSignal:
				timer.Stop()
				s.logger.Info("task stopped", zap.String("name", task.Name()))
				return
			}
		}
	})
}
