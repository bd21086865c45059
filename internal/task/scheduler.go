package task

import (
	"context"
	"time"

	"github.com/haierkeys/block-note-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	Spec() string                  // cron 表达式，支持 @every 1m
	IsStartupRun() bool            // 是否立即执行一次
}

// RunTimeout 单次任务执行超时
const RunTimeout = 5 * time.Minute

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Scheduler 任务调度器
type Scheduler struct {
	logger *zap.Logger
	cron   *cron.Cron
	tasks  []Task
	sc     *safe_close.SafeClose
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		logger: logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		tasks: make([]Task, 0),
		sc:    sc,
	}
}

// AddTask 添加任务，表达式无效时返回错误
func (s *Scheduler) AddTask(task Task) error {
	if spec := task.Spec(); spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.run(task, "loopRun") }); err != nil {
			return err
		}
	}
	s.tasks = append(s.tasks, task)
	return nil
}

// Tasks 已添加的任务
func (s *Scheduler) Tasks() []Task {
	return s.tasks
}

// run 执行一次任务，panic 由调用方恢复
func (s *Scheduler) run(task Task, kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.String("type", kind),
			zap.Error(err))
		return
	}
	s.logger.Info("task log",
		zap.String("task", task.Name()),
		zap.String("type", kind),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("msg", "success"))
}

// Start 启动所有任务，收到关闭信号后等待运行中的任务结束
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting ", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		if !task.IsStartupRun() {
			continue
		}
		go func(task Task) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("task startupRun panic",
						zap.String("name", task.Name()),
						zap.Any("panic", r),
						zap.Stack("stack"))
				}
			}()
			s.run(task, "startupRun")
		}(task)
	}

	s.cron.Start()

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		<-s.cron.Stop().Done()
		s.logger.Info("tasks stopped")
	})
}
