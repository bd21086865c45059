package task

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/haierkeys/block-note-service/internal/app"
	"github.com/haierkeys/block-note-service/internal/dto"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NoteStatsTask 定期统计用户数与每个用户的笔记数并导出为 Prometheus 指标
type NoteStatsTask struct {
	app         *app.App
	interval    time.Duration
	concurrency int

	notes *prometheus.GaugeVec
	users prometheus.Gauge
}

// NewNoteStatsTask 创建统计任务，指标注册到 reg
func NewNoteStatsTask(appContainer *app.App, reg prometheus.Registerer) (*NoteStatsTask, error) {
	cfg := appContainer.Config()

	notes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "block_note_notes_total",
		Help: "Number of notes per owner.",
	}, []string{"uid"})
	users := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "block_note_users_total",
		Help: "Number of registered users.",
	})

	var err error
	if notes, err = registerOrReuse(reg, notes); err != nil {
		return nil, err
	}
	if users, err = registerOrReuse(reg, users); err != nil {
		return nil, err
	}

	concurrency := cfg.App.StatsConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &NoteStatsTask{
		app:         appContainer,
		interval:    cfg.GetStatsInterval(),
		concurrency: concurrency,
		notes:       notes,
		users:       users,
	}, nil
}

// registerOrReuse returns the collector already registered under the same descriptor
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Name 返回任务名称
func (t *NoteStatsTask) Name() string {
	return "NoteStats"
}

// Spec 返回执行间隔
func (t *NoteStatsTask) Spec() string {
	return "@every " + t.interval.String()
}

// IsStartupRun 是否立即执行一次
func (t *NoteStatsTask) IsStartupRun() bool {
	return true
}

// Run 并行读取用户与笔记统计，再整体刷新指标
func (t *NoteStatsTask) Run(ctx context.Context) error {
	var (
		total  *dto.CountDTO
		uids   []int64
		counts map[int64]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	g.Go(func() (err error) {
		total, err = t.app.UserService.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		uids, err = t.app.UserService.GetAllUIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err = t.app.NoteService.CountByOwner(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	t.users.Set(float64(total.Count))
	t.notes.Reset()
	// 没有笔记的用户也导出 0
	for _, uid := range uids {
		t.notes.WithLabelValues(strconv.FormatInt(uid, 10)).Set(float64(counts[uid]))
	}

	t.app.Logger().Debug("note stats refreshed",
		zap.Int64("users", total.Count),
		zap.Int("owners", len(counts)))
	return nil
}

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		return NewNoteStatsTask(appContainer, prometheus.DefaultRegisterer)
	})
}
