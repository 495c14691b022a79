package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockLens/internal/logger"
)

// Refresher is the part of the session store driven by the scheduler.
type Refresher interface {
	RefreshAll(ctx context.Context)
	RefreshQuotes(ctx context.Context)
}

// Scheduler owns the recurring quote refresh of one session.
type Scheduler struct {
	Cron    *cron.Cron
	Session Refresher
	Ctx     context.Context
	log     *zap.SugaredLogger

	mu      sync.Mutex
	stopped bool
}

// NewScheduler creates a new Scheduler. Ticks that fire while the previous
// one is still running are skipped.
func NewScheduler(ctx context.Context, sess Refresher, log *zap.SugaredLogger) *Scheduler {
	log = logger.OrNop(log)
	return &Scheduler{
		Cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		)),
		Session: sess,
		Ctx:     ctx,
		log:     log,
	}
}

// Register schedules the quote refresh every interval.
func (s *Scheduler) Register(interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("refresh interval %v is below 1s", interval)
	}
	if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", interval), s.quoteTask); err != nil {
		return fmt.Errorf("register quote refresh: %w", err)
	}
	return nil
}

// Start runs the initial full refresh synchronously, then starts the timer.
// The timer is not started if Stop was called or Ctx was cancelled during
// the first refresh.
func (s *Scheduler) Start() {
	s.RunNow()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.Ctx.Err() != nil {
		s.log.Info("scheduler stopped before start")
		return
	}
	s.Cron.Start()
	s.log.Infow("scheduler started", "jobs", len(s.Cron.Entries()))
}

// Stop cancels the timer and waits for a running tick to return. It may be
// called before or during Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	ctx := s.Cron.Stop()
	s.mu.Unlock()

	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// RunNow performs a full refresh, as on mount or manual trigger.
func (s *Scheduler) RunNow() {
	s.Session.RefreshAll(s.Ctx)
}

func (s *Scheduler) quoteTask() {
	if s.Ctx.Err() != nil {
		return
	}
	s.Session.RefreshQuotes(s.Ctx)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.SugaredLogger }

func (c cronLogger) Info(msg string, kv ...interface{}) { c.l.Debugw("cron: "+msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Errorw("cron: "+msg, append(kv, "error", err)...)
}
