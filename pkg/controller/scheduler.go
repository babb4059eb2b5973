package controller

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TaskFunc represents a runnable task.
type TaskFunc func() error

// Scheduler runs one task on a cron cadence. It drives the slow external
// diagnostics scrape, which is far too expensive for the per-tick refresh
// path.
type Scheduler struct {
	Task    TaskFunc
	OnError func(err error)

	parser cron.Parser

	mu       sync.Mutex
	schedule cron.Schedule
	nextRun  time.Time
	running  bool

	rescheduleCh chan cron.Schedule
	stopCh       chan struct{}
}

func NewScheduler(task TaskFunc, onError func(err error)) *Scheduler {
	if task == nil {
		panic("task function cannot be nil")
	}

	return &Scheduler{
		Task:         task,
		OnError:      onError,
		parser:       cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		rescheduleCh: make(chan cron.Schedule, 1),
		stopCh:       make(chan struct{}),
	}
}

// Schedule sets or replaces the cadence. Accepts cron expressions and
// descriptors such as "@every 2m".
func (s *Scheduler) Schedule(cronExpr string) error {
	sh, err := s.parser.Parse(cronExpr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.schedule = sh
	s.nextRun = sh.Next(time.Now())
	running := s.running
	s.mu.Unlock()

	if running {
		select {
		case s.rescheduleCh <- sh:
		default:
		}
	}
	return nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	go s.run()
}

func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh: // already closed
	default:
		close(s.stopCh)
	}
}

func (s *Scheduler) Status() (nextRun time.Time, running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun, s.running
}

func (s *Scheduler) run() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logrus.Debug("scheduler stopped")
	}()

	logrus.Debug("scheduler started")

	for {
		s.mu.Lock()
		nextRun := s.nextRun
		hasSchedule := s.schedule != nil
		s.mu.Unlock()

		var timer *time.Timer
		if !hasSchedule || nextRun.IsZero() {
			timer = time.NewTimer(time.Hour * 10000)
		} else {
			wait := time.Until(nextRun)
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
		}

		select {
		case <-timer.C:
			if !hasSchedule {
				continue
			}
			logrus.Debugf("running scheduled task at %s", nextRun.Format(time.DateTime))
			if err := s.Task(); err != nil {
				logrus.WithError(err).Debug("scheduled task failed")
				if s.OnError != nil {
					s.OnError(err)
				}
			}
			s.mu.Lock()
			if s.schedule != nil {
				s.nextRun = s.schedule.Next(time.Now())
			}
			s.mu.Unlock()
		case <-s.rescheduleCh:
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}
