package actor

import (
	"context"
	"time"

	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
)

// PollScheduler fires one recurring job per polled entity.
type PollScheduler struct {
	scheduler quartz.Scheduler
	cancel    context.CancelFunc
}

func NewPollScheduler() *PollScheduler {
	return &PollScheduler{
		scheduler: quartz.NewStdScheduler(),
	}
}

func (s *PollScheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.scheduler.Start(ctx)
}

// Every runs fn each interval under the job name.
func (s *PollScheduler) Every(name string, interval time.Duration, fn func()) error {
	fnJob := job.NewFunctionJob(func(_ context.Context) (bool, error) {
		fn()
		return true, nil
	})
	return s.scheduler.ScheduleJob(quartz.NewJobDetail(fnJob, quartz.NewJobKey(name)), quartz.NewSimpleTrigger(interval))
}

func (s *PollScheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.scheduler.Stop()
	s.cancel()
	s.cancel = nil
}
