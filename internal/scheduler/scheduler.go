package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// jobTimeout bounds one refresh run across all airports.
const jobTimeout = 30 * time.Minute

// Scheduler runs the daily weather table refresh.
type Scheduler struct {
	scheduler *gocron.Scheduler
	at        string
	job       func(ctx context.Context) error
}

// New creates a Scheduler firing once a day at the given "HH:MM" UTC time.
func New(at string, job func(ctx context.Context) error) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		at:        at,
		job:       job,
	}
}

// Start schedules the daily job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		log.Println("scheduler: running weather refresh job")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if err := s.job(ctx); err != nil {
			log.Printf("scheduler: weather refresh failed: %v", err)
			return
		}
		log.Println("scheduler: completed weather refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
