package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"marketBack/internal/config"
)

const jobTimeout = 30 * time.Second

// schedulerLogger adapts zap to gocron.Logger.
type schedulerLogger struct {
	log *zap.SugaredLogger
}

func (l schedulerLogger) Debug(msg string, args ...any) { l.log.Debugw(msg, args...) }
func (l schedulerLogger) Info(msg string, args ...any)  { l.log.Infow(msg, args...) }
func (l schedulerLogger) Warn(msg string, args ...any)  { l.log.Warnw(msg, args...) }
func (l schedulerLogger) Error(msg string, args ...any) { l.log.Errorw(msg, args...) }

type scheduledJob struct {
	name string
	def  gocron.JobDefinition
	run  func(context.Context, time.Time) (int, error)
}

// startScheduler registers the background jobs: boost cleanup, listing expiry and,
// for the local auth provider, refresh session purging.
func (app *application) startScheduler(ctx context.Context, cfg config.Config) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(schedulerLogger{log: app.logger.Named("scheduler").Sugar()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobs := []scheduledJob{
		{"boost-cleaner", gocron.DurationJob(cfg.Scheduler.BoostCleanerInterval), app.boostService.ClearExpired},
		{"listing-expiry", gocron.CronJob(cfg.Scheduler.ExpiryCron, false), app.adService.ExpireStale},
	}
	if cfg.Auth.Provider != "gotrue" {
		jobs = append(jobs, scheduledJob{"session-purge", gocron.DurationJob(time.Hour), app.authRepo.PurgeExpiredSessions})
	}

	for _, job := range jobs {
		name, run := job.name, job.run
		_, err := s.NewJob(job.def,
			gocron.NewTask(func() { app.runJob(ctx, name, run) }),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule job %q: %w", name, err)
		}
	}

	s.Start()
	return s, nil
}

func (app *application) runJob(ctx context.Context, name string, run func(context.Context, time.Time) (int, error)) {
	runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	n, err := run(runCtx, time.Now())
	app.metrics.JobRan(name, err)
	if err != nil {
		app.errorLog.Printf("%s: %v", name, err)
		return
	}
	if n > 0 {
		app.infoLog.Printf("%s: %d rows updated", name, n)
	}
}
