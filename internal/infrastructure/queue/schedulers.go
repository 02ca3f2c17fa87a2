package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/config"
	checkoutmodel "storefront-backend/internal/domains/checkout/model"
	"storefront-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
}

func NewScheduler(redis asynq.RedisClientOpt, jobConfig config.JobConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
	}
}

func (s *Scheduler) RegisterCleanupJobs() error {
	if err := s.registerExpireAttemptsJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Expire Checkout Attempts (every 30 minutes by default)
// ================================================
// Attempts abandoned mid-payment are failed so a later retry with the same
// attempt id starts from a known state
func (s *Scheduler) registerExpireAttemptsJob() error {
	payload, err := json.Marshal(checkoutmodel.ExpireAttemptsPayload{
		MaxAgeSeconds: int64(s.jobConfig.AttemptExpiry / time.Second),
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(checkoutmodel.TypeExpireAttempts, payload)

	_, err = s.scheduler.Register(
		s.jobConfig.ExpireAttemptsAt,
		task,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ExpireCheckoutAttempts job", err)
		return err
	}

	logger.Info("✓ Registered ExpireCheckoutAttempts", map[string]interface{}{
		"cron":    s.jobConfig.ExpireAttemptsAt,
		"max_age": s.jobConfig.AttemptExpiry.String(),
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
