package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/config"
)

// Queue names, in priority order
const (
	QueueHigh    = "high"
	QueueDefault = "default"
	QueueLow     = "low"
)

// Priorities is the asynq.Config.Queues weighting used by the worker
var Priorities = map[string]int{
	QueueHigh:    6,
	QueueDefault: 3,
	QueueLow:     1,
}

// RedisOpt builds the asynq connection from the shared Redis config
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Host,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

// UnmarshalTask decodes a task payload. A payload that cannot be decoded
// will never succeed, so retries are skipped.
func UnmarshalTask(t *asynq.Task, v interface{}) error {
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}
