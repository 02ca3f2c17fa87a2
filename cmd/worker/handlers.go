package main

import (
	"github.com/hibiken/asynq"

	checkoutjob "storefront-backend/internal/domains/checkout/job"
	checkoutmodel "storefront-backend/internal/domains/checkout/model"
	"storefront-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Checkout
	clearSession   *checkoutjob.ClearSessionHandler
	expireAttempts *checkoutjob.ExpireAttemptsHandler
}

// initializeHandlers takes the job handlers built by the container
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		clearSession:   c.ClearSessionJob,
		expireAttempts: c.ExpireAttemptsJob,
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Checkout tasks
	mux.HandleFunc(checkoutmodel.TypeClearSession, h.clearSession.ProcessTask)

	// Maintenance tasks
	mux.HandleFunc(checkoutmodel.TypeExpireAttempts, h.expireAttempts.ProcessTask)
}
