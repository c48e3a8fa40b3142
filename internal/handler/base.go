// Package handler defines HTTP request handlers and related utilities.
package handler

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultRequestTimeout = 10 * time.Second

// BaseHandler provides common dependencies for HTTP handlers.
type BaseHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	timeout  time.Duration
}

func newBaseHandler(logger *slog.Logger) BaseHandler {
	return BaseHandler{
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeout:  defaultRequestTimeout,
	}
}
