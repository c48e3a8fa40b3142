// Package service holds the quoting logic behind the HTTP handlers: pool
// estimates straight from pair storage and validated storefront quotes over
// live market snapshots.
package service

import (
	"log/slog"

	"github.com/nulln0ne/wines-storefront/internal/metrics"
)

// BaseService carries the logger and metrics shared by services. A nil
// metrics value records nothing.
type BaseService struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}
