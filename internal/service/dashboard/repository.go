package dashboard

import (
	"context"

	"github.com/ignite/connect-metrics/internal/datanorm"
	"github.com/ignite/connect-metrics/internal/daterange"
	"github.com/ignite/connect-metrics/internal/pkg/distlock"
)

// DataSource loads the source dataset for a date filter.
type DataSource interface {
	Load(ctx context.Context, filter daterange.Filter) (datanorm.Dataset, error)
}

// Locker hands out recompute locks. *distlock.Provider satisfies it.
type Locker interface {
	Lock(key string) distlock.Lock
}
