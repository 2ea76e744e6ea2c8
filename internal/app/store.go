package service

import (
	"context"
	"fmt"

	"github.com/okian/smarthr/internal/adapters/repository"
	"github.com/okian/smarthr/internal/config"
)

// OpenStore opens the store selected by driver and brings SQL schemas up to date.
func OpenStore(ctx context.Context, driver, dsn string) (repository.Store, error) {
	var (
		st  *repository.SQLStore
		err error
	)
	switch driver {
	case config.DriverMemory, "":
		return repository.NewMemStore(ctx), nil
	case config.DriverSQLite:
		st, err = repository.OpenSQLite(ctx, dsn)
	case config.DriverPostgres:
		st, err = repository.OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
