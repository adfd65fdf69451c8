package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/retail-report/internal/store"
)

// defaultSQLitePath is used when store.database_url is empty.
const defaultSQLitePath = "retail-report.db"

// initStore opens the configured run archive and applies its migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver (RETAIL_STORE_DATABASE_URL)")
		}
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "none", "":
		return nil, eris.New("no run archive configured: set store.driver to sqlite or postgres")
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
