package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MannanGupta05/buildplanwizard/internal/db"
	"github.com/MannanGupta05/buildplanwizard/internal/rules"
	"github.com/MannanGupta05/buildplanwizard/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "planwizard.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the run archive.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// loadRuleSet returns the rule set named by path, falling back to the
// configured file and then to the compiled-in defaults. A rule set without
// a location takes the configured one.
func loadRuleSet(path string) (rules.Config, error) {
	if path == "" {
		path = cfg.Rules.File
	}

	rc := rules.DefaultConfig()
	if path != "" {
		var err error
		if rc, err = rules.LoadConfig(path); err != nil {
			return rules.Config{}, err
		}
		zap.L().Debug("loaded rule set", zap.String("path", path), zap.String("location", rc.Location))
	}
	if rc.Location == "" {
		rc.Location = cfg.Rules.Location
	}
	return rc, nil
}

func initEngine(path string) (*rules.Engine, error) {
	rc, err := loadRuleSet(path)
	if err != nil {
		return nil, err
	}
	return rules.NewEngine(rc)
}
