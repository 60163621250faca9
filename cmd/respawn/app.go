package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/loykin/respawn/internal/config"
	"github.com/loykin/respawn/internal/engine"
	"github.com/loykin/respawn/internal/logsink"
	"github.com/loykin/respawn/internal/statestore/factory"
)

// app bundles the loaded configuration with a reconciled engine. Every
// command bootstraps through here so persisted state is always reconciled
// against live PIDs before any operation runs.
type app struct {
	cfg *config.Config
	eng *engine.Engine
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	store, err := factory.NewFromDSN(cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open state store %q: %w", cfg.Store.DSN, err)
	}

	var sink logsink.Sink = logsink.Discard{}
	if cfg.ChildLog.Dir != "" {
		sink = logsink.NewFileSink(cfg.ChildLog, func(name string, err error) {
			logger.Warn("child log write failed", "name", name, "err", err)
		})
	}

	eng, err := engine.New(engine.Options{
		Store:       store,
		Sink:        sink,
		Logger:      logger,
		SettleDelay: cfg.Engine.SettleDelay,
		StartPause:  cfg.Engine.StartPause,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	genv, err := cfg.GlobalEnv()
	if err != nil {
		_ = eng.Close()
		return nil, fmt.Errorf("load global env: %w", err)
	}
	eng.SetGlobalEnv(genv)

	eng.Reconcile(context.Background())
	return &app{cfg: cfg, eng: eng}, nil
}

func (a *app) close() {
	_ = a.eng.Close()
}
