//go:build !wireinject

package cmd

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/history"
	"github.com/cortexlinux/cortex-patch-go/internal/patcher"
	"github.com/cortexlinux/cortex-patch-go/internal/scanner"
	"github.com/cortexlinux/cortex-patch-go/internal/scheduler"
)

// initPatcher assembles the patcher stack. The returned cleanup closes the
// history database.
func initPatcher(cfg *config.Config, log *zap.Logger) (*patcher.Patcher, func(), error) {
	var (
		p     *patcher.Patcher
		store history.Store
	)
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),
		patcher.Module,
		fx.Populate(&p, &store),
	)
	if err := app.Err(); err != nil {
		return nil, nil, err
	}
	return p, func() { _ = store.Close() }, nil
}

// initScheduler assembles the schedule manager and the patcher stack it runs.
func initScheduler(cfg *config.Config, log *zap.Logger) (*scheduler.Manager, func(), error) {
	var (
		m     *scheduler.Manager
		store history.Store
	)
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),
		scheduler.Module,
		fx.Populate(&m, &store),
	)
	if err := app.Err(); err != nil {
		return nil, nil, err
	}
	return m, func() { _ = store.Close() }, nil
}

// initScanner assembles the standalone scanner boundary.
func initScanner(cfg *config.Config, log *zap.Logger) (scanner.Scanner, error) {
	var s scanner.Scanner
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),
		scanner.Module,
		fx.Populate(&s),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
