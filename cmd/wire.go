//go:build wireinject

package cmd

import (
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/history"
	"github.com/cortexlinux/cortex-patch-go/internal/patcher"
	"github.com/cortexlinux/cortex-patch-go/internal/pkgmgr"
	"github.com/cortexlinux/cortex-patch-go/internal/scanner"
	"github.com/cortexlinux/cortex-patch-go/internal/scheduler"
)

func initPatcher(cfg *config.Config, log *zap.Logger) (*patcher.Patcher, func(), error) {
	wire.Build(
		pkgmgr.ProviderSet,
		scanner.ProviderSet,
		history.ProviderSet,
		patcher.ProviderSet,
	)
	return nil, nil, nil
}

func initScheduler(cfg *config.Config, log *zap.Logger) (*scheduler.Manager, func(), error) {
	wire.Build(
		pkgmgr.ProviderSet,
		scanner.ProviderSet,
		history.ProviderSet,
		patcher.ProviderSet,
		scheduler.ProviderSet,
	)
	return nil, nil, nil
}

func initScanner(cfg *config.Config, log *zap.Logger) (scanner.Scanner, error) {
	wire.Build(scanner.ProviderSet)
	return nil, nil
}
