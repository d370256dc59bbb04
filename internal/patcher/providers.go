package patcher

import (
	"github.com/google/wire"
	"go.uber.org/fx"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
	"github.com/cortexlinux/cortex-patch-go/internal/history"
	"github.com/cortexlinux/cortex-patch-go/internal/pkgmgr"
	"github.com/cortexlinux/cortex-patch-go/internal/scanner"
)

// Module provides the planner, executor and patcher plus everything they
// depend on for fx injection.
var Module = fx.Module("patcher",
	pkgmgr.Module,
	scanner.Module,
	history.Module,
	fx.Provide(
		config.LoadFilters,
		NewPlanner,
		NewExecutor,
		NewPatcher,
	),
)

// ProviderSet provides the patcher components for Wire injection. The
// dependency modules carry their own sets.
var ProviderSet = wire.NewSet(
	config.LoadFilters,
	NewPlanner,
	NewExecutor,
	NewPatcher,
)
