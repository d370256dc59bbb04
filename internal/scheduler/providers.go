package scheduler

import (
	"github.com/google/wire"
	"go.uber.org/fx"

	"github.com/cortexlinux/cortex-patch-go/internal/patcher"
)

// Module provides the schedule manager (and the patcher stack it runs) for
// fx injection.
var Module = fx.Module("scheduler",
	patcher.Module,
	fx.Provide(
		ProvideRunner,
		NewManager,
	),
)

// ProviderSet provides the scheduler components for Wire injection.
var ProviderSet = wire.NewSet(ProvideRunner, NewManager)

// ProvideRunner binds the patcher to the PatchRunner interface.
func ProvideRunner(p *patcher.Patcher) PatchRunner {
	return p
}
