package pkgmgr

import (
	"github.com/google/wire"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cortexlinux/cortex-patch-go/internal/config"
)

// Module provides the package-manager gateway and refresh gate for fx
// injection. The gate is a singleton: one shared instance per process.
var Module = fx.Module("pkgmgr",
	fx.Provide(
		ProvideGateway,
		NewRefreshGate,
	),
)

// ProviderSet provides the same for Wire injection.
var ProviderSet = wire.NewSet(ProvideGateway, NewRefreshGate)

// ProvideGateway binds the apt implementation to the Gateway interface.
func ProvideGateway(cfg *config.Config, log *zap.Logger) Gateway {
	return NewAptGateway(cfg, log)
}
